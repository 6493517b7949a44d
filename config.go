package relay

import (
	"fmt"
	"time"

	"github.com/arloliu/relay/types"
)

// Default configuration values applied by SetDefaults.
const (
	// DefaultLowWatermark is the default lower flow-control threshold.
	DefaultLowWatermark = 100

	// DefaultHighWatermark is the default upper flow-control threshold.
	DefaultHighWatermark = 1000

	// DefaultCloseTimeout bounds how long Close waits for the cluster
	// collaborator to shut down.
	DefaultCloseTimeout = 5 * time.Second
)

// FlowControlConfig controls the hysteretic backpressure gate.
//
// When enabled, every delivered message increments an outstanding-work
// counter and every Ack decrements it. The gate signal closes when the
// counter strictly exceeds HighWatermark and reopens only when it drops
// strictly below LowWatermark; between the watermarks it holds its previous
// value.
type FlowControlConfig struct {
	// Enabled turns flow-control accounting on.
	Enabled bool `yaml:"enabled"`

	// LowWatermark is the counter value below which the gate reopens.
	LowWatermark int64 `yaml:"lowWatermark"`

	// HighWatermark is the counter value above which the gate closes.
	HighWatermark int64 `yaml:"highWatermark"`
}

// Config is the immutable consumer configuration. Supplied at construction
// and never mutated afterwards.
type Config struct {
	// Topic is the topic to consume. Required.
	Topic string `yaml:"topic"`

	// Start selects where consumption begins. The zero value starts at the
	// earliest retained message on all partitions.
	Start types.StartPosition `yaml:"-"`

	// Stop decides per message whether its partition's consumption is
	// complete. Defaults to never stopping.
	Stop types.StopPolicy `yaml:"-"`

	// FlowControl configures the backpressure gate.
	FlowControl FlowControlConfig `yaml:"flowControl"`

	// CloseTimeout bounds the cluster shutdown wait during Close.
	CloseTimeout time.Duration `yaml:"closeTimeout"`
}

// SetDefaults fills unset optional fields with project defaults.
func SetDefaults(cfg *Config) {
	if cfg.FlowControl.Enabled {
		if cfg.FlowControl.LowWatermark == 0 && cfg.FlowControl.HighWatermark == 0 {
			cfg.FlowControl.LowWatermark = DefaultLowWatermark
			cfg.FlowControl.HighWatermark = DefaultHighWatermark
		}
	}
	if cfg.Stop == nil {
		cfg.Stop = types.StopNever()
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = DefaultCloseTimeout
	}
}

// Validate checks the configuration for correctness.
//
// Returns:
//   - error: Describes the first violation found, nil when valid
func (cfg *Config) Validate() error {
	if cfg.Topic == "" {
		return ErrTopicRequired
	}
	if cfg.FlowControl.Enabled {
		if cfg.FlowControl.LowWatermark < 0 || cfg.FlowControl.LowWatermark >= cfg.FlowControl.HighWatermark {
			return fmt.Errorf("%w: low=%d high=%d", ErrInvalidWatermarks,
				cfg.FlowControl.LowWatermark, cfg.FlowControl.HighWatermark)
		}
	}
	if cfg.Start.IsExplicit() && len(cfg.Start.Offsets) == 0 {
		return ErrExplicitOffsetsRequired
	}

	return nil
}
