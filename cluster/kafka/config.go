package kafka

import (
	"errors"

	"github.com/Shopify/sarama"
)

// ErrBrokersRequired is returned when no broker addresses are configured.
var ErrBrokersRequired = errors.New("at least one broker address is required")

// DefaultClientID identifies this client to the brokers unless overridden.
const DefaultClientID = "relay-consumer"

// Config configures the Kafka cluster adapter.
type Config struct {
	// Brokers is the bootstrap broker address list. Required.
	Brokers []string `yaml:"brokers"`

	// ClientID identifies this client to the brokers.
	ClientID string `yaml:"clientId"`

	// Sarama optionally overrides the full client configuration. When nil
	// a default configuration with consumer error reporting enabled is
	// built from the fields above.
	Sarama *sarama.Config `yaml:"-"`
}

// applyDefaults fills unset optional fields with project defaults.
func (cfg *Config) applyDefaults() {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Sarama == nil {
		sc := sarama.NewConfig()
		sc.ClientID = cfg.ClientID
		// The partition pumps forward consumer errors into the
		// partition-state stream; without this they are only logged.
		sc.Consumer.Return.Errors = true
		cfg.Sarama = sc
	}
}

// validate checks the configuration for correctness.
func (cfg *Config) validate() error {
	if len(cfg.Brokers) == 0 {
		return ErrBrokersRequired
	}

	return nil
}
