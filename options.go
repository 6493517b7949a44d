package relay

import "github.com/arloliu/relay/types"

// Option configures a Consumer with optional dependencies.
type Option func(*consumerOptions)

// consumerOptions holds optional Consumer configuration.
type consumerOptions struct {
	logger  types.Logger
	metrics types.MetricsCollector
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Example:
//
//	consumer, err := relay.NewConsumer(&cfg, cluster, parts,
//	    relay.WithLogger(myLogger))
func WithLogger(logger types.Logger) Option {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Example:
//
//	consumer, err := relay.NewConsumer(&cfg, cluster, parts,
//	    relay.WithMetrics(myCollector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *consumerOptions) {
		o.metrics = metrics
	}
}
