// Package kafka adapts a Kafka cluster (via the sarama client) to the relay
// collaborator contracts.
//
// One Cluster value implements both types.Cluster and
// types.PartitionSubscriber: metadata and offset resolution come from the
// sarama client, per-partition streams from sarama partition consumers, and
// everything is funneled through a single serialized driver context as the
// relay requires.
package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/sarama"

	"github.com/arloliu/relay/internal/driver"
	"github.com/arloliu/relay/internal/logging"
	"github.com/arloliu/relay/types"
)

// stateBuffer bounds the partition-state notification channel; when a slow
// reader lets it fill, further notifications are dropped with a warning.
const stateBuffer = 16

// Cluster is a sarama-backed implementation of the relay collaborators.
type Cluster struct {
	cfg    Config
	logger types.Logger

	driver *driver.Serial
	states chan types.PartitionStateChange

	mu       sync.Mutex
	client   sarama.Client
	consumer sarama.Consumer
	closed   bool
}

// Compile-time assertions for the collaborator contracts.
var (
	_ types.Cluster             = (*Cluster)(nil)
	_ types.PartitionSubscriber = (*Cluster)(nil)
)

// Option configures a Cluster.
type Option func(*Cluster)

// WithLogger sets a logger.
func WithLogger(logger types.Logger) Option {
	return func(c *Cluster) {
		c.logger = logger
	}
}

// New creates a Kafka cluster adapter. No network activity happens until
// Connect.
func New(cfg Config, opts ...Option) (*Cluster, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Cluster{
		cfg:    cfg,
		logger: logging.NewNop(),
		driver: driver.New(),
		states: make(chan types.PartitionStateChange, stateBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Connect establishes broker connectivity.
func (c *Cluster) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	client, err := sarama.NewClient(c.cfg.Brokers, c.cfg.Sarama)
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		client.Close()

		return fmt.Errorf("create kafka consumer: %w", err)
	}

	c.client = client
	c.consumer = consumer
	c.logger.Debug("kafka client connected", "brokers", c.cfg.Brokers)

	return nil
}

// ResolveOffsets resolves a non-explicit start position into concrete
// per-partition offsets using the broker's earliest/latest offset index.
func (c *Cluster) ResolveOffsets(ctx context.Context, topic string, start types.StartPosition) (map[int32]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := c.connectedClient()
	if err != nil {
		return nil, err
	}

	when := sarama.OffsetOldest
	if start.Location == types.StartLatest {
		when = sarama.OffsetNewest
	}

	partitions, err := client.Partitions(topic)
	if err != nil {
		return nil, fmt.Errorf("list partitions of topic %q: %w", topic, err)
	}

	offsets := make(map[int32]int64, len(partitions))
	for _, partition := range partitions {
		if !start.ShouldConsume(partition) {
			continue
		}
		offset, err := client.GetOffset(topic, partition, when)
		if err != nil {
			return nil, fmt.Errorf("resolve offset of partition %d: %w", partition, err)
		}
		offsets[partition] = offset
	}

	return offsets, nil
}

// PartitionMetadata returns the topic's partition ids. Sarama caches
// metadata internally, so repeated calls are cheap.
func (c *Cluster) PartitionMetadata(ctx context.Context, topic string) ([]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := c.connectedClient()
	if err != nil {
		return nil, err
	}

	partitions, err := client.Partitions(topic)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata of topic %q: %w", topic, err)
	}

	return partitions, nil
}

// PartitionStateChanges returns the partition health notification stream fed
// by the per-partition error pumps.
func (c *Cluster) PartitionStateChanges() <-chan types.PartitionStateChange {
	return c.states
}

// Driver returns the adapter's serialized execution context.
func (c *Cluster) Driver() types.Driver {
	return c.driver
}

// Close releases the sarama consumer and client and stops the driver.
// Idempotent.
func (c *Cluster) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}
	c.closed = true
	consumer := c.consumer
	client := c.client
	c.mu.Unlock()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			c.logger.Warn("kafka consumer close failed", "error", err)
		}
	}
	if client != nil {
		if err := client.Close(); err != nil {
			c.logger.Warn("kafka client close failed", "error", err)
		}
	}

	// The states channel is left open: per-partition error pumps may still
	// be flushing. Monitors exit through their own context instead.
	c.driver.Close()

	return ctx.Err()
}

func (c *Cluster) connectedClient() (sarama.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, fmt.Errorf("kafka cluster not connected")
	}

	return c.client, nil
}

// pushState forwards a partition health notification, dropping it if the
// channel is full so a stalled reader cannot block the error pumps.
func (c *Cluster) pushState(change types.PartitionStateChange) {
	select {
	case c.states <- change:
	default:
		c.logger.Warn("partition state notification dropped",
			"topic", change.Topic, "partition", change.Partition, "class", change.Class.String())
	}
}
