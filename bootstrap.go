package relay

import (
	"context"
	"fmt"

	"github.com/arloliu/relay/internal/registry"
)

// bootstrap turns "attach requested" into a live set of partition
// subscriptions. Runs as a detached task started by Subscribe.
//
// Steps:
//  1. Connect to the broker.
//  2. If the start position carries no explicit offsets, resolve them
//     against the cluster, scoped to the partitions the policy consumes.
//  3. Fetch (possibly cached) partition metadata for the topic.
//  4. On the driver context, subscribe every eligible partition not already
//     registered. An empty registry afterwards completes the output stream
//     immediately instead of hanging.
//
// Any failure is reported on both the readiness future and the output
// stream. Partitions subscribed before the failure point are not rolled
// back; they stay live until Close.
func (c *Consumer) bootstrap(ctx context.Context) {
	if err := c.cluster.Connect(ctx); err != nil {
		c.failBootstrap(fmt.Errorf("connect: %w", err))

		return
	}

	start := c.cfg.Start
	if !start.IsExplicit() {
		offsets, err := c.cluster.ResolveOffsets(ctx, c.cfg.Topic, start)
		if err != nil {
			c.failBootstrap(fmt.Errorf("resolve offsets for topic %q: %w", c.cfg.Topic, err))

			return
		}
		start = start.WithResolvedOffsets(offsets)
	}

	partitions, err := c.cluster.PartitionMetadata(ctx, c.cfg.Topic)
	if err != nil {
		c.failBootstrap(fmt.Errorf("fetch partition metadata for topic %q: %w", c.cfg.Topic, err))

		return
	}

	// Registry mutation races with completion callbacks unless both run on
	// the driver context.
	var subErr error
	runErr := c.cluster.Driver().Run(ctx, func() {
		subErr = c.subscribePartitions(ctx, start, partitions)
	})
	if runErr != nil {
		c.failBootstrap(fmt.Errorf("driver: %w", runErr))

		return
	}
	if subErr != nil {
		c.failBootstrap(subErr)

		return
	}

	c.ready.Resolve(nil)
	c.logger.Info("consumer connected", "topic", c.cfg.Topic, "partitions", c.registry.Size())
}

// subscribePartitions wires every eligible partition into the relay. Runs on
// the driver context.
func (c *Consumer) subscribePartitions(ctx context.Context, start StartPosition, partitions []int32) error {
	for _, partition := range partitions {
		if !start.ShouldConsume(partition) || c.registry.Has(partition) {
			continue
		}

		offset, ok := start.Offset(partition)
		if !ok {
			return fmt.Errorf("%w: partition %d of topic %q", ErrNoStartOffset, partition, c.cfg.Topic)
		}

		handle, err := c.parts.Subscribe(ctx, c.cfg.Topic, partition, offset, c)
		if err != nil {
			return fmt.Errorf("subscribe partition %d of topic %q: %w", partition, c.cfg.Topic, err)
		}

		entry := &registry.Entry{Partition: partition, StartOffset: offset, Handle: handle}
		if err := c.registry.Add(entry); err != nil {
			// The registry refused the entry; do not leak the stream.
			if cancelErr := handle.Cancel(); cancelErr != nil {
				c.logger.Warn("failed to cancel rejected subscription", "partition", partition, "error", cancelErr)
			}

			return fmt.Errorf("register partition %d of topic %q: %w", partition, c.cfg.Topic, err)
		}

		c.everOwned.Store(true)
		c.metrics.RecordPartitionSubscribed(c.cfg.Topic, partition)
		c.logger.Debug("partition subscribed", "topic", c.cfg.Topic, "partition", partition, "offset", offset)
	}

	if c.registry.Size() == 0 {
		// Zero eligible partitions: an empty, completed stream rather
		// than one that hangs forever.
		c.complete()
	}

	return nil
}

// failBootstrap reports a bootstrap failure on both the readiness future and
// the output stream's terminal channel.
func (c *Consumer) failBootstrap(err error) {
	c.ready.Resolve(err)
	c.fail(err)
}
