package relay

import (
	"context"

	"github.com/arloliu/relay/types"
)

// monitorPartitionState observes the cluster's partition-state notifications
// and terminates the output stream on the first permanent failure.
//
// This is a deliberate fail-fast policy: one unrecoverable partition is fatal
// to the whole topic subscription rather than degrading to partial delivery.
// The monitor does not drain or cancel the remaining partitions itself;
// terminating the relay is sufficient, and resource cleanup happens on Close.
func (c *Consumer) monitorPartitionState(ctx context.Context) {
	changes := c.cluster.PartitionStateChanges()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Topic != "" && change.Topic != c.cfg.Topic {
				continue
			}
			if !change.Class.Permanent() {
				c.logger.Debug("transient partition state change",
					"topic", c.cfg.Topic, "partition", change.Partition,
					"class", change.Class.String(), "error", change.Err)

				continue
			}

			c.fail(&types.PartitionError{
				Topic:     c.cfg.Topic,
				Partition: change.Partition,
				Class:     change.Class,
				Err:       change.Err,
			})

			return
		}
	}
}
