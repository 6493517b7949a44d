package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/sarama"

	"github.com/arloliu/relay/types"
)

// Subscribe implements types.PartitionSubscriber: it opens a sarama partition
// consumer at startOffset and pumps its messages to the sink on the driver
// context.
func (c *Cluster) Subscribe(ctx context.Context, topic string, partition int32, startOffset int64, sink types.PartitionSink) (types.SubscriptionHandle, error) {
	c.mu.Lock()
	consumer := c.consumer
	c.mu.Unlock()
	if consumer == nil {
		return nil, fmt.Errorf("kafka cluster not connected")
	}

	pc, err := consumer.ConsumePartition(topic, partition, startOffset)
	if err != nil {
		return nil, fmt.Errorf("consume partition %d of topic %q: %w", partition, topic, err)
	}

	go c.pumpMessages(ctx, partition, pc, sink)
	go c.pumpErrors(topic, partition, pc)

	return &partitionHandle{pc: pc}, nil
}

// pumpMessages forwards the partition consumer's messages to the sink, one
// driver step per message so per-partition ordering is preserved. When the
// message channel closes (cancellation or broker end of stream) the sink's
// completion callback is scheduled.
func (c *Cluster) pumpMessages(ctx context.Context, partition int32, pc sarama.PartitionConsumer, sink types.PartitionSink) {
	for cm := range pc.Messages() {
		msg := types.Message{
			Topic:     cm.Topic,
			Partition: cm.Partition,
			Offset:    cm.Offset,
			Key:       cm.Key,
			Value:     cm.Value,
			Timestamp: cm.Timestamp,
		}
		if err := c.driver.Run(ctx, func() { sink.Deliver(msg) }); err != nil {
			return
		}
	}

	c.driver.Schedule(func() { sink.PartitionEnded(partition) })
}

// pumpErrors classifies the partition consumer's errors and feeds them into
// the partition-state stream.
func (c *Cluster) pumpErrors(topic string, partition int32, pc sarama.PartitionConsumer) {
	for ce := range pc.Errors() {
		c.pushState(types.PartitionStateChange{
			Topic:     topic,
			Partition: partition,
			Class:     Classify(ce.Err),
			Err:       ce.Err,
		})
	}
}

// partitionHandle cancels one sarama partition consumer.
type partitionHandle struct {
	pc   sarama.PartitionConsumer
	once sync.Once
}

// Cancel implements types.SubscriptionHandle. Safe to call more than once.
func (h *partitionHandle) Cancel() error {
	h.once.Do(func() { h.pc.AsyncClose() })

	return nil
}
