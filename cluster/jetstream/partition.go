package jetstream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/relay/types"
)

// Subscribe implements types.PartitionSubscriber: it creates an ordered
// consumer filtered to the partition's subject, starting at the stream
// sequence given by startOffset, and pumps its messages to the sink on the
// driver context.
func (c *Cluster) Subscribe(ctx context.Context, topic string, partition int32, startOffset int64, sink types.PartitionSink) (types.SubscriptionHandle, error) {
	c.mu.Lock()
	js := c.js
	c.mu.Unlock()
	if js == nil {
		return nil, fmt.Errorf("jetstream cluster not connected")
	}

	subject, err := c.subject(partition)
	if err != nil {
		return nil, err
	}

	cfg := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{subject},
	}
	if startOffset > 0 {
		cfg.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		cfg.OptStartSeq = uint64(startOffset)
	}

	cons, err := js.OrderedConsumer(ctx, c.cfg.StreamName, cfg)
	if err != nil {
		return nil, fmt.Errorf("create ordered consumer for subject %q: %w", subject, err)
	}

	handler := func(msg jetstream.Msg) {
		meta, err := msg.Metadata()
		if err != nil {
			c.logger.Warn("message without metadata dropped", "subject", msg.Subject(), "error", err)

			return
		}
		relayed := types.Message{
			Topic:     topic,
			Partition: partition,
			Offset:    int64(meta.Sequence.Stream),
			Value:     msg.Data(),
			Timestamp: meta.Timestamp,
		}
		// Ordered consumers tolerate a blocking handler; per-partition
		// ordering is preserved by the single driver goroutine.
		if err := c.driver.Run(context.Background(), func() { sink.Deliver(relayed) }); err != nil {
			c.logger.Debug("delivery skipped after driver shutdown", "partition", partition)
		}
	}

	errHandler := jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		c.pushState(types.PartitionStateChange{
			Topic:     topic,
			Partition: partition,
			Class:     classify(err),
			Err:       err,
		})
	})

	cc, err := cons.Consume(handler, errHandler)
	if err != nil {
		return nil, fmt.Errorf("start consuming subject %q: %w", subject, err)
	}

	c.logger.Debug("partition consumer started", "subject", subject, "startSeq", startOffset)

	return &subscriptionHandle{cc: cc}, nil
}

// classify maps JetStream/NATS errors to the relay's error taxonomy. Ordered
// consumers transparently recreate themselves after transient failures, so
// only unrecoverable conditions are permanent.
func classify(err error) types.ErrorClass {
	switch {
	case err == nil:
		return types.ClassNone
	case errors.Is(err, jetstream.ErrStreamNotFound),
		errors.Is(err, jetstream.ErrConsumerDeleted),
		errors.Is(err, nats.ErrAuthorization),
		errors.Is(err, nats.ErrConnectionClosed):
		return types.ClassPermanent
	default:
		return types.ClassTransient
	}
}

// subscriptionHandle stops one ordered consumer.
type subscriptionHandle struct {
	cc   jetstream.ConsumeContext
	once sync.Once
}

// Cancel implements types.SubscriptionHandle. Safe to call more than once.
func (h *subscriptionHandle) Cancel() error {
	h.once.Do(func() { h.cc.Stop() })

	return nil
}
