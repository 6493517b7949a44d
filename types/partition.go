package types

import "context"

// PartitionSubscriber is the per-partition streaming collaborator.
//
// Subscribe begins delivering one partition's messages to the sink and
// returns a cancelable handle. Deliveries and the end-of-stream callback must
// be issued on the cluster's driver context; the relay's whole concurrency
// model depends on that contract.
type PartitionSubscriber interface {
	Subscribe(ctx context.Context, topic string, partition int32, startOffset int64, sink PartitionSink) (SubscriptionHandle, error)
}

// PartitionSink receives one partition's events. Implemented by the relay
// consumer session; both methods are invoked on the driver context.
type PartitionSink interface {
	// Deliver hands one message to the sink.
	Deliver(msg Message)

	// PartitionEnded signals that the partition's stream ended naturally
	// (the broker reported end of data, not a cancellation).
	PartitionEnded(partition int32)
}

// SubscriptionHandle cancels one partition subscription. Cancel must be safe
// to call more than once and from any goroutine.
type SubscriptionHandle interface {
	Cancel() error
}

// HandleFunc adapts a plain cancel function to a SubscriptionHandle.
type HandleFunc func() error

// Cancel implements SubscriptionHandle.
func (f HandleFunc) Cancel() error { return f() }
