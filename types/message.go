package types

import "time"

// Message is a single record received from one partition of a topic.
//
// Messages are immutable values: the relay never retains one past delivery,
// and listeners may hold onto them freely. Within a partition, messages are
// delivered in offset order; across partitions there is no ordering guarantee.
type Message struct {
	// Topic is the topic this message was consumed from.
	Topic string

	// Partition identifies the partition within the topic.
	Partition int32

	// Offset is the position of this message within its partition.
	Offset int64

	// Key is the optional partitioning key (may be nil).
	Key []byte

	// Value is the message payload.
	Value []byte

	// Timestamp is the broker- or producer-assigned timestamp, when available.
	Timestamp time.Time
}
