package relay

import "errors"

// Sentinel errors returned by the Consumer.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTopicRequired is returned when the configuration has no topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrInvalidWatermarks is returned when flow control is enabled with
	// watermarks that do not satisfy 0 <= low < high.
	ErrInvalidWatermarks = errors.New("watermarks must satisfy 0 <= low < high")

	// ErrExplicitOffsetsRequired is returned when an explicit start
	// position carries no offsets.
	ErrExplicitOffsetsRequired = errors.New("explicit start position requires offsets")

	// ErrClusterRequired is returned when the cluster collaborator is nil.
	ErrClusterRequired = errors.New("cluster collaborator is required")

	// ErrPartitionSubscriberRequired is returned when the partition
	// subscriber collaborator is nil.
	ErrPartitionSubscriberRequired = errors.New("partition subscriber is required")

	// ErrListenerRequired is returned when Subscribe is called with a nil
	// listener.
	ErrListenerRequired = errors.New("listener is required")

	// ErrAlreadySubscribed is returned on a second Subscribe attempt; the
	// first subscriber is unaffected.
	ErrAlreadySubscribed = errors.New("consumer already has a subscriber")

	// ErrNotSubscribed is returned by Ready before any Subscribe; readiness
	// is only meaningful after attach.
	ErrNotSubscribed = errors.New("consumer has no subscriber")

	// ErrClosed is returned when operating on a closed consumer.
	ErrClosed = errors.New("consumer closed")

	// ErrFlowControlDisabled is returned by Ack when flow control is not
	// enabled.
	ErrFlowControlDisabled = errors.New("flow control is not enabled")

	// ErrInvalidAckCount is returned by Ack for a non-positive count.
	ErrInvalidAckCount = errors.New("ack count must be positive")

	// ErrNoStartOffset is returned when bootstrap finds no starting offset
	// for an eligible partition.
	ErrNoStartOffset = errors.New("no start offset resolved for partition")
)
