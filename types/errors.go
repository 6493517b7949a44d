package types

import "fmt"

// ErrorClass categorizes a broker-reported partition error.
//
// The relay's fail-fast monitor only acts on permanent classifications;
// transient errors are expected to resolve through the broker client's own
// retry machinery and are logged, not surfaced.
type ErrorClass int32

const (
	// ClassNone indicates no error.
	ClassNone ErrorClass = iota

	// ClassTransient indicates an error that may resolve by retrying
	// (leader change, request timeout, temporary connectivity loss).
	ClassTransient

	// ClassPermanent indicates an error that will not resolve by retrying
	// (unknown or deleted topic, authorization failure).
	ClassPermanent
)

// Permanent reports whether the class is fatal to the subscription.
func (c ErrorClass) Permanent() bool { return c == ClassPermanent }

// String returns a human-readable class name.
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// PartitionStateChange is a broker notification about one partition's health.
// Consumed from Cluster.PartitionStateChanges; never stored.
type PartitionStateChange struct {
	Topic     string
	Partition int32
	Class     ErrorClass
	Err       error
}

// PartitionError is the terminal error emitted when a permanent failure on
// one partition aborts the whole topic subscription.
type PartitionError struct {
	Topic     string
	Partition int32
	Class     ErrorClass
	Err       error
}

// Error implements the error interface.
func (e *PartitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("partition %d of topic %q failed (%s): %v", e.Partition, e.Topic, e.Class, e.Err)
	}

	return fmt.Sprintf("partition %d of topic %q failed (%s)", e.Partition, e.Topic, e.Class)
}

// Unwrap returns the underlying broker error.
func (e *PartitionError) Unwrap() error { return e.Err }
