package types

import "context"

// Cluster is the broker connectivity collaborator.
//
// Implementations own the network client, metadata discovery, and the
// serialized driver context that all partition deliveries and registry
// mutations are funneled through. The relay core never talks to the wire
// itself; see the cluster/kafka and cluster/jetstream adapters.
//
// Implementations must be safe for concurrent use.
type Cluster interface {
	// Connect establishes broker connectivity. Called once during bootstrap.
	Connect(ctx context.Context) error

	// ResolveOffsets converts a non-explicit start position into concrete
	// per-partition offsets for the topic. Only partitions the policy
	// consumes need to appear in the result.
	ResolveOffsets(ctx context.Context, topic string, start StartPosition) (map[int32]int64, error)

	// PartitionMetadata returns the topic's partition ids. May be served
	// from a metadata cache.
	PartitionMetadata(ctx context.Context, topic string) ([]int32, error)

	// PartitionStateChanges returns a long-lived stream of per-partition
	// health notifications. Implementations may close the channel on
	// shutdown but are not required to; readers must also watch their own
	// context.
	PartitionStateChanges() <-chan PartitionStateChange

	// Driver returns the serialized execution context shared by all
	// network-originated events of this cluster.
	Driver() Driver

	// Close releases broker resources. Idempotent.
	Close(ctx context.Context) error
}

// Driver is a serialized execution context: all functions submitted to it run
// one at a time, in submission order, on a single goroutine.
//
// The relay relies on this serialization instead of locking: registry
// mutation, message delivery, and completion callbacks all run on the driver,
// so they can never race with each other.
type Driver interface {
	// Run submits fn and waits for it to finish. Returns the context error
	// if ctx expires first; fn may still execute in that case.
	Run(ctx context.Context, fn func()) error

	// Schedule submits fn without waiting. Functions run in submission
	// order after everything already queued.
	Schedule(fn func())
}
