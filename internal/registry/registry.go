// Package registry tracks the live set of partitions owned by one consumer
// session and their cancelable subscription handles.
package registry

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/relay/types"
)

// Sentinel errors returned by the Registry.
var (
	// ErrPartitionExists is returned when adding a partition that is
	// already registered.
	ErrPartitionExists = errors.New("partition already registered")

	// ErrPartitionRetired is returned when adding a partition that was
	// previously removed; a partition id joins a session at most once.
	ErrPartitionRetired = errors.New("partition already retired from this session")
)

// Entry is one live partition subscription.
type Entry struct {
	Partition   int32
	StartOffset int64
	Handle      types.SubscriptionHandle
}

// Registry is the session's partition map. Adds and removes are expected to
// run on the driver context, but the map itself is concurrency-safe because
// Close cancels entries from an arbitrary caller goroutine.
type Registry struct {
	entries *xsync.Map[int32, *Entry]
	retired *xsync.Map[int32, struct{}]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: xsync.NewMap[int32, *Entry](),
		retired: xsync.NewMap[int32, struct{}](),
	}
}

// Add registers a partition entry. Fails if the partition is live or was
// removed earlier in this session.
func (r *Registry) Add(entry *Entry) error {
	if _, retired := r.retired.Load(entry.Partition); retired {
		return ErrPartitionRetired
	}
	if _, loaded := r.entries.LoadOrStore(entry.Partition, entry); loaded {
		return ErrPartitionExists
	}

	return nil
}

// Remove deletes a partition entry and marks the id retired. Removing an
// absent partition is a no-op reported by the second return value.
func (r *Registry) Remove(partition int32) (*Entry, bool) {
	entry, ok := r.entries.LoadAndDelete(partition)
	if ok {
		r.retired.Store(partition, struct{}{})
	}

	return entry, ok
}

// Has reports whether the partition is currently live.
func (r *Registry) Has(partition int32) bool {
	_, ok := r.entries.Load(partition)

	return ok
}

// Size returns the number of live partitions.
func (r *Registry) Size() int {
	return r.entries.Size()
}

// CancelAll removes every entry and cancels its handle, best-effort: a
// failing cancellation is logged and does not block the others. Used on full
// session teardown.
func (r *Registry) CancelAll(logger types.Logger) {
	r.entries.Range(func(partition int32, _ *Entry) bool {
		entry, ok := r.Remove(partition)
		if !ok {
			return true
		}
		if err := entry.Handle.Cancel(); err != nil {
			logger.Warn("failed to cancel partition subscription", "partition", partition, "error", err)
		}

		return true
	})
}
