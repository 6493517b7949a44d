// Package future provides a one-shot, single-assignment result usable as a
// connection-readiness signal.
package future

import (
	"context"
	"sync"
)

// Future resolves at most once, to nil (success) or an error (failure), and
// can be awaited by any number of goroutines. A second resolution attempt is
// ignored rather than raised.
type Future struct {
	once sync.Once
	done chan struct{}
	err  error
}

// New creates an unresolved future.
func New() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve sets the result. Only the first call takes effect; the return value
// reports whether this call won.
func (f *Future) Resolve(err error) bool {
	won := false
	f.once.Do(func() {
		f.err = err
		won = true
		close(f.done)
	})

	return won
}

// Wait blocks until the future resolves or ctx expires, returning the
// resolved error or the context error respectively.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed upon resolution.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the future has resolved.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the resolved error. It is only meaningful once Resolved
// reports true; before that it returns nil.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
