// Package driver implements the serialized execution context shared by a
// cluster collaborator and the consumer sessions attached to it.
package driver

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Run after the driver has been closed.
var ErrClosed = errors.New("driver closed")

// Serial executes submitted functions one at a time, in submission order, on
// a single goroutine. It is the Go rendition of a single-threaded event-loop
// scheduler: everything that touches a session's registry or delivery path
// runs here, so those paths need no locking among themselves.
type Serial struct {
	tasks     chan func()
	stop      chan struct{}
	stopOnce  sync.Once
	loopEnded chan struct{}
}

// New creates and starts a serial driver.
func New() *Serial {
	s := &Serial{
		tasks:     make(chan func(), 128),
		stop:      make(chan struct{}),
		loopEnded: make(chan struct{}),
	}
	go s.loop()

	return s
}

func (s *Serial) loop() {
	defer close(s.loopEnded)
	for {
		select {
		case fn := <-s.tasks:
			fn()
		case <-s.stop:
			// Drain what was queued before the stop, then exit.
			for {
				select {
				case fn := <-s.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Run submits fn and waits for it to finish. If ctx expires first the
// context error is returned, but fn may still execute later.
func (s *Serial) Run(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case s.tasks <- wrapped:
	case <-s.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule submits fn without waiting. The function runs after everything
// already queued, providing the "defer by one scheduling step" primitive.
// Scheduling after Close silently drops the function.
func (s *Serial) Schedule(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.stop:
	}
}

// Close stops the driver after draining already-queued work. Idempotent.
func (s *Serial) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.loopEnded
}
