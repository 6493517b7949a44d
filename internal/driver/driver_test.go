package driver

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerial_RunWaits(t *testing.T) {
	s := New()
	defer s.Close()

	ran := false
	require.NoError(t, s.Run(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestSerial_SubmissionOrderPreserved(t *testing.T) {
	s := New()
	defer s.Close()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		s.Schedule(func() { order = append(order, i) })
	}
	// Run acts as a barrier behind everything scheduled above.
	require.NoError(t, s.Run(context.Background(), func() {}))

	require.Len(t, order, 10)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSerial_ScheduleRunsAfterCurrentBatch(t *testing.T) {
	s := New()
	defer s.Close()

	var events []string
	require.NoError(t, s.Run(context.Background(), func() {
		s.Schedule(func() { events = append(events, "deferred") })
		events = append(events, "inline")
	}))
	require.NoError(t, s.Run(context.Background(), func() {}))

	require.Equal(t, []string{"inline", "deferred"}, events)
}

func TestSerial_RunHonorsContext(t *testing.T) {
	s := New()
	defer s.Close()

	release := make(chan struct{})
	s.Schedule(func() { <-release })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Run(ctx, func() {})

	require.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestSerial_CloseDrainsQueuedWork(t *testing.T) {
	s := New()

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		s.Schedule(func() { count.Add(1) })
	}
	s.Close()

	assert.Equal(t, int32(5), count.Load())
}

func TestSerial_RunAfterClose(t *testing.T) {
	s := New()
	s.Close()

	err := s.Run(context.Background(), func() {})

	require.ErrorIs(t, err, ErrClosed)
}

func TestSerial_CloseIsIdempotent(t *testing.T) {
	s := New()
	s.Close()
	s.Close()
}
