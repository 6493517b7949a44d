// Package flow implements the hysteretic flow-control gate that converts the
// outstanding-work counter into a binary "may produce more work" signal.
package flow

import "sync"

// Gate derives a boolean backpressure signal from an outstanding-work counter
// using two watermarks with hysteresis:
//
//   - counter strictly below the low watermark: the gate is open
//   - counter strictly above the high watermark: the gate is closed
//   - between the watermarks the previous state is held
//
// The gate starts open. It never blocks; every counter change re-evaluates
// the signal synchronously, and only actual transitions are published on the
// updates channel (edge-triggered). Partition fetch loops can therefore treat
// a received true as a wake-up event.
type Gate struct {
	low  int64
	high int64

	mu      sync.Mutex
	counter int64
	open    bool

	// Capacity-1 channel carrying the latest edge; stale edges are
	// coalesced so a slow reader always observes the newest state.
	updates chan bool
}

// NewGate creates a gate with the given watermarks. The caller guarantees
// 0 <= low < high.
func NewGate(low, high int64) *Gate {
	return &Gate{
		low:     low,
		high:    high,
		open:    true,
		updates: make(chan bool, 1),
	}
}

// Add applies a delta to the outstanding-work counter (positive for a
// delivered message, negative for acknowledgements), re-evaluates the signal,
// and returns its current value. The counter is clamped at zero so that
// over-acknowledgement cannot drive it negative.
func (g *Gate) Add(delta int64) bool {
	g.mu.Lock()
	g.counter += delta
	if g.counter < 0 {
		g.counter = 0
	}

	next := g.open
	switch {
	case g.counter < g.low:
		next = true
	case g.counter > g.high:
		next = false
	}

	changed := next != g.open
	g.open = next
	g.mu.Unlock()

	if changed {
		g.publish(next)
	}

	return next
}

// Open reports the current signal value.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.open
}

// Outstanding returns the current counter value.
func (g *Gate) Outstanding() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.counter
}

// Updates returns the edge notification channel. Only transitions are sent;
// consecutive rapid transitions may be coalesced to the most recent value.
func (g *Gate) Updates() <-chan bool {
	return g.updates
}

func (g *Gate) publish(open bool) {
	for {
		select {
		case g.updates <- open:
			return
		default:
		}
		// Channel full: displace the stale edge.
		select {
		case <-g.updates:
		default:
		}
	}
}
