package evolve

import "sync/atomic"

// Clock is a monotonic logical clock stamping operations with their
// interpretation order.
//
// Ledger ordering uses these seq numbers, never wall-clock timestamps:
// - Deterministic ordering (no wall-clock race conditions)
// - Reports render identically across runs
// - The pending queue's insertion order is explicit
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the pipeline's single-threaded design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used when resuming a session from a persisted journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
