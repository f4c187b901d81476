package engine

import "sync/atomic"

// SeqSource stamps merge-log records with strictly increasing sequence
// numbers. Implemented by Clock and testutil.DeterministicClock.
type SeqSource interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic logical clock.
//
// Merge-log order is defined by seq, never by wall-clock time, so replay
// re-merges traces in exactly the order they were first merged.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start. Used when a session
// opens a store whose merge log already holds entries up to start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
