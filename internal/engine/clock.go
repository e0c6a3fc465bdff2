package engine

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// The scheduler stamps every queued event with Clock.Next so events due at
// the same simulation time are delivered in the order they were scheduled.
// Simulation time itself lives on the Scheduler; Clock only orders.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
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
