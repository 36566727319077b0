package engine

import "sync/atomic"

// SeqClock issues trace sequence numbers. Clock is the production
// implementation; tests may substitute a resettable clock.
type SeqClock interface {
	Next() int64
}

// Clock is the logical clock that orders trace events.
//
// Every event a System emits is stamped with a strictly increasing seq from
// this clock. Seq numbers, not wall-clock time, order the trace, so replaying
// the same problem yields the same sequence.
//
// Clock uses atomics so that one clock can be shared with observers or with
// several systems solving candidates of the same call.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to continue a trace that is already stored.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
