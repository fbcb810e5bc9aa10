package engine

// Clock is the monotonic logical clock that stamps dispatches and
// reconciliation cycles.
//
// The engine is single-writer, so a plain counter suffices. Sequence numbers
// order journal entries; they are never derived from wall-clock time.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues from start.
// Used when several engines share one journal file.
func NewClockAt(start int64) *Clock {
	return &Clock{seq: start}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq
}
