package engine

import (
	"sync"
	"time"
)

// ManualClock provides a controllable clock for tests and headless drivers
// Timers fire only from Advance, in deadline order, on the caller's goroutine
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool // Fired or stopped
}

// NewManualClock creates a manual clock with the given start time
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current mocked time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers fn to run once the clock has been advanced by d
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &manualTimer{
		clock:    c,
		deadline: c.now.Add(d),
		seq:      c.seq,
		fn:       fn,
	}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves time forward by d, firing every timer that comes due
// Timers armed by callbacks fire within the same call if their deadline is reached
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.popDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.deadline
		c.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of armed timers
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.pending {
		if !t.done {
			n++
		}
	}
	return n
}

// popDue removes and returns the earliest timer due at or before target, ties by arm order
func (c *ManualClock) popDue(target time.Time) *manualTimer {
	idx := -1
	for i, t := range c.pending {
		if t.done || t.deadline.After(target) {
			continue
		}
		if idx < 0 {
			idx = i
			continue
		}
		best := c.pending[idx]
		if t.deadline.Before(best.deadline) || (t.deadline.Equal(best.deadline) && t.seq < best.seq) {
			idx = i
		}
	}
	if idx < 0 {
		c.compact()
		return nil
	}

	t := c.pending[idx]
	t.done = true
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	return t
}

// compact drops stopped timers
func (c *ManualClock) compact() {
	live := c.pending[:0]
	for _, t := range c.pending {
		if !t.done {
			live = append(live, t)
		}
	}
	c.pending = live
}

// Stop implements Timer
func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}
