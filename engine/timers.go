package engine

import "time"

// timerSet owns every pending timed effect of the engine
// All fields are guarded by the engine mutex; callbacks re-enter through run
type timerSet struct {
	clock Clock
	run   func(fn func()) // Serializes a callback with engine commands

	gen     uint64 // Bumped by cancelAll, stale callbacks are dropped
	nextID  uint64
	pending map[uint64]Timer
}

func newTimerSet(clock Clock, run func(fn func())) *timerSet {
	return &timerSet{
		clock:   clock,
		run:     run,
		pending: make(map[uint64]Timer),
	}
}

// schedule arms fn after d, bound to the current generation
func (ts *timerSet) schedule(d time.Duration, fn func()) {
	gen := ts.gen
	ts.nextID++
	id := ts.nextID

	ts.pending[id] = ts.clock.AfterFunc(d, func() {
		ts.run(func() {
			if gen != ts.gen {
				return
			}
			if _, ok := ts.pending[id]; !ok {
				return
			}
			delete(ts.pending, id)
			fn()
		})
	})
}

// cancelAll stops every pending timer and invalidates callbacks already in flight
func (ts *timerSet) cancelAll() {
	for id, t := range ts.pending {
		t.Stop()
		delete(ts.pending, id)
	}
	ts.gen++
}

