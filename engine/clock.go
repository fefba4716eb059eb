package engine

import "time"

// Timer is a cancelable scheduled callback
type Timer interface {
	// Stop prevents the callback from firing, returns false if it already fired or was stopped
	Stop() bool
}

// Clock is the scheduler abstraction the engine runs its timed effects on
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealClock schedules on the runtime timer heap
// Callbacks run on their own goroutine; the engine serializes them
type RealClock struct{}

// NewRealClock creates a wall clock scheduler
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now returns the current time with monotonic clock reading
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc arms fn after d
func (RealClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
