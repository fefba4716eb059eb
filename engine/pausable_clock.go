package engine

import (
	"sync"
	"time"
)

// PausableClock measures play time, excluding pauses
type PausableClock struct {
	mu sync.RWMutex

	source Clock

	startTime time.Time // Real time the run started

	// Pause state
	isPaused        bool
	pauseStartTime  time.Time     // When current pause started (real time)
	totalPausedTime time.Duration // Cumulative pause duration
}

// NewPausableClock creates a stopped-at-zero clock over source
func NewPausableClock(source Clock) *PausableClock {
	return &PausableClock{
		source:    source,
		startTime: source.Now(),
	}
}

// Restart zeroes elapsed time and clears pause state
func (pc *PausableClock) Restart() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.startTime = pc.source.Now()
	pc.isPaused = false
	pc.pauseStartTime = time.Time{}
	pc.totalPausedTime = 0
}

// Elapsed returns play time since Restart (frozen while paused)
func (pc *PausableClock) Elapsed() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	end := pc.source.Now()
	if pc.isPaused {
		end = pc.pauseStartTime
	}
	return end.Sub(pc.startTime) - pc.totalPausedTime
}

// Pause stops play time advancement
func (pc *PausableClock) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.isPaused {
		return
	}
	pc.isPaused = true
	pc.pauseStartTime = pc.source.Now()
}

// Resume continues play time advancement
func (pc *PausableClock) Resume() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.isPaused {
		return
	}
	pc.totalPausedTime += pc.source.Now().Sub(pc.pauseStartTime)
	pc.pauseStartTime = time.Time{}
	pc.isPaused = false
}

