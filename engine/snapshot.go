package engine

import (
	"time"

	"github.com/lixenwraith/simon/core"
)

// Snapshot is the read-only view of a session handed to the presentation layer
type Snapshot struct {
	SessionID string
	Phase     Phase
	Stage     Stage // Stage of Playing, or the stage a pause was entered from

	Level  int
	Cursor int
	Score  int
	Streak int

	ActiveSignal core.Signal // SignalNone when no pad is lit
	WrongAnswer  bool

	Difficulty    core.Difficulty
	SoundEnabled  bool
	Volume        float64
	AudioDegraded bool

	NewBest bool          // Last game over beat the stored best
	Elapsed time.Duration // Play time excluding pauses
}

// AcceptingInput reports whether HandleInput would be processed
func (s Snapshot) AcceptingInput() bool {
	return s.Phase == PhasePlaying && s.Stage == StageAwaitingInput
}

// snapshotLocked builds a snapshot, caller holds e.mu
func (e *Engine) snapshotLocked() Snapshot {
	stage := e.stage
	if e.phase == PhasePaused {
		stage = e.resumeStage
	}
	var elapsed time.Duration
	if e.phase != PhaseIdle {
		elapsed = e.runClock.Elapsed()
	}
	return Snapshot{
		SessionID:     e.sessionID,
		Phase:         e.phase,
		Stage:         stage,
		Level:         e.session.level(),
		Cursor:        e.session.cursor,
		Score:         e.session.score,
		Streak:        e.session.streak,
		ActiveSignal:  e.active,
		WrongAnswer:   e.wrongAnswer,
		Difficulty:    e.difficulty,
		SoundEnabled:  e.soundEnabled,
		Volume:        e.volume,
		AudioDegraded: e.audioDegraded,
		NewBest:       e.newBest,
		Elapsed:       elapsed,
	}
}
