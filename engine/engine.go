package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/score"
)

// Config wires the engine's collaborators and initial settings
// Nil collaborators fall back to a real clock, silent sound, in-memory scores and a no-op logger
type Config struct {
	Difficulty   core.Difficulty
	SoundEnabled bool
	Volume       float64
	Seed         int64 // 0 seeds from the clock

	// AudioDegraded starts the engine flagged, for a sound backend known to be unavailable
	AudioDegraded bool

	Clock  Clock
	Sound  SoundPlayer
	Scores ScoreStore
	Logger *zerolog.Logger
}

// DefaultConfig returns the settings a fresh install starts with
func DefaultConfig() Config {
	return Config{
		Difficulty:   core.DifficultyNormal,
		SoundEnabled: true,
		Volume:       constant.DefaultVolume,
	}
}

// Engine owns the game session and serializes every transition
// Commands never fail: a command issued in a phase that forbids it is ignored and returns false
type Engine struct {
	mu sync.Mutex

	clock    Clock
	sound    SoundPlayer
	scores   ScoreStore
	baseLog  zerolog.Logger
	log      zerolog.Logger
	rng      *rand.Rand
	timers   *timerSet
	runClock *PausableClock

	listeners  []listenerEntry
	listenerID uint64

	// Session state
	sessionID   string
	session     session
	phase       Phase
	stage       Stage
	resumeStage Stage // Stage a pause was entered from
	playback    *playback
	pressSeq    uint64

	// Presentation markers
	active      core.Signal
	wrongAnswer bool
	newBest     bool

	// Settings
	difficulty    core.Difficulty
	soundEnabled  bool
	volume        float64
	audioDegraded bool

	dirty bool     // State changed during the current serialized call
	post  []func() // Work run after the lock is released, in order
}

// New creates an idle engine
func New(cfg Config) *Engine {
	e := &Engine{
		clock:         cfg.Clock,
		sound:         cfg.Sound,
		scores:        cfg.Scores,
		difficulty:    cfg.Difficulty,
		soundEnabled:  cfg.SoundEnabled,
		volume:        clampVolume(cfg.Volume),
		audioDegraded: cfg.AudioDegraded,
		phase:         PhaseIdle,
	}

	if e.clock == nil {
		e.clock = NewRealClock()
	}
	if e.sound == nil {
		e.sound = silentPlayer{}
	}
	if e.scores == nil {
		e.scores = score.NewMemoryStore()
	}
	if !e.difficulty.Valid() {
		e.difficulty = core.DifficultyNormal
	}

	if cfg.Logger != nil {
		e.baseLog = cfg.Logger.With().Str("component", "engine").Logger()
	} else {
		e.baseLog = zerolog.Nop()
	}
	e.log = e.baseLog

	seed := cfg.Seed
	if seed == 0 {
		seed = e.clock.Now().UnixNano()
	}
	e.rng = rand.New(rand.NewSource(seed))

	e.timers = newTimerSet(e.clock, e.run)
	e.runClock = NewPausableClock(e.clock)

	if vs, ok := e.sound.(VolumeSetter); ok {
		vs.SetVolume(e.volume)
	}

	return e
}

// Subscribe registers a listener, the returned func removes it
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listenerID++
	id := e.listenerID
	e.listeners = append(e.listeners, listenerEntry{id: id, l: l})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, existing := range e.listeners {
			if existing.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a consistent read-only view of the session
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Best returns the stored best score for the active difficulty
func (e *Engine) Best(ctx context.Context) (int, error) {
	e.mu.Lock()
	d := e.difficulty
	e.mu.Unlock()
	return e.BestFor(ctx, d)
}

// BestFor returns the stored best score for d
func (e *Engine) BestFor(ctx context.Context, d core.Difficulty) (int, error) {
	best, err := e.scores.GetBest(ctx, d)
	if err != nil {
		return 0, fmt.Errorf("read best score for %s: %w", d, err)
	}
	return best, nil
}

// ===== COMMANDS =====

// Start begins a new run from Idle or GameOver
func (e *Engine) Start() bool {
	return e.do(func() bool {
		if e.phase.InProgress() {
			e.ignored("start")
			return false
		}

		if e.active != core.SignalNone {
			e.unlight()
		}
		e.timers.cancelAll()
		e.session.clear()
		e.playback = nil
		e.wrongAnswer = false
		e.newBest = false
		e.resumeStage = StageNone

		e.sessionID = uuid.NewString()
		e.log = e.baseLog.With().Str("session", e.sessionID).Logger()
		e.runClock.Restart()

		e.setPhase(PhasePlaying)
		e.stage = StageNone
		e.log.Info().Str("difficulty", e.difficulty.String()).Msg("Run started")

		e.generateNext()
		e.beginPlayback()
		return true
	})
}

// Pause suspends a run, cancelling in-flight playback and pending timers
func (e *Engine) Pause() bool {
	return e.do(e.pauseLocked)
}

// Resume returns to the stage the pause was entered from
// A pause during playback restarts the whole sequence
func (e *Engine) Resume() bool {
	return e.do(e.resumeLocked)
}

// TogglePause pauses a running game or resumes a paused one, decided under a single lock
func (e *Engine) TogglePause() bool {
	return e.do(func() bool {
		if e.phase == PhasePaused {
			return e.resumeLocked()
		}
		return e.pauseLocked()
	})
}

// HandleInput matches a player press against the expected step
func (e *Engine) HandleInput(sig core.Signal) bool {
	return e.do(func() bool {
		if !sig.Valid() || e.phase != PhasePlaying || e.stage != StageAwaitingInput {
			e.ignored("input")
			return false
		}

		e.playSound(sig)
		e.flashPress(sig)

		if sig != e.session.expected() {
			e.log.Info().
				Int("cursor", e.session.cursor).
				Str("expected", e.session.expected().String()).
				Str("got", sig.String()).
				Msg("Wrong answer")
			e.wrongAnswer = true
			e.advanceStage(StageWrongAnswer)
			e.playWrong()
			e.timers.schedule(constant.WrongAnswerWindow, e.gameOver)
			return true
		}

		e.session.cursor++
		if e.session.roundComplete() {
			e.completeRound()
		}
		return true
	})
}

// Reset abandons any run and returns to Idle, cancelling every pending timer
func (e *Engine) Reset() bool {
	return e.do(func() bool {
		if e.active != core.SignalNone {
			e.unlight()
		}
		e.timers.cancelAll()
		e.session.clear()
		e.playback = nil
		e.wrongAnswer = false
		e.newBest = false
		e.stage = StageNone
		e.resumeStage = StageNone
		e.setPhase(PhaseIdle)
		e.runClock.Restart()

		e.log.Debug().Msg("Reset")
		e.sessionID = ""
		e.log = e.baseLog
		return true
	})
}

// ChangeDifficulty selects a difficulty while no run is in progress
func (e *Engine) ChangeDifficulty(d core.Difficulty) bool {
	return e.do(func() bool {
		if !d.Valid() || e.phase.InProgress() {
			e.ignored("change difficulty")
			return false
		}
		if d == e.difficulty {
			return false
		}
		e.difficulty = d
		e.log.Debug().Str("difficulty", d.String()).Msg("Difficulty changed")
		return true
	})
}

// ToggleSound flips sound on or off, returns the new state
func (e *Engine) ToggleSound() bool {
	var enabled bool
	e.do(func() bool {
		e.soundEnabled = !e.soundEnabled
		enabled = e.soundEnabled
		return true
	})
	return enabled
}

// SetSoundEnabled sets sound on or off
func (e *Engine) SetSoundEnabled(enabled bool) bool {
	return e.do(func() bool {
		if e.soundEnabled == enabled {
			return false
		}
		e.soundEnabled = enabled
		return true
	})
}

// SetVolume sets the session volume, clamped to [0, 1]
func (e *Engine) SetVolume(v float64) bool {
	return e.do(func() bool {
		if math.IsNaN(v) {
			return false
		}
		v = clampVolume(v)
		if v == e.volume {
			return false
		}
		e.volume = v
		if vs, ok := e.sound.(VolumeSetter); ok {
			vs.SetVolume(v)
		}
		return true
	})
}

// ===== SERIALIZATION =====

// run executes fn under the engine lock and publishes a snapshot if state changed
// Work queued with deferUnlocked runs after the lock is released
func (e *Engine) run(fn func()) {
	for _, post := range e.locked(fn) {
		post()
	}
}

func (e *Engine) locked(fn func()) []func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn()

	if e.dirty {
		e.dirty = false
		e.notifyStateLocked()
	}

	post := e.post
	e.post = nil
	return post
}

// deferUnlocked queues fn to run once the current serialized call releases the lock
func (e *Engine) deferUnlocked(fn func()) {
	e.post = append(e.post, fn)
}

// do runs a command, marking state dirty when it took effect
func (e *Engine) do(cmd func() bool) bool {
	var applied bool
	e.run(func() {
		applied = cmd()
		if applied {
			e.dirty = true
		}
	})
	return applied
}

func (e *Engine) ignored(cmd string) {
	e.log.Trace().
		Str("command", cmd).
		Str("phase", e.phase.String()).
		Str("stage", e.stage.String()).
		Msg("Command ignored")
}

// ===== TRANSITIONS (caller holds e.mu) =====

func (e *Engine) pauseLocked() bool {
	if e.phase != PhasePlaying || e.stage == StageWrongAnswer {
		e.ignored("pause")
		return false
	}

	e.timers.cancelAll()
	e.playback = nil
	if e.active != core.SignalNone {
		e.unlight()
	}

	e.resumeStage = e.stage
	e.stage = StageNone
	e.setPhase(PhasePaused)
	e.runClock.Pause()

	e.log.Debug().Str("stage", e.resumeStage.String()).Msg("Paused")
	return true
}

func (e *Engine) resumeLocked() bool {
	if e.phase != PhasePaused {
		e.ignored("resume")
		return false
	}

	e.setPhase(PhasePlaying)
	e.runClock.Resume()

	stage := e.resumeStage
	e.resumeStage = StageNone

	switch stage {
	case StageShowingSequence:
		e.beginPlayback()
	case StageRoundComplete:
		e.stage = StageRoundComplete
		e.timers.schedule(constant.InterRoundDelay, e.nextRound)
	default:
		e.stage = StageAwaitingInput
	}

	e.log.Debug().Str("stage", e.stage.String()).Msg("Resumed")
	return true
}

func (e *Engine) setPhase(to Phase) bool {
	if !CanTransition(e.phase, to) {
		e.log.Warn().Str("from", e.phase.String()).Str("to", to.String()).Msg("Rejected phase transition")
		return false
	}
	e.phase = to
	e.dirty = true
	return true
}

func (e *Engine) advanceStage(to Stage) bool {
	if !CanAdvanceStage(e.stage, to) {
		e.log.Warn().Str("from", e.stage.String()).Str("to", to.String()).Msg("Rejected stage transition")
		return false
	}
	e.stage = to
	e.dirty = true
	return true
}

// generateNext appends one random signal, level follows the sequence length
func (e *Engine) generateNext() {
	sig := e.session.extend(e.rng)
	e.dirty = true
	e.log.Debug().Int("level", e.session.level()).Str("signal", sig.String()).Msg("Sequence extended")
}

func (e *Engine) completeRound() {
	e.session.streak++
	e.session.score = ComputeScore(e.session.level(), e.session.streak, e.difficulty)
	e.advanceStage(StageRoundComplete)
	e.timers.schedule(constant.InterRoundDelay, e.nextRound)

	e.log.Info().
		Int("level", e.session.level()).
		Int("streak", e.session.streak).
		Int("score", e.session.score).
		Msg("Round complete")
}

// nextRound fires after the inter-round delay
func (e *Engine) nextRound() {
	if e.phase != PhasePlaying || e.stage != StageRoundComplete {
		return
	}
	e.generateNext()
	e.beginPlayback()
}

// gameOver fires after the wrong-answer window
func (e *Engine) gameOver() {
	if e.phase != PhasePlaying || e.stage != StageWrongAnswer {
		return
	}

	e.wrongAnswer = false
	e.session.streak = 0
	e.advanceStage(StageNone)
	e.setPhase(PhaseGameOver)
	e.runClock.Pause()

	e.log.Info().
		Int("level", e.session.level()).
		Int("score", e.session.score).
		Dur("elapsed", e.runClock.Elapsed()).
		Msg("Game over")

	sessionID, d, final, log := e.sessionID, e.difficulty, e.session.score, e.log
	e.deferUnlocked(func() { e.recordBest(sessionID, d, final, log) })
}

// recordBest persists final if it beats the record for d, without holding the engine lock
// Store failures drop the update, the run is unaffected
func (e *Engine) recordBest(sessionID string, d core.Difficulty, final int, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), constant.ScoreStoreTimeout)
	defer cancel()

	best, err := e.scores.GetBest(ctx, d)
	if err != nil {
		log.Warn().Err(err).Msg("Best score unavailable, update dropped")
		return
	}
	if final <= best {
		return
	}
	if err := e.scores.SetBest(ctx, d, final); err != nil {
		log.Warn().Err(err).Msg("Best score not saved")
		return
	}
	log.Info().Int("score", final).Int("previous", best).Msg("New best score")

	e.run(func() {
		// A restart or reset since game over owns the snapshot now
		if e.sessionID != sessionID || e.phase != PhaseGameOver {
			return
		}
		e.newBest = true
		e.dirty = true
	})
}

// flashPress echoes a player press as a short highlight
func (e *Engine) flashPress(sig core.Signal) {
	if e.active != core.SignalNone {
		e.unlight()
	}
	e.light(sig)

	e.pressSeq++
	seq := e.pressSeq
	e.timers.schedule(constant.PressFlash, func() {
		if e.pressSeq != seq || e.active == core.SignalNone {
			return
		}
		e.unlight()
	})
}

// ===== EMISSION (caller holds e.mu) =====

func (e *Engine) light(sig core.Signal) {
	e.active = sig
	e.dirty = true
	for _, entry := range e.listeners {
		entry.l.OnSignalStart(sig)
	}
}

func (e *Engine) unlight() {
	e.active = core.SignalNone
	e.dirty = true
	for _, entry := range e.listeners {
		entry.l.OnSignalEnd()
	}
}

func (e *Engine) notifyStateLocked() {
	var snap Snapshot
	built := false
	for _, entry := range e.listeners {
		sl, ok := entry.l.(StateListener)
		if !ok {
			continue
		}
		if !built {
			snap = e.snapshotLocked()
			built = true
		}
		sl.OnStateChange(snap)
	}
}

func (e *Engine) playSound(sig core.Signal) {
	if !e.soundEnabled {
		return
	}
	e.soundCall(func() error { return e.sound.Play(sig) })
}

func (e *Engine) playWrong() {
	if !e.soundEnabled {
		return
	}
	e.soundCall(e.sound.PlayWrong)
}

// soundCall shields the engine from player failures, flagging degraded audio instead
func (e *Engine) soundCall(play func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.degradeAudio(fmt.Errorf("sound player panic: %v", r))
		}
	}()
	if err := play(); err != nil {
		e.degradeAudio(err)
	}
}

func (e *Engine) degradeAudio(err error) {
	if !e.audioDegraded {
		e.log.Warn().Err(err).Msg("Audio degraded, continuing silently")
	}
	e.audioDegraded = true
	e.dirty = true
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
