package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/score"
)

// recorder captures every listener callback
type recorder struct {
	mu     sync.Mutex
	lit    []core.Signal
	ends   int
	states []Snapshot
}

func (r *recorder) OnSignalStart(s core.Signal) {
	r.mu.Lock()
	r.lit = append(r.lit, s)
	r.mu.Unlock()
}

func (r *recorder) OnSignalEnd() {
	r.mu.Lock()
	r.ends++
	r.mu.Unlock()
}

func (r *recorder) OnStateChange(s Snapshot) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.lit = nil
	r.ends = 0
	r.states = nil
	r.mu.Unlock()
}

func (r *recorder) litSignals() []core.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Signal(nil), r.lit...)
}

// fakeSound records plays and can be made to fail
type fakeSound struct {
	mu     sync.Mutex
	played []core.Signal
	wrong  int
	volume float64
	err    error
	panics bool
}

func (f *fakeSound) Play(s core.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("device gone")
	}
	f.played = append(f.played, s)
	return f.err
}

func (f *fakeSound) PlayWrong() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("device gone")
	}
	f.wrong++
	return f.err
}

func (f *fakeSound) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
}

// failingStore rejects every call
type failingStore struct{}

func (failingStore) GetBest(context.Context, core.Difficulty) (int, error) {
	return 0, errors.New("disk on fire")
}

func (failingStore) SetBest(context.Context, core.Difficulty, int) error {
	return errors.New("disk on fire")
}

// gatedStore blocks GetBest until released, signalling when a read starts
type gatedStore struct {
	*score.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: score.NewMemoryStore(),
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) GetBest(ctx context.Context, d core.Difficulty) (int, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.MemoryStore.GetBest(ctx, d)
}

type harness struct {
	e     *Engine
	clock *ManualClock
	rec   *recorder
	sound *fakeSound
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	t.Helper()

	h := &harness{
		clock: NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec:   &recorder{},
		sound: &fakeSound{},
	}

	cfg := DefaultConfig()
	cfg.Clock = h.clock
	cfg.Sound = h.sound
	cfg.Seed = 42
	for _, opt := range opts {
		opt(&cfg)
	}

	h.e = New(cfg)
	h.e.Subscribe(h.rec)
	return h
}

// sequence copies the current sequence
func (h *harness) sequence() []core.Signal {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	return append([]core.Signal(nil), h.e.session.sequence...)
}

// waitForInput advances the clock until the engine accepts input
func (h *harness) waitForInput(t *testing.T) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if h.e.Snapshot().AcceptingInput() {
			return
		}
		h.clock.Advance(10 * time.Millisecond)
	}
	t.Fatalf("engine never accepted input, snapshot %+v", h.e.Snapshot())
}

// playRound repeats the current sequence correctly
func (h *harness) playRound(t *testing.T) {
	t.Helper()
	h.waitForInput(t)
	for i, sig := range h.sequence() {
		if !h.e.HandleInput(sig) {
			t.Fatalf("input %d (%s) rejected", i, sig)
		}
	}
	if st := h.e.Snapshot().Stage; st != StageRoundComplete {
		t.Fatalf("expected RoundComplete after correct round, got %s", st)
	}
}

// reachLevel plays rounds until the sequence has the given length and input is accepted
func (h *harness) reachLevel(t *testing.T, level int) {
	t.Helper()
	for h.e.Snapshot().Level < level {
		h.playRound(t)
		h.clock.Advance(constant.InterRoundDelay)
	}
	h.waitForInput(t)
}

func wrongFor(sig core.Signal) core.Signal {
	for _, s := range core.Signals() {
		if s != sig {
			return s
		}
	}
	return core.SignalNone
}

func TestStart_FirstRoundScenario(t *testing.T) {
	h := newHarness(t)

	if !h.e.Start() {
		t.Fatal("Start from Idle rejected")
	}
	snap := h.e.Snapshot()
	if snap.Phase != PhasePlaying || snap.Stage != StageShowingSequence || snap.Level != 1 {
		t.Fatalf("after Start: %+v", snap)
	}
	if snap.SessionID == "" {
		t.Error("expected a session id")
	}

	h.playRound(t)

	snap = h.e.Snapshot()
	if snap.Streak != 1 || snap.Score != 22 {
		t.Errorf("after round 1: streak %d score %d, want 1 and 22", snap.Streak, snap.Score)
	}
	if snap.Level != 1 {
		t.Errorf("level should not grow before the inter-round delay, got %d", snap.Level)
	}

	h.clock.Advance(constant.InterRoundDelay - time.Millisecond)
	if h.e.Snapshot().Level != 1 {
		t.Fatal("next round started early")
	}
	h.clock.Advance(time.Millisecond)

	snap = h.e.Snapshot()
	if snap.Level != 2 || snap.Stage != StageShowingSequence {
		t.Errorf("after delay: level %d stage %s, want 2 ShowingSequence", snap.Level, snap.Stage)
	}
}

func TestPlayback_Timing(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	seq := h.sequence()

	// Level 1 normal: 500 lead-in, 400 highlight, 300 settle
	h.clock.Advance(constant.PlaybackLeadIn - time.Millisecond)
	if len(h.rec.litSignals()) != 0 {
		t.Fatal("signal lit during lead-in")
	}

	h.clock.Advance(time.Millisecond)
	if lit := h.rec.litSignals(); len(lit) != 1 || lit[0] != seq[0] {
		t.Fatalf("expected %s lit, got %v", seq[0], lit)
	}
	if h.e.Snapshot().ActiveSignal != seq[0] {
		t.Error("snapshot should report the active signal")
	}

	h.clock.Advance(400 * time.Millisecond)
	if h.e.Snapshot().ActiveSignal != core.SignalNone {
		t.Error("signal still lit after highlight")
	}

	h.clock.Advance(constant.PlaybackSettle - time.Millisecond)
	if h.e.Snapshot().AcceptingInput() {
		t.Fatal("input accepted before settle delay elapsed")
	}
	h.clock.Advance(time.Millisecond)
	if !h.e.Snapshot().AcceptingInput() {
		t.Fatal("input not accepted after playback")
	}

	h.sound.mu.Lock()
	defer h.sound.mu.Unlock()
	if len(h.sound.played) != 1 || h.sound.played[0] != seq[0] {
		t.Errorf("playback sound: %v", h.sound.played)
	}
}

func TestPlayback_EmitsWholeSequenceInOrder(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.reachLevel(t, 4)

	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.rec.reset()
	h.waitForInput(t)

	seq := h.sequence()
	lit := h.rec.litSignals()
	if len(lit) != len(seq) {
		t.Fatalf("lit %d signals, sequence has %d", len(lit), len(seq))
	}
	for i := range seq {
		if lit[i] != seq[i] {
			t.Errorf("step %d: lit %s, want %s", i, lit[i], seq[i])
		}
	}
	if h.rec.ends != len(seq) {
		t.Errorf("expected %d signal ends, got %d", len(seq), h.rec.ends)
	}
}

func TestRounds_LevelTracksSequence(t *testing.T) {
	h := newHarness(t)
	h.e.Start()

	prev := h.sequence()
	for n := 1; n <= 6; n++ {
		h.playRound(t)
		h.clock.Advance(constant.InterRoundDelay)

		seq := h.sequence()
		if len(seq) != n+1 || h.e.Snapshot().Level != n+1 {
			t.Fatalf("after %d rounds: length %d level %d", n, len(seq), h.e.Snapshot().Level)
		}
		for i := range prev {
			if seq[i] != prev[i] {
				t.Fatalf("round %d rewrote step %d", n, i)
			}
		}
		prev = seq
	}
}

func TestWrongAnswer_Scenario(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.reachLevel(t, 5)

	before := h.e.Snapshot()
	if before.Score != ComputeScore(4, 4, core.DifficultyNormal) {
		t.Fatalf("score before wrong answer: %d", before.Score)
	}

	seq := h.sequence()
	h.e.HandleInput(seq[0])
	h.e.HandleInput(seq[1])
	if !h.e.HandleInput(wrongFor(seq[2])) {
		t.Fatal("wrong input should be processed")
	}

	snap := h.e.Snapshot()
	if snap.Phase != PhasePlaying || snap.Stage != StageWrongAnswer || !snap.WrongAnswer {
		t.Fatalf("after wrong input: %+v", snap)
	}
	if h.e.HandleInput(seq[2]) {
		t.Error("input accepted during wrong-answer window")
	}
	if h.e.Pause() {
		t.Error("pause accepted during wrong-answer window")
	}

	h.clock.Advance(constant.WrongAnswerWindow - time.Millisecond)
	if h.e.Snapshot().Phase != PhasePlaying {
		t.Fatal("game over before the wrong-answer window elapsed")
	}
	h.clock.Advance(time.Millisecond)

	snap = h.e.Snapshot()
	if snap.Phase != PhaseGameOver {
		t.Fatalf("expected GameOver, got %s", snap.Phase)
	}
	if snap.Streak != 0 || snap.Score != before.Score || snap.WrongAnswer {
		t.Errorf("game over state: streak %d score %d wrong %v", snap.Streak, snap.Score, snap.WrongAnswer)
	}

	h.sound.mu.Lock()
	if h.sound.wrong != 1 {
		t.Errorf("expected one wrong buzz, got %d", h.sound.wrong)
	}
	h.sound.mu.Unlock()

	if !h.e.Start() {
		t.Error("Start from GameOver rejected")
	}
	if snap := h.e.Snapshot(); snap.Level != 1 || snap.Score != 0 || snap.SessionID == before.SessionID {
		t.Errorf("restart did not begin a fresh session: %+v", snap)
	}
}

func TestRoundComplete_FiresOnce(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.playRound(t)

	seq := h.sequence()
	if h.e.HandleInput(seq[0]) {
		t.Error("input accepted during inter-round delay")
	}

	h.clock.Advance(constant.InterRoundDelay)
	h.clock.Advance(5 * time.Second)

	if lvl := h.e.Snapshot().Level; lvl != 2 {
		t.Errorf("expected exactly one new step, level %d", lvl)
	}
}

func TestInput_IgnoredOutsideAwaitingInput(t *testing.T) {
	h := newHarness(t)

	if h.e.HandleInput(core.SignalRed) {
		t.Error("input accepted while idle")
	}

	h.e.Start()
	if h.e.HandleInput(core.SignalRed) {
		t.Error("input accepted during playback")
	}
	if h.e.Snapshot().Cursor != 0 {
		t.Error("ignored input moved the cursor")
	}

	h.waitForInput(t)
	if h.e.HandleInput(core.SignalNone) {
		t.Error("SignalNone accepted as input")
	}
}

func TestInput_PressEcho(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.reachLevel(t, 2)

	sig := h.sequence()[0]
	h.rec.reset()
	h.e.HandleInput(sig)

	if h.e.Snapshot().ActiveSignal != sig {
		t.Fatal("press not echoed as a highlight")
	}
	h.clock.Advance(constant.PressFlash)
	if h.e.Snapshot().ActiveSignal != core.SignalNone {
		t.Error("press highlight not cleared")
	}
	if lit := h.rec.litSignals(); len(lit) != 1 || lit[0] != sig || h.rec.ends != 1 {
		t.Errorf("press emissions: lit %v ends %d", lit, h.rec.ends)
	}
}

func TestStart_SingleFlight(t *testing.T) {
	h := newHarness(t)

	if !h.e.Start() {
		t.Fatal("first Start rejected")
	}
	if h.e.Start() {
		t.Error("second Start accepted while playing")
	}

	h.waitForInput(t)
	if lit := h.rec.litSignals(); len(lit) != 1 {
		t.Errorf("expected one playback, lit %v", lit)
	}
}

func TestPause_HaltsEmissions(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.reachLevel(t, 3)
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)

	// Mid-playback of a 4-step sequence
	h.clock.Advance(constant.PlaybackLeadIn + 100*time.Millisecond)
	if h.e.Snapshot().ActiveSignal == core.SignalNone {
		t.Fatal("expected a lit signal mid-playback")
	}

	if !h.e.Pause() {
		t.Fatal("Pause rejected during playback")
	}
	snap := h.e.Snapshot()
	if snap.Phase != PhasePaused || snap.Stage != StageShowingSequence || snap.ActiveSignal != core.SignalNone {
		t.Fatalf("paused snapshot: %+v", snap)
	}
	if h.clock.Pending() != 0 {
		t.Errorf("pause left %d timers armed", h.clock.Pending())
	}

	h.rec.reset()
	h.clock.Advance(30 * time.Second)
	if lit := h.rec.litSignals(); len(lit) != 0 {
		t.Fatalf("signals emitted while paused: %v", lit)
	}
	if h.e.HandleInput(core.SignalRed) {
		t.Error("input accepted while paused")
	}

	if !h.e.Resume() {
		t.Fatal("Resume rejected")
	}
	h.waitForInput(t)

	seq := h.sequence()
	if lit := h.rec.litSignals(); len(lit) != len(seq) {
		t.Errorf("resume should replay the whole sequence, lit %v of %v", lit, seq)
	}
}

func TestPause_AwaitingInputKeepsCursor(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.reachLevel(t, 2)

	seq := h.sequence()
	h.e.HandleInput(seq[0])

	if !h.e.TogglePause() {
		t.Fatal("TogglePause did not pause")
	}
	if !h.e.TogglePause() {
		t.Fatal("TogglePause did not resume")
	}

	snap := h.e.Snapshot()
	if snap.Stage != StageAwaitingInput || snap.Cursor != 1 {
		t.Fatalf("after resume: stage %s cursor %d", snap.Stage, snap.Cursor)
	}
	h.e.HandleInput(seq[1])
	if h.e.Snapshot().Stage != StageRoundComplete {
		t.Error("round did not complete after resume")
	}
}

func TestPause_DuringRoundCompleteRearmsDelay(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.playRound(t)

	h.clock.Advance(constant.InterRoundDelay / 2)
	h.e.Pause()
	h.clock.Advance(10 * time.Second)
	if h.e.Snapshot().Level != 1 {
		t.Fatal("next round started while paused")
	}

	h.e.Resume()
	h.clock.Advance(constant.InterRoundDelay - time.Millisecond)
	if h.e.Snapshot().Level != 1 {
		t.Fatal("resumed delay shorter than the full inter-round delay")
	}
	h.clock.Advance(time.Millisecond)
	if h.e.Snapshot().Level != 2 {
		t.Error("next round did not start after resumed delay")
	}
}

func TestReset_CancelsTimers(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.clock.Advance(constant.PlaybackLeadIn + 10*time.Millisecond)

	if !h.e.Reset() {
		t.Fatal("Reset rejected")
	}
	snap := h.e.Snapshot()
	if snap.Phase != PhaseIdle || snap.Level != 0 || snap.Score != 0 || snap.SessionID != "" {
		t.Fatalf("after reset: %+v", snap)
	}
	if h.clock.Pending() != 0 {
		t.Errorf("reset left %d timers armed", h.clock.Pending())
	}

	h.rec.reset()
	h.clock.Advance(time.Minute)
	if len(h.rec.litSignals()) != 0 || len(h.rec.states) != 0 {
		t.Error("stale timer fired after reset")
	}
}

func TestDifficulty_LockedDuringRun(t *testing.T) {
	h := newHarness(t)

	if h.e.ChangeDifficulty(core.DifficultyNormal) {
		t.Error("changing to the current difficulty should be a no-op")
	}

	h.e.Start()
	if h.e.ChangeDifficulty(core.DifficultyHard) {
		t.Error("difficulty changed mid-run")
	}
	h.e.Pause()
	if h.e.ChangeDifficulty(core.DifficultyHard) {
		t.Error("difficulty changed while paused")
	}
	if d := h.e.Snapshot().Difficulty; d != core.DifficultyNormal {
		t.Fatalf("difficulty drifted to %s", d)
	}

	h.e.Reset()
	if !h.e.ChangeDifficulty(core.DifficultyHard) {
		t.Error("difficulty change rejected while idle")
	}
	if d := h.e.Snapshot().Difficulty; d != core.DifficultyHard {
		t.Errorf("difficulty: got %s", d)
	}
}

func TestBestScore_PerDifficulty(t *testing.T) {
	store := score.NewMemoryStore()
	h := newHarness(t, func(c *Config) { c.Scores = store })
	ctx := context.Background()

	h.e.Start()
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.waitForInput(t)
	h.e.HandleInput(wrongFor(h.sequence()[0]))
	h.clock.Advance(constant.WrongAnswerWindow)

	snap := h.e.Snapshot()
	if snap.Phase != PhaseGameOver || !snap.NewBest {
		t.Fatalf("expected new best on game over: %+v", snap)
	}
	if best, _ := h.e.Best(ctx); best != 22 {
		t.Errorf("normal best: got %d, want 22", best)
	}

	h.e.ChangeDifficulty(core.DifficultyEasy)
	h.e.Start()
	if h.e.Snapshot().NewBest {
		t.Error("NewBest should clear on start")
	}
	h.waitForInput(t)
	h.e.HandleInput(wrongFor(h.sequence()[0]))
	h.clock.Advance(constant.WrongAnswerWindow)

	if h.e.Snapshot().NewBest {
		t.Error("zero score should not be a new best")
	}
	if best, _ := h.e.BestFor(ctx, core.DifficultyEasy); best != 0 {
		t.Errorf("easy best: got %d, want 0", best)
	}
	if best, _ := h.e.BestFor(ctx, core.DifficultyNormal); best != 22 {
		t.Errorf("normal best overwritten: got %d", best)
	}
}

func TestBestScore_StoreFailureDropped(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Scores = failingStore{} })

	h.e.Start()
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.waitForInput(t)
	h.e.HandleInput(wrongFor(h.sequence()[0]))
	h.clock.Advance(constant.WrongAnswerWindow)

	snap := h.e.Snapshot()
	if snap.Phase != PhaseGameOver || snap.NewBest {
		t.Errorf("store failure should only drop the update: %+v", snap)
	}
	if _, err := h.e.Best(context.Background()); err == nil {
		t.Error("expected Best to surface the store error")
	}
}

func TestAudio_Degraded(t *testing.T) {
	tests := []struct {
		name  string
		sound *fakeSound
	}{
		{"error", &fakeSound{err: errors.New("no device")}},
		{"panic", &fakeSound{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *Config) { c.Sound = tt.sound })
			h.e.Start()
			h.playRound(t)

			snap := h.e.Snapshot()
			if !snap.AudioDegraded {
				t.Error("expected audio degraded flag")
			}
			if snap.Score != 22 {
				t.Errorf("game should continue silently, score %d", snap.Score)
			}
		})
	}
}

func TestSound_DisabledSkipsPlayer(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SoundEnabled = false })
	h.e.Start()
	h.playRound(t)

	h.sound.mu.Lock()
	defer h.sound.mu.Unlock()
	if len(h.sound.played) != 0 {
		t.Errorf("player called while muted: %v", h.sound.played)
	}
}

func TestSound_ToggleAndVolume(t *testing.T) {
	h := newHarness(t)

	if h.sound.volume != constant.DefaultVolume {
		t.Errorf("initial volume not forwarded, got %v", h.sound.volume)
	}
	if h.e.ToggleSound() {
		t.Error("ToggleSound should report disabled")
	}
	if !h.e.ToggleSound() {
		t.Error("ToggleSound should report enabled")
	}
	if h.e.SetSoundEnabled(true) {
		t.Error("SetSoundEnabled to current value should be a no-op")
	}

	if !h.e.SetVolume(1.7) || h.e.Snapshot().Volume != 1 {
		t.Errorf("volume should clamp to 1, got %v", h.e.Snapshot().Volume)
	}
	if h.sound.volume != 1 {
		t.Errorf("volume not forwarded, got %v", h.sound.volume)
	}
	if h.e.SetVolume(1) {
		t.Error("unchanged volume reported as applied")
	}
}

func TestElapsed_ExcludesPause(t *testing.T) {
	h := newHarness(t)
	if h.e.Snapshot().Elapsed != 0 {
		t.Error("idle engine should report zero elapsed")
	}

	h.e.Start()
	h.clock.Advance(time.Second)
	h.e.Pause()
	h.clock.Advance(5 * time.Second)
	h.e.Resume()
	h.clock.Advance(time.Second)

	if got := h.e.Snapshot().Elapsed; got != 2*time.Second {
		t.Errorf("elapsed: got %v, want 2s", got)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	count := 0
	unsubscribe := h.e.Subscribe(ListenerFuncs{
		SignalStart: func(core.Signal) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})

	h.e.Start()
	h.clock.Advance(constant.PlaybackLeadIn)
	unsubscribe()
	h.waitForInput(t)
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.waitForInput(t)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected 1 event before unsubscribe, got %d", count)
	}
}

func TestStateChange_Published(t *testing.T) {
	h := newHarness(t)
	h.e.Start()

	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	if len(h.rec.states) == 0 {
		t.Fatal("no state change published for Start")
	}
	last := h.rec.states[len(h.rec.states)-1]
	if last.Phase != PhasePlaying || last.Level != 1 {
		t.Errorf("published snapshot: %+v", last)
	}
}

func (r *recorder) counts() (lit, ends, states int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lit), r.ends, len(r.states)
}

func TestGameOver_ScoreStoreOutsideLock(t *testing.T) {
	store := newGatedStore()
	h := newHarness(t, func(c *Config) { c.Scores = store })
	var once sync.Once
	release := func() { once.Do(func() { close(store.release) }) }
	defer release()

	h.e.Start()
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.waitForInput(t)
	h.e.HandleInput(wrongFor(h.sequence()[0]))

	advanced := make(chan struct{})
	go func() {
		h.clock.Advance(constant.WrongAnswerWindow)
		close(advanced)
	}()

	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("best score never read after game over")
	}

	snaps := make(chan Snapshot, 1)
	go func() { snaps <- h.e.Snapshot() }()
	select {
	case snap := <-snaps:
		if snap.Phase != PhaseGameOver || snap.NewBest {
			t.Errorf("while the store is busy: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind the score store")
	}

	release()
	<-advanced
	if !h.e.Snapshot().NewBest {
		t.Error("expected new best once the store answered")
	}
	if best, _ := store.MemoryStore.GetBest(context.Background(), core.DifficultyNormal); best != 22 {
		t.Errorf("stored best: got %d, want 22", best)
	}
}

func TestGameOver_NewBestDroppedAfterRestart(t *testing.T) {
	store := newGatedStore()
	h := newHarness(t, func(c *Config) { c.Scores = store })
	var once sync.Once
	release := func() { once.Do(func() { close(store.release) }) }
	defer release()

	h.e.Start()
	h.playRound(t)
	h.clock.Advance(constant.InterRoundDelay)
	h.waitForInput(t)
	h.e.HandleInput(wrongFor(h.sequence()[0]))

	advanced := make(chan struct{})
	go func() {
		h.clock.Advance(constant.WrongAnswerWindow)
		close(advanced)
	}()
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("best score never read after game over")
	}

	if !h.e.Reset() {
		t.Fatal("Reset rejected while the store is busy")
	}
	release()
	<-advanced

	if h.e.Snapshot().NewBest {
		t.Error("late store answer marked a reset engine as new best")
	}
}

func TestTogglePause_SingleTransition(t *testing.T) {
	h := newHarness(t)
	if h.e.TogglePause() {
		t.Error("TogglePause accepted while idle")
	}

	h.e.Start()
	h.waitForInput(t)

	_, _, before := h.rec.counts()
	if !h.e.TogglePause() {
		t.Fatal("TogglePause did not pause")
	}
	if _, _, after := h.rec.counts(); after != before+1 {
		t.Errorf("pause published %d state changes, want 1", after-before)
	}
	if h.e.Snapshot().Phase != PhasePaused {
		t.Fatal("expected paused")
	}

	if !h.e.TogglePause() || h.e.Snapshot().Stage != StageAwaitingInput {
		t.Fatalf("TogglePause did not resume: %+v", h.e.Snapshot())
	}

	h.e.HandleInput(wrongFor(h.sequence()[0]))
	if h.e.TogglePause() {
		t.Error("TogglePause accepted during the wrong-answer window")
	}
	if snap := h.e.Snapshot(); snap.Phase != PhasePlaying || snap.Stage != StageWrongAnswer {
		t.Errorf("wrong-answer window disturbed: %+v", snap)
	}
}

func TestHighlight_BalancedAcrossReset(t *testing.T) {
	h := newHarness(t)
	h.e.Start()
	h.clock.Advance(constant.PlaybackLeadIn + 10*time.Millisecond)

	if lit, ends, _ := h.rec.counts(); lit != 1 || ends != 0 {
		t.Fatalf("expected one open highlight, lit %d ends %d", lit, ends)
	}

	h.e.Reset()
	if lit, ends, _ := h.rec.counts(); lit != ends {
		t.Errorf("reset left highlight open: lit %d ends %d", lit, ends)
	}

	h.e.Start()
	h.waitForInput(t)
	h.e.HandleInput(h.sequence()[0])
	h.e.Reset()
	h.e.Start()
	if lit, ends, _ := h.rec.counts(); lit != ends {
		t.Errorf("press echo left open: lit %d ends %d", lit, ends)
	}
}

func TestAudio_DegradedAtStart(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.AudioDegraded = true })
	if !h.e.Snapshot().AudioDegraded {
		t.Error("engine should start flagged when the backend is unavailable")
	}
	h.e.Start()
	h.playRound(t)
	if !h.e.Snapshot().AudioDegraded {
		t.Error("flag should persist through a run")
	}
}
