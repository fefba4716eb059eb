package engine

import "github.com/lixenwraith/simon/constant"

// playback is the single in-flight replay of the current sequence
// Steps run as chained timers: lead-in, then highlight/gap per signal, then settle
type playback struct {
	pacing Pacing
	index  int // Next signal to light
}

// beginPlayback enters ShowingSequence and arms the first step
// Single-flight: a playback already active for this session is left alone
func (e *Engine) beginPlayback() bool {
	if e.playback != nil || e.session.level() == 0 {
		return false
	}

	e.stage = StageShowingSequence
	e.playback = &playback{pacing: PacingFor(e.difficulty, e.session.level())}
	e.dirty = true

	e.log.Debug().
		Int("level", e.session.level()).
		Dur("highlight", e.playback.pacing.Highlight).
		Dur("gap", e.playback.pacing.Gap).
		Dur("duration", e.playback.pacing.PlaybackDuration(e.session.level())).
		Msg("Playback started")

	e.timers.schedule(constant.PlaybackLeadIn, e.playbackStep)
	return true
}

// playbackActive guards every step against pause, reset and stage drift
func (e *Engine) playbackActive() bool {
	return e.playback != nil && e.phase == PhasePlaying && e.stage == StageShowingSequence
}

// playbackStep lights the signal at the playback index
func (e *Engine) playbackStep() {
	if !e.playbackActive() {
		return
	}
	pb := e.playback
	if pb.index >= len(e.session.sequence) {
		return
	}

	sig := e.session.sequence[pb.index]
	e.light(sig)
	e.playSound(sig)
	e.timers.schedule(pb.pacing.Highlight, e.playbackStepEnd)
}

// playbackStepEnd darkens the current signal and arms the gap or the settle delay
func (e *Engine) playbackStepEnd() {
	if !e.playbackActive() {
		return
	}
	pb := e.playback

	e.unlight()
	pb.index++

	if pb.index < len(e.session.sequence) {
		e.timers.schedule(pb.pacing.Gap, e.playbackStep)
		return
	}
	e.timers.schedule(constant.PlaybackSettle, e.finishPlayback)
}

// finishPlayback hands the turn to the player
func (e *Engine) finishPlayback() {
	if !e.playbackActive() {
		return
	}
	e.playback = nil
	e.advanceStage(StageAwaitingInput)
	e.log.Debug().Msg("Awaiting input")
}
