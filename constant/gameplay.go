package constant

import "time"

// Round Timing
const (
	// InterRoundDelay between round completion and the next sequence extension
	InterRoundDelay = 1000 * time.Millisecond

	// WrongAnswerWindow is how long the wrong-answer marker is shown before game over
	WrongAnswerWindow = 500 * time.Millisecond

	// PlaybackLeadIn precedes the first highlight of every playback
	PlaybackLeadIn = 500 * time.Millisecond

	// PlaybackSettle follows the last highlight before input is accepted
	PlaybackSettle = 300 * time.Millisecond

	// PressFlash is the highlight echoed for a player press
	PressFlash = 150 * time.Millisecond
)

// Pacing Floors
const (
	MinStepDelay = 200 * time.Millisecond
	MinHighlight = 400 * time.Millisecond
	MinGap       = 200 * time.Millisecond

	// HighlightRatio and GapRatio scale the step delay into highlight and gap
	HighlightRatio = 0.6
	GapRatio       = 0.3

	// SpeedUpEvery levels, pacing decays by the difficulty factor once
	SpeedUpEvery = 5
)

// Session Defaults
const (
	DefaultVolume = 0.7
	VolumeStep    = 0.1
)

// ScoreStoreTimeout bounds a single best-score read or write
const ScoreStoreTimeout = 2 * time.Second

// Scoring
const (
	PointsPerLevel  = 10
	PointsPerStreak = 5
)
