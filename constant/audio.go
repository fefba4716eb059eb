package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 48000

	// AudioBufferDuration is the speaker buffer, trades latency for underrun safety
	AudioBufferDuration = 100 * time.Millisecond
)

// Signal Tone
// Duration is kept at the highlight floor so the tone never outlives the pad
const (
	ToneDuration = 400 * time.Millisecond
	ToneAttack   = 10 * time.Millisecond
	ToneRelease  = 80 * time.Millisecond
)

// Tone frequencies per signal (Hz), the classic four-pad pitches
const (
	ToneRedHz    = 310.0
	ToneBlueHz   = 209.0
	ToneGreenHz  = 415.0
	ToneYellowHz = 252.0
)

// Wrong Answer Buzz
const (
	WrongBuzzDuration = 500 * time.Millisecond
	WrongBuzzAttack   = 5 * time.Millisecond
	WrongBuzzRelease  = 120 * time.Millisecond
	WrongBuzzHz       = 42.0

	// WrongBuzzGain is applied on top of master volume, result is capped at 1
	WrongBuzzGain = 1.1
)
