package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
)

// sawOscillator generates a fixed-length raw saw wave
type sawOscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	rate     beep.SampleRate
}

// NewSawOscillator creates a saw wave of the given length, it drains after duration
func NewSawOscillator(freq float64, duration time.Duration, rate beep.SampleRate) beep.Streamer {
	return &sawOscillator{
		freq:     freq,
		duration: rate.N(duration),
		rate:     rate,
	}
}

func (o *sawOscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		val := 2.0 * (o.phase - 0.5)
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase) // Keep in [0, 1)
		o.position++
	}
	return len(samples), true
}

func (o *sawOscillator) Err() error { return nil }

// envelope applies linear attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	sustainSamples int
	totalSamples   int
}

// NewEnvelope wraps s with an attack/release envelope spanning duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	sus := total - att - rel
	if sus < 0 {
		sus = 0
	}

	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		sustainSamples: sus,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		releaseStart := e.attackSamples + e.sustainSamples
		if e.position >= releaseStart && e.releaseSamples > 0 {
			vol = float64(e.totalSamples-e.position) / float64(e.releaseSamples)
			if vol < 0 {
				vol = 0
			}
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume wraps s with a linear gain
// math.Log2(0) is -Inf, zero gain is expressed as Silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// ToneFrequency returns the pad pitch of sig in Hz, 0 for SignalNone
func ToneFrequency(sig core.Signal) float64 {
	switch sig {
	case core.SignalRed:
		return constant.ToneRedHz
	case core.SignalBlue:
		return constant.ToneBlueHz
	case core.SignalGreen:
		return constant.ToneGreenHz
	case core.SignalYellow:
		return constant.ToneYellowHz
	default:
		return 0
	}
}

// NewSignalTone builds the enveloped sine tone for sig at gain vol
func NewSignalTone(sig core.Signal, rate beep.SampleRate, vol float64) (beep.Streamer, error) {
	freq := ToneFrequency(sig)
	if freq == 0 {
		return nil, fmt.Errorf("no tone for signal %s", sig)
	}

	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("tone %s: %w", sig, err)
	}

	tone := beep.Take(rate.N(constant.ToneDuration), sine)
	shaped := NewEnvelope(tone, constant.ToneDuration, constant.ToneAttack, constant.ToneRelease, rate)
	return newVolume(shaped, vol), nil
}

// NewWrongBuzz builds the low saw buzz played on a wrong answer
// The buzz sits slightly above master volume, capped at unity gain
func NewWrongBuzz(rate beep.SampleRate, vol float64) beep.Streamer {
	osc := NewSawOscillator(constant.WrongBuzzHz, constant.WrongBuzzDuration, rate)
	shaped := NewEnvelope(osc, constant.WrongBuzzDuration, constant.WrongBuzzAttack, constant.WrongBuzzRelease, rate)
	return newVolume(shaped, WrongBuzzGain(vol))
}

// WrongBuzzGain returns the buzz gain for master volume vol
func WrongBuzzGain(vol float64) float64 {
	return math.Min(vol*constant.WrongBuzzGain, 1.0)
}
