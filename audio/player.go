package audio

import (
	"errors"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
)

// ErrNotInitialized is returned by Play calls before the speaker is up
var ErrNotInitialized = errors.New("audio not initialized")

// Player synthesises signal tones into a shared mixer on the system speaker
// Play calls never block on the device, streamers are queued and the speaker drains them
type Player struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

// NewPlayer creates a player, call Initialize before playing
func NewPlayer(cfg Config) *Player {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = constant.AudioSampleRate
	}
	return &Player{
		rate:   beep.SampleRate(rate),
		mixer:  &beep.Mixer{},
		volume: clamp01(cfg.Volume),
	}
}

// Initialize opens the speaker and starts the mixer, a second call is a no-op
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := speaker.Init(p.rate, p.rate.N(constant.AudioBufferDuration)); err != nil {
		return err
	}

	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close drops queued sounds and releases the speaker
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}

	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()

	p.initialized = false
}

// Play queues the tone of sig
func (p *Player) Play(sig core.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}

	tone, err := NewSignalTone(sig, p.rate, p.volume)
	if err != nil {
		return err
	}
	p.add(tone)
	return nil
}

// PlayWrong queues the wrong answer buzz
func (p *Player) PlayWrong() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}

	p.add(NewWrongBuzz(p.rate, p.volume))
	return nil
}

// SetVolume sets master gain for sounds queued from now on
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = clamp01(v)
	p.mu.Unlock()
}

// Volume returns the master gain
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// IsInitialized reports whether the speaker is open
func (p *Player) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// add must hold p.mu; the mixer is read by the speaker goroutine under speaker.Lock
func (p *Player) add(s beep.Streamer) {
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
