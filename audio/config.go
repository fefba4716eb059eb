package audio

import "github.com/lixenwraith/simon/constant"

// Config holds audio device and gain settings
type Config struct {
	SampleRate int
	Volume     float64 // Master gain 0.0-1.0
}

// DefaultConfig returns the default audio configuration
func DefaultConfig() Config {
	return Config{
		SampleRate: constant.AudioSampleRate,
		Volume:     constant.DefaultVolume,
	}
}
