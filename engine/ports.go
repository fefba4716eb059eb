package engine

import (
	"context"

	"github.com/lixenwraith/simon/core"
)

// SoundPlayer fires signal sounds, failures only degrade audio
type SoundPlayer interface {
	Play(core.Signal) error
	PlayWrong() error
}

// VolumeSetter is implemented by sound players that honour the session volume
type VolumeSetter interface {
	SetVolume(float64)
}

// ScoreStore keeps one best score per difficulty
type ScoreStore interface {
	GetBest(ctx context.Context, d core.Difficulty) (int, error)
	SetBest(ctx context.Context, d core.Difficulty, score int) error
}

// silentPlayer is the default when no sound player is injected
type silentPlayer struct{}

func (silentPlayer) Play(core.Signal) error { return nil }
func (silentPlayer) PlayWrong() error       { return nil }
