package engine

import (
	"math"
	"time"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
)

// ComputeScore is the non-cumulative score formula evaluated at every round completion
// floor((level*10 + streak*5) * multiplier)
func ComputeScore(level, streak int, d core.Difficulty) int {
	base := level*constant.PointsPerLevel + streak*constant.PointsPerStreak
	return int(math.Floor(float64(base) * d.Config().ScoreMultiplier))
}

// Pacing holds the per-level playback timings
type Pacing struct {
	Delay     time.Duration // Step delay after decay and floor
	Highlight time.Duration // How long each signal stays lit
	Gap       time.Duration // Dark time between consecutive signals
}

// PacingFor derives playback timing from difficulty and level
// delay = max(base * decay^floor(level/5), 200ms)
func PacingFor(d core.Difficulty, level int) Pacing {
	cfg := d.Config()
	if level < 0 {
		level = 0
	}

	steps := level / constant.SpeedUpEvery
	delayMs := msOf(cfg.BaseDelay) * math.Pow(cfg.SpeedDecay, float64(steps))
	delayMs = math.Max(delayMs, msOf(constant.MinStepDelay))

	return Pacing{
		Delay:     fromMs(delayMs),
		Highlight: fromMs(math.Max(msOf(constant.MinHighlight), constant.HighlightRatio*delayMs)),
		Gap:       fromMs(math.Max(msOf(constant.MinGap), constant.GapRatio*delayMs)),
	}
}

// PlaybackDuration is the time from playback start until input is accepted
func (p Pacing) PlaybackDuration(length int) time.Duration {
	if length <= 0 {
		return 0
	}
	return constant.PlaybackLeadIn +
		time.Duration(length)*p.Highlight +
		time.Duration(length-1)*p.Gap +
		constant.PlaybackSettle
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMs(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
