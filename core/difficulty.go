package core

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the pacing and score multiplier of a run
type Difficulty uint8

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
	difficultyCount
)

// DifficultyConfig is the fixed configuration record for a difficulty
type DifficultyConfig struct {
	Name            string
	BaseDelay       time.Duration
	SpeedDecay      float64 // Applied once per speed-up step
	ScoreMultiplier float64
}

var difficultyTable = [difficultyCount]DifficultyConfig{
	DifficultyEasy: {
		Name:            "Easy",
		BaseDelay:       800 * time.Millisecond,
		SpeedDecay:      0.95,
		ScoreMultiplier: 1.0,
	},
	DifficultyNormal: {
		Name:            "Normal",
		BaseDelay:       600 * time.Millisecond,
		SpeedDecay:      0.93,
		ScoreMultiplier: 1.5,
	},
	DifficultyHard: {
		Name:            "Hard",
		BaseDelay:       400 * time.Millisecond,
		SpeedDecay:      0.90,
		ScoreMultiplier: 2.0,
	},
}

// Difficulties returns all difficulties from easiest to hardest
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}
}

// Valid reports whether d is a known difficulty
func (d Difficulty) Valid() bool {
	return d < difficultyCount
}

// Config returns the configuration record, unknown values fall back to normal
func (d Difficulty) Config() DifficultyConfig {
	if !d.Valid() {
		return difficultyTable[DifficultyNormal]
	}
	return difficultyTable[d]
}

// Next cycles to the following difficulty, wrapping after hard
func (d Difficulty) Next() Difficulty {
	return (d + 1) % difficultyCount
}

// Key is the lowercase identifier used in config files and storage
func (d Difficulty) Key() string {
	return strings.ToLower(d.Config().Name)
}

func (d Difficulty) String() string {
	if !d.Valid() {
		return fmt.Sprintf("difficulty(%d)", uint8(d))
	}
	return d.Key()
}

// ParseDifficulty resolves a difficulty key, case-insensitive
func ParseDifficulty(key string) (Difficulty, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, d := range Difficulties() {
		if d.Key() == key {
			return d, nil
		}
	}
	return DifficultyNormal, fmt.Errorf("unknown difficulty %q", key)
}
