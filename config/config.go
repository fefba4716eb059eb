// Package config loads the player's settings from a YAML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Environment variable names
const (
	EnvDifficulty   = "SIMON_DIFFICULTY"
	EnvSoundEnabled = "SIMON_SOUND_ENABLED"
	EnvVolume       = "SIMON_VOLUME" // 0-100
	EnvScoresPath   = "SIMON_SCORES_PATH"
	EnvSeed         = "SIMON_SEED"
)

// Config is the complete application configuration
type Config struct {
	Difficulty string        `yaml:"difficulty" validate:"required,oneof=easy normal hard"`
	Seed       int64         `yaml:"seed,omitempty"`
	Sound      SoundConfig   `yaml:"sound"`
	Scores     ScoresConfig  `yaml:"scores"`
	Log        LogConfig     `yaml:"log"`
	Metrics    MetricsConfig `yaml:"metrics"`
}

// SoundConfig controls the sound player
type SoundConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume" validate:"gte=0,lte=1"`
	SampleRate int     `yaml:"sample_rate" validate:"gte=8000,lte=192000"`
}

// ScoresConfig locates the best score database, empty keeps scores in memory
type ScoresConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls debug logging
type LogConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir" validate:"required_if=Debug true"`
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

// MetricsConfig controls the Prometheus endpoint, empty address disables it
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Difficulty: core.DifficultyNormal.Key(),
		Sound: SoundConfig{
			Enabled:    true,
			Volume:     constant.DefaultVolume,
			SampleRate: constant.AudioSampleRate,
		},
		Scores: ScoresConfig{Path: DefaultScoresPath()},
		Log:    LogConfig{Dir: "logs", Level: "debug"},
	}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "simon.yaml"
	}
	return filepath.Join(dir, "simon", "config.yaml")
}

// DefaultScoresPath returns the per-user score database location
func DefaultScoresPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "simon-scores.db"
	}
	return filepath.Join(dir, "simon", "scores.db")
}

// Load reads the YAML file at path over the defaults, then applies environment overrides
// An empty path skips the file
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional behaves like Load but treats a missing file as empty
func LoadOptional(path string) (Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

// ApplyEnv overlays environment values read through lookup
// Malformed values are ignored and leave the current setting in place
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDifficulty); ok && v != "" {
		if d, err := core.ParseDifficulty(v); err == nil {
			cfg.Difficulty = d.Key()
		}
	}

	if v, ok := lookup(EnvSoundEnabled); ok && v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Sound.Enabled = val
		}
	}

	// 0-100 converted to 0.0-1.0
	if v, ok := lookup(EnvVolume); ok && v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Sound.Volume = float64(val) / 100.0
			if cfg.Sound.Volume < 0 {
				cfg.Sound.Volume = 0
			}
			if cfg.Sound.Volume > 1 {
				cfg.Sound.Volume = 1
			}
		}
	}

	if v, ok := lookup(EnvScoresPath); ok {
		cfg.Scores.Path = v
	}

	if v, ok := lookup(EnvSeed); ok && v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = val
		}
	}
}

// normalize canonicalises case-insensitive fields
func (c *Config) normalize() {
	if d, err := core.ParseDifficulty(c.Difficulty); err == nil {
		c.Difficulty = d.Key()
	}
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// DifficultyLevel returns the configured difficulty, normal if unparseable
func (c Config) DifficultyLevel() core.Difficulty {
	d, err := core.ParseDifficulty(c.Difficulty)
	if err != nil {
		return core.DifficultyNormal
	}
	return d
}

// Marshal renders the configuration as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
