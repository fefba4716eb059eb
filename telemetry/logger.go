// Package telemetry provides the debug log file and Prometheus metrics.
package telemetry

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFileName = "simon.log"
	maxLogSize  = 10 * 1024 * 1024 // 10 MiB
)

// LogConfig controls logger construction
type LogConfig struct {
	Debug bool
	Dir   string
	Level string
}

// SetupLogger builds the root logger
// Without Debug every log line is discarded: the terminal is owned by the UI and cannot take stray output
// With Debug logs go to Dir/simon.log, rotating an existing file above 10 MiB
func SetupLogger(cfg LogConfig) (zerolog.Logger, io.Closer, error) {
	if !cfg.Debug {
		log.SetOutput(io.Discard)
		return zerolog.Nop(), nopCloser{}, nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, logFileName)
	rotate(path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}

	writer := zerolog.ConsoleWriter{
		Out:        file,
		TimeFormat: "15:04:05.000",
		NoColor:    true,
	}
	logger := zerolog.New(writer).With().Timestamp().Logger().Level(parseLogLevel(cfg.Level))

	// Stray stdlib log calls from dependencies land in the same file
	log.SetFlags(0)
	log.SetOutput(logger)

	return logger, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// rotate renames an oversized log file aside with a timestamp suffix
func rotate(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return
	}
	ext := filepath.Ext(path)
	rotated := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(path, ext), time.Now().Format("20060102-150405"), ext)
	_ = os.Rename(path, rotated)
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug", "":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.DebugLevel
	}
}

// Component returns a child logger tagged with the component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
