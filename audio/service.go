package audio

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// AudioService wraps Player as a Service
// Handles graceful degradation when no audio backend is available
type AudioService struct {
	cfg      Config
	log      zerolog.Logger
	player   *Player
	disabled atomic.Bool
}

// NewService creates a new audio service
func NewService(cfg Config, log zerolog.Logger) *AudioService {
	return &AudioService{
		cfg:    cfg,
		log:    log.With().Str("component", "audio").Logger(),
		player: NewPlayer(cfg),
	}
}

// Name implements Service
func (s *AudioService) Name() string {
	return "audio"
}

// Dependencies implements Service
func (s *AudioService) Dependencies() []string {
	return nil
}

// Init opens the speaker; sets disabled flag on failure (no error returned)
func (s *AudioService) Init() error {
	if err := s.player.Initialize(); err != nil {
		s.log.Warn().Err(err).Msg("audio backend unavailable, playing silently")
		s.disabled.Store(true)
		return nil
	}
	s.log.Debug().Int("sample_rate", int(s.player.rate)).Msg("audio initialized")
	return nil
}

// Start implements Service
func (s *AudioService) Start(_ context.Context) error {
	return nil
}

// Stop implements Service
func (s *AudioService) Stop() error {
	s.player.Close()
	return nil
}

// IsDisabled returns true if audio is unavailable
func (s *AudioService) IsDisabled() bool {
	return s.disabled.Load()
}

// Player returns the sound player
// A disabled player is still returned; its Play calls report ErrNotInitialized so the engine flags degraded audio
func (s *AudioService) Player() *Player {
	return s.player
}
