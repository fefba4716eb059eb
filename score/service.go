package score

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/simon/constant"
	"github.com/lixenwraith/simon/core"
)

// Store is the full best-score persistence contract
type Store interface {
	GetBest(ctx context.Context, d core.Difficulty) (int, error)
	SetBest(ctx context.Context, d core.Difficulty, score int) error
	ListBest(ctx context.Context) (map[core.Difficulty]int, error)
}

// Service owns the score store lifecycle
// A database that cannot be opened or migrated degrades to memory, the game stays playable
type Service struct {
	path     string
	log      zerolog.Logger
	sqlite   *SQLiteStore
	store    Store
	degraded bool
}

// NewService creates the score service for the database at path, empty path keeps scores in memory
func NewService(path string, log zerolog.Logger) *Service {
	return &Service{
		path: path,
		log:  log.With().Str("component", "scores").Logger(),
	}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "scores"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init opens and migrates the database, falling back to memory on failure
func (s *Service) Init() error {
	if s.path == "" {
		s.store = NewMemoryStore()
		s.log.Debug().Msg("scores kept in memory")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constant.ScoreStoreTimeout)
	defer cancel()

	st, err := s.openSQLite(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("score database unavailable, scores kept in memory")
		s.store = NewMemoryStore()
		s.degraded = true
		return nil
	}

	s.sqlite = st
	s.store = st
	s.log.Debug().Str("path", st.Path()).Msg("score database ready")
	return nil
}

func (s *Service) openSQLite(ctx context.Context) (*SQLiteStore, error) {
	st, err := NewSQLiteStore(s.path)
	if err != nil {
		return nil, err
	}
	if err := st.Open(ctx); err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate %s: %w", s.path, err)
	}
	return st, nil
}

// Start implements service.Service
func (s *Service) Start(_ context.Context) error {
	return nil
}

// Stop closes the database, safe to call repeatedly
func (s *Service) Stop() error {
	if s.sqlite == nil {
		return nil
	}
	err := s.sqlite.Close()
	s.sqlite = nil
	return err
}

// Store returns the active store, nil before Init
func (s *Service) Store() Store {
	return s.store
}

// Degraded reports whether the database could not be used
func (s *Service) Degraded() bool {
	return s.degraded
}
