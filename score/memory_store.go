package score

import (
	"context"
	"sync"

	"github.com/lixenwraith/simon/core"
)

// MemoryStore keeps best scores in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	best map[core.Difficulty]int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		best: make(map[core.Difficulty]int),
	}
}

// GetBest returns the best score for d, 0 when none is recorded
func (s *MemoryStore) GetBest(ctx context.Context, d core.Difficulty) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best[d], nil
}

// SetBest records score for d
func (s *MemoryStore) SetBest(ctx context.Context, d core.Difficulty, score int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.Valid() {
		return ErrUnknownDifficulty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.best[d] = score
	return nil
}

// ListBest returns the best score of every difficulty
func (s *MemoryStore) ListBest(ctx context.Context) (map[core.Difficulty]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[core.Difficulty]int, len(core.Difficulties()))
	for _, d := range core.Difficulties() {
		out[d] = s.best[d]
	}
	return out, nil
}
