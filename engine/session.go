package engine

import (
	"math/rand"

	"github.com/lixenwraith/simon/core"
)

// session is the mutable state of one run
type session struct {
	sequence []core.Signal // Append-only within a run
	cursor   int           // Inputs matched in the current round, <= len(sequence)
	score    int
	streak   int
}

func (s *session) level() int {
	return len(s.sequence)
}

// clear drops the run, sequence backing array is not reused
func (s *session) clear() {
	*s = session{}
}

// extend appends one uniformly drawn signal and rewinds the cursor
func (s *session) extend(rng *rand.Rand) core.Signal {
	sig := core.SignalAt(rng.Intn(core.SignalCount))
	s.sequence = append(s.sequence, sig)
	s.cursor = 0
	return sig
}

// expected returns the signal at the cursor, SignalNone once the round is matched
func (s *session) expected() core.Signal {
	if s.cursor >= len(s.sequence) {
		return core.SignalNone
	}
	return s.sequence[s.cursor]
}

// roundComplete reports whether every signal of the round has been matched
func (s *session) roundComplete() bool {
	return len(s.sequence) > 0 && s.cursor == len(s.sequence)
}
