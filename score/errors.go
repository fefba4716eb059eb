package score

import "errors"

// Sentinel errors
var (
	ErrNotOpen           = errors.New("score store not open")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)
