// Package score persists the best score of each difficulty.
//
// Two stores are provided: SQLiteStore keeps records in a local database migrated
// from embedded SQL files, and MemoryStore keeps them for the lifetime of the
// process. Both satisfy the engine's score store contract: a missing record reads
// as zero and SetBest overwrites unconditionally (the caller decides whether a
// score is a new best).
package score
