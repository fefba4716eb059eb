package score

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/lixenwraith/simon/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// SQLiteStore keeps best scores in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a store for the database at path, call Open before use
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: path}, nil
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Open connects to the database, creating its directory if needed
func (s *SQLiteStore) Open(ctx context.Context) error {
	dsn := s.path
	if s.path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", s.path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; an in-memory database also exists per connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Migrate applies the embedded schema migrations
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// GetBest returns the best score for d, 0 when none is recorded
func (s *SQLiteStore) GetBest(ctx context.Context, d core.Difficulty) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}

	var best int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM best_scores WHERE difficulty = ?`,
		d.Key(),
	).Scan(&best)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get best score: %w", err)
	}
	return best, nil
}

// SetBest records score for d, replacing any previous record
func (s *SQLiteStore) SetBest(ctx context.Context, d core.Difficulty, score int) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if !d.Valid() {
		return ErrUnknownDifficulty
	}

	query := `
		INSERT INTO best_scores (difficulty, score, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(difficulty) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, d.Key(), score, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set best score: %w", err)
	}
	return nil
}

// ListBest returns the best score of every difficulty, 0 when none is recorded
func (s *SQLiteStore) ListBest(ctx context.Context) (map[core.Difficulty]int, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `SELECT difficulty, score FROM best_scores`)
	if err != nil {
		return nil, fmt.Errorf("failed to list best scores: %w", err)
	}
	defer rows.Close()

	out := make(map[core.Difficulty]int, len(core.Difficulties()))
	for _, d := range core.Difficulties() {
		out[d] = 0
	}

	for rows.Next() {
		var key string
		var best int
		if err := rows.Scan(&key, &best); err != nil {
			return nil, fmt.Errorf("failed to scan best score: %w", err)
		}
		d, err := core.ParseDifficulty(key)
		if err != nil {
			continue // Row written by a newer version
		}
		out[d] = best
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate best scores: %w", err)
	}
	return out, nil
}
