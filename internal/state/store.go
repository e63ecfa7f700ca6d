package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord is one persisted build outcome.
type BuildRecord struct {
	ID        string // uuid assigned by the pipeline
	Signature string
	Outcome   string // success|failed|skipped
	Documents int
	CreatedAt time.Time
}

// Store persists build records in SQLite.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) the build-state database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a build record.
func (s *Store) Record(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, signature, outcome, documents, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Signature, rec.Outcome, rec.Documents, created.Unix())
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	return nil
}

// LastSuccessfulSignature returns the signature of the most recent build
// whose output was fully emitted ("success"), or "" when none exists.
func (s *Store) LastSuccessfulSignature(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sig string
	err := s.db.QueryRowContext(ctx,
		`SELECT signature FROM builds WHERE outcome = 'success' ORDER BY created_at DESC, rowid DESC LIMIT 1`).
		Scan(&sig)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last signature: %w", err)
	}
	return sig, nil
}

// History returns the most recent build records, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, signature, outcome, documents, created_at FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var unix int64
		if err := rows.Scan(&rec.ID, &rec.Signature, &rec.Outcome, &rec.Documents, &unix); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(unix, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
