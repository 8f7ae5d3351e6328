// Package history keeps a bounded log of generated commits in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status is the outcome of a commit attempt
type Status string

const (
	StatusCommitted Status = "committed"
	StatusSimulated Status = "simulated"
	StatusFailed    Status = "failed"
)

// Entry is one recorded commit attempt
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Scope   string    `json:"scope,omitempty"`
	Message string    `json:"message"`
	Files   []string  `json:"files"`
	Source  string    `json:"source"`
	Status  Status    `json:"status"`
	Hash    string    `json:"hash,omitempty"`
	Error   string    `json:"error,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	type       TEXT NOT NULL,
	scope      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	files      TEXT NOT NULL DEFAULT '[]',
	source     TEXT NOT NULL,
	status     TEXT NOT NULL,
	hash       TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS commits_created_at ON commits (created_at);
`

// Store is a SQLite backed history capped at maxEntries rows
type Store struct {
	db         *sql.DB
	maxEntries int
	now        func() time.Time
}

// Open opens (and migrates) the history database
func Open(ctx context.Context, driver, dsn string, maxEntries int) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite allows one writer; this also keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	if maxEntries < 1 {
		maxEntries = 100
	}
	return &Store{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e, filling in ID and Time when empty, and drops the oldest
// entries beyond the cap.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	e.Time = e.Time.UTC()
	if e.Files == nil {
		e.Files = []string{}
	}

	files, err := json.Marshal(e.Files)
	if err != nil {
		return Entry{}, fmt.Errorf("encode files: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO commits (id, created_at, type, scope, message, files, source, status, hash, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixNano(), e.Type, e.Scope, e.Message, string(files), e.Source, string(e.Status), e.Hash, e.Error)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM commits WHERE seq NOT IN (
			SELECT seq FROM commits ORDER BY created_at DESC, seq DESC LIMIT ?)`,
		s.maxEntries)
	if err != nil {
		return Entry{}, fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first, skipping offset
func (s *Store) Recent(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxEntries
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, type, scope, message, files, source, status, hash, error
		 FROM commits ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e      Entry
			nanos  int64
			files  string
			status string
		)
		if err := rows.Scan(&e.ID, &nanos, &e.Type, &e.Scope, &e.Message, &files, &e.Source, &status, &e.Hash, &e.Error); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Time = time.Unix(0, nanos).UTC()
		e.Status = Status(status)
		if err := json.Unmarshal([]byte(files), &e.Files); err != nil {
			return nil, fmt.Errorf("decode files of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
