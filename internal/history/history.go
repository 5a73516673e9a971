// Package history persists a log of every message served by the dashboard,
// tagged with its origin (cache hit or a named provider).
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry represents one served message.
type Entry struct {
	Content          string
	Source           string // "cache" or "provider"
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CreatedAt        time.Time
}

// Recorder persists served-message entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// NoopRecorder discards all entries. Used when history is disabled.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Entry) error          { return nil }
func (NoopRecorder) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (NoopRecorder) Close() error                                 { return nil }

// SQLStore persists entries to SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLite opens a SQLite-backed store at dsn.
func NewSQLite(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "ai-ticker-history.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "sqlite"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres opens a Postgres-backed store at dsn.
func NewPostgres(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres history store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "postgres"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s history store: %w", s.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS message_history (
	id INTEGER PRIMARY KEY,
	content TEXT NOT NULL,
	source TEXT NOT NULL,
	provider TEXT,
	model TEXT,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

	if s.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS message_history (
	id BIGSERIAL PRIMARY KEY,
	content TEXT NOT NULL,
	source TEXT NOT NULL,
	provider TEXT,
	model TEXT,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize history schema: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (s *SQLStore) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO message_history(content, source, provider, model, prompt_tokens, completion_tokens, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?)`
	if s.dialect == "postgres" {
		query = `INSERT INTO message_history(content, source, provider, model, prompt_tokens, completion_tokens, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)`
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.Content,
		entry.Source,
		entry.Provider,
		entry.Model,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT content, source, provider, model, prompt_tokens, completion_tokens, created_at
	FROM message_history ORDER BY id DESC LIMIT ?`
	if s.dialect == "postgres" {
		query = `SELECT content, source, provider, model, prompt_tokens, completion_tokens, created_at
	FROM message_history ORDER BY id DESC LIMIT $1`
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Content, &e.Source, &e.Provider, &e.Model,
			&e.PromptTokens, &e.CompletionTokens, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
