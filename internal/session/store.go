package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status of one translation attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Key identifies one translation attempt: the same source content,
// language pair and provider/model resolve to the same attempt.
type Key struct {
	ContentHash string
	SourceLang  string
	TargetLang  string
	Provider    string
	Model       string
}

func (k Key) validate() error {
	if k.ContentHash == "" {
		return fmt.Errorf("content hash is required")
	}
	if k.TargetLang == "" {
		return fmt.Errorf("target language is required")
	}
	return nil
}

// Attempt is one persisted translation attempt.
type Attempt struct {
	ID          string
	Key         Key
	Status      Status
	Translated  int
	Total       int
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Store persists translation attempts in SQLite. The pipeline functions
// without it; the orchestrator's progress callback alone can drive
// external checkpointing.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	source_lang TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	status TEXT NOT NULL,
	translated INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	completed_at DATETIME,
	UNIQUE (content_hash, source_lang, target_lang, provider, model)
);
`

// NewStore opens (and initializes) the attempt database.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create records a new pending attempt for the key.
func (s *Store) Create(ctx context.Context, key Key, total int) (*Attempt, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	attempt := &Attempt{
		ID:        uuid.NewString(),
		Key:       key,
		Status:    StatusPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, content_hash, source_lang, target_lang, provider, model, status, translated, total, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		attempt.ID, key.ContentHash, key.SourceLang, key.TargetLang, key.Provider, key.Model,
		attempt.Status, total, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt, nil
}

// Resume returns the existing attempt for the key, if any.
func (s *Store) Resume(ctx context.Context, key Key) (*Attempt, bool, error) {
	if err := key.validate(); err != nil {
		return nil, false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, content_hash, source_lang, target_lang, provider, model, status, translated, total, error, created_at, updated_at, completed_at
		 FROM attempts
		 WHERE content_hash = ? AND source_lang = ? AND target_lang = ? AND provider = ? AND model = ?`,
		key.ContentHash, key.SourceLang, key.TargetLang, key.Provider, key.Model,
	)

	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return attempt, true, nil
}

// UpdateProgress records how many entries have been translated so far.
func (s *Store) UpdateProgress(ctx context.Context, id string, translated int) error {
	return s.update(ctx,
		`UPDATE attempts SET status = ?, translated = ?, updated_at = ? WHERE id = ?`,
		StatusRunning, translated, time.Now().UTC(), id)
}

// MarkComplete finalizes a successful attempt.
func (s *Store) MarkComplete(ctx context.Context, id string, translated int) error {
	now := time.Now().UTC()
	return s.update(ctx,
		`UPDATE attempts SET status = ?, translated = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		StatusCompleted, translated, now, now, id)
}

// MarkFailed records a terminal failure.
func (s *Store) MarkFailed(ctx context.Context, id string, cause string) error {
	return s.update(ctx,
		`UPDATE attempts SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, cause, time.Now().UTC(), id)
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("attempt not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var a Attempt
	var completedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.Key.ContentHash, &a.Key.SourceLang, &a.Key.TargetLang,
		&a.Key.Provider, &a.Key.Model, &a.Status, &a.Translated, &a.Total,
		&a.Error, &a.CreatedAt, &a.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}
