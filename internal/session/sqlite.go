package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists sessions in a local SQLite database so they survive
// process restarts.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			last_result TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize session schema: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, input string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cutoff := now.Add(-s.ttl)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("sweep expired sessions: %w", err)
	}

	sess := &Session{
		ID:        NewID(),
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, input, last_result, created_at, updated_at)
		VALUES (?, ?, '', ?, ?)
	`, sess.ID, sess.Input, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutoff := s.now().UTC().Add(-s.ttl)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, last_result, created_at, updated_at
		FROM sessions
		WHERE id = ? AND created_at >= ?
	`, id, cutoff)

	var sess Session
	err := row.Scan(&sess.ID, &sess.Input, &sess.LastResult, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id, lastResult string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cutoff := s.now().UTC().Add(-s.ttl)
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_result = ?, updated_at = ?
		WHERE id = ? AND created_at >= ?
	`, lastResult, s.now().UTC(), id, cutoff)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
