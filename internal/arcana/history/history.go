package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists the commands dispatched during interactive sessions in a
// SQLite database so they survive the process.
type Store struct {
	db        *sql.DB
	sessionID string
}

// Entry is one recorded command and its outcome.
type Entry struct {
	ID          string
	SessionID   string
	SubmittedAt time.Time
	Command     string
	Kind        string
	Result      string
}

// DefaultPath returns the per-user location of the history database.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".arcana", "history.db"), nil
}

// Open creates or opens the database at dbPath and mints a fresh session
// identifier for subsequent Record calls.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, sessionID: uuid.NewString()}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		submitted_at TIMESTAMP NOT NULL,
		command TEXT NOT NULL,
		kind TEXT NOT NULL,
		result TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_submitted_at ON entries(submitted_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SessionID reports the identifier Record stamps on new entries.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Record stores one dispatched command and its outcome.
func (s *Store) Record(ctx context.Context, command, kind, result string) error {
	if command == "" {
		return errors.New("command required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, session_id, submitted_at, command, kind, result) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), s.sessionID, time.Now().UTC(), command, kind, result,
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, submitted_at, command, kind, result FROM entries ORDER BY submitted_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var result sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SubmittedAt, &e.Command, &e.Kind, &result); err != nil {
			return nil, err
		}
		e.Result = result.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
