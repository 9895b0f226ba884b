// Package journal persists acquisition attempts in a local SQLite
// database so past failures and their method traces survive restarts.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vidgrab/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_key TEXT NOT NULL,
	request_id TEXT NOT NULL,
	succeeded INTEGER NOT NULL,
	payload_size INTEGER NOT NULL,
	payload_type TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	final_error TEXT NOT NULL,
	methods TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_identity ON attempts(identity_key);
`

// Entry is one journaled attempt with its storage metadata.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	Attempt   media.Attempt
}

// Journal wraps the attempts database.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path, creating parent
// directories as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record appends one attempt.
func (j *Journal) Record(a media.Attempt) error {
	methods, err := json.Marshal(a.Methods)
	if err != nil {
		return fmt.Errorf("encoding method trace: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO attempts
		 (identity_key, request_id, succeeded, payload_size, payload_type, elapsed_ms, final_error, methods, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.IdentityKey, a.RequestID, boolInt(a.Succeeded), a.PayloadSize,
		a.PayloadType, a.ElapsedMS, a.FinalError, string(methods),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, identity_key, request_id, succeeded, payload_size, payload_type, elapsed_ms, final_error, methods, created_at
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForIdentity returns all attempts for one identity key, newest first.
func (j *Journal) ForIdentity(key string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, identity_key, request_id, succeeded, payload_size, payload_type, elapsed_ms, final_error, methods, created_at
		 FROM attempts WHERE identity_key = ? ORDER BY id DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Clear removes all journaled attempts.
func (j *Journal) Clear() error {
	if _, err := j.db.Exec(`DELETE FROM attempts`); err != nil {
		return fmt.Errorf("clearing journal: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			succeeded int
			methods   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Attempt.IdentityKey, &e.Attempt.RequestID,
			&succeeded, &e.Attempt.PayloadSize, &e.Attempt.PayloadType,
			&e.Attempt.ElapsedMS, &e.Attempt.FinalError, &methods, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning attempt row: %w", err)
		}
		e.Attempt.Succeeded = succeeded != 0
		if err := json.Unmarshal([]byte(methods), &e.Attempt.Methods); err != nil {
			return nil, fmt.Errorf("decoding method trace: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
