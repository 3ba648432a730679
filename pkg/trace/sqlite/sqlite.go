// Package sqlite provides a SQLite-backed audit store. Records are kept
// as their canonical JSON with the queryable fields extracted into
// indexed columns; rows are insert-only.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/keelhq/warden/pkg/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS trace_records (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	payload    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trace_files (
	record_id   TEXT NOT NULL REFERENCES trace_records(id),
	path        TEXT NOT NULL,
	session_url TEXT NOT NULL DEFAULT '',
	intent_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_trace_files_path ON trace_files(path);
CREATE INDEX IF NOT EXISTS idx_trace_files_intent ON trace_files(intent_id);
`

// Store implements trace.Store on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the database at dbPath. ":memory:" is
// accepted for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Append inserts the record and its file index rows in one transaction.
func (s *Store) Append(ctx context.Context, rec *trace.Record) error {
	if rec == nil {
		return errors.New("cannot append nil record")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trace_records (id, created_at, payload) VALUES (?, ?, ?)`,
		rec.ID, rec.Timestamp, string(payload),
	); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	for _, f := range rec.Files {
		for _, conv := range f.Conversations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO trace_files (record_id, path, session_url, intent_id) VALUES (?, ?, ?, ?)`,
				rec.ID, f.Path, conv.URL, conv.IntentID(),
			); err != nil {
				return fmt.Errorf("inserting file index: %w", err)
			}
		}
	}

	// File-less operations are indexed with an empty path so intent and
	// session filters still reach them.
	for _, op := range rec.Operations {
		for _, conv := range op.Conversations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO trace_files (record_id, path, session_url, intent_id) VALUES (?, ?, ?, ?)`,
				rec.ID, "", conv.URL, conv.IntentID(),
			); err != nil {
				return fmt.Errorf("inserting operation index: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Query returns matching records, newest first.
func (s *Store) Query(ctx context.Context, q trace.Query) ([]*trace.Record, error) {
	query := `
SELECT DISTINCT r.payload
FROM trace_records r
JOIN trace_files f ON f.record_id = r.id
WHERE 1=1`
	var args []any

	if q.FilePath != "" {
		query += " AND f.path = ?"
		args = append(args, q.FilePath)
	}
	if q.IntentID != "" {
		query += " AND f.intent_id = ?"
		args = append(args, q.IntentID)
	}
	if q.SessionURL != "" {
		query += " AND f.session_url = ?"
		args = append(args, q.SessionURL)
	}

	query += " ORDER BY r.created_at DESC, r.id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		if q.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*trace.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var rec trace.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
