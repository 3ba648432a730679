// Package jsonl persists audit records as an append-only, line-delimited
// JSON log: one record per line, written with O_APPEND and never edited
// in place. Consumers must treat every line as write-once.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/keelhq/warden/pkg/trace"
)

// Store implements trace.Store on a JSONL file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store for the log at path, creating the parent
// directory if needed. The file itself is created lazily on first
// append.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Append writes one record as a single JSON line. The file is opened
// with O_APPEND so concurrent processes interleave whole lines rather
// than corrupting each other.
func (s *Store) Append(ctx context.Context, rec *trace.Record) error {
	if rec == nil {
		return errors.New("cannot append nil record")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	return nil
}

// Query scans the log and returns matching records, newest first.
// Unparseable lines are skipped: a malformed record is a data error, not
// a reason to fail every audit query after it.
func (s *Store) Query(ctx context.Context, q trace.Query) ([]*trace.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*trace.Record{}, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var matched []*trace.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec trace.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if q.Matches(&rec) {
			matched = append(matched, &rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning audit log: %w", err)
	}

	// Newest first: lines are appended in time order.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	return q.Page(matched), nil
}

// Close is a no-op; the file is opened per operation.
func (s *Store) Close() error {
	return nil
}
