// Package inmemory implements trace.Store on an in-memory slice, used
// for tests and ephemeral runs.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/keelhq/warden/pkg/trace"
)

// Store implements trace.Store in memory.
type Store struct {
	mu      sync.RWMutex
	records []*trace.Record
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Append stores the record.
func (s *Store) Append(_ context.Context, rec *trace.Record) error {
	if rec == nil {
		return errors.New("cannot append nil record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Query returns matching records, newest first.
func (s *Store) Query(_ context.Context, q trace.Query) ([]*trace.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*trace.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if q.Matches(s.records[i]) {
			matched = append(matched, s.records[i])
		}
	}
	return q.Page(matched), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
