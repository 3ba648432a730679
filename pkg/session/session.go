// Package session holds the ephemeral per-conversation state the gate
// reads on every call: the currently declared intent and the abort
// signal. State lives only in memory and is owned by whoever drives the
// gatekeeper; it is never persisted.
package session

import "sync"

// state is the per-session record.
type state struct {
	activeIntentID string
	aborted        bool
}

// Store maps session ids to their state. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// ActiveIntent returns the session's declared intent id, if any.
func (s *Store) ActiveIntent(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.activeIntentID == "" {
		return "", false
	}
	return st.activeIntentID, true
}

// SetActiveIntent declares the session's intent. A session holds exactly
// one active intent at a time; setting replaces any previous one.
func (s *Store) SetActiveIntent(sessionID, intentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(sessionID).activeIntentID = intentID
}

// ClearActiveIntent removes the session's declared intent.
func (s *Store) ClearActiveIntent(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionID]; ok {
		st.activeIntentID = ""
	}
}

// Abort sets the session's abort signal. Pre hooks fail closed and post
// hooks no-op once it is set.
func (s *Store) Abort(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(sessionID).aborted = true
}

// Aborted reports whether the session's abort signal is set.
func (s *Store) Aborted(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	return ok && st.aborted
}

// End discards all state for the session.
func (s *Store) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Store) ensure(sessionID string) *state {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &state{}
		s.sessions[sessionID] = st
	}
	return st
}
