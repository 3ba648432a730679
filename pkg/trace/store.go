package trace

import "context"

// Store persists audit records. The log is append-only: implementations
// must never rewrite or delete records, and replaying the same mutation
// appends a new, distinct record.
type Store interface {
	// Append writes one record to the log.
	Append(ctx context.Context, rec *Record) error

	// Query returns records matching the query, newest first.
	Query(ctx context.Context, q Query) ([]*Record, error)

	// Close releases the store's resources.
	Close() error
}

// Query filters the audit log.
type Query struct {
	FilePath   string
	IntentID   string
	SessionURL string
	Limit      int
	Offset     int
}

// Matches reports whether rec satisfies the query filters (paging
// excluded). Shared by the scanning backends.
func (q Query) Matches(rec *Record) bool {
	if q.FilePath != "" && !rec.TouchesFile(q.FilePath) {
		return false
	}

	if q.IntentID != "" {
		found := false
		for _, id := range rec.IntentIDs() {
			if id == q.IntentID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.SessionURL != "" {
		found := false
		for _, conv := range rec.conversations() {
			if conv.URL == q.SessionURL {
				found = true
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Page applies offset/limit to an already-filtered result set.
func (q Query) Page(recs []*Record) []*Record {
	if q.Offset > 0 {
		if q.Offset >= len(recs) {
			return []*Record{}
		}
		recs = recs[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(recs) {
		recs = recs[:q.Limit]
	}
	return recs
}
