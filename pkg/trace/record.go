// Package trace defines the canonical audit record linking every code
// change back to the intent, session, and model that produced it, and
// the content hashing that gives code blocks a location-independent
// identity.
package trace

import "time"

// SchemaVersion is the trace record schema version written to new
// records.
const SchemaVersion = "0.1.0"

// RelatedType values used in Related entries.
const (
	RelatedIntent        = "intent"
	RelatedSpecification = "specification"
)

// ContributorAI marks ranges produced by a model.
const ContributorAI = "ai"

// Record is the unit of audit: one successful mutating operation.
// Records are append-only; once written they are never mutated or
// deleted.
type Record struct {
	Version    string      `json:"version"`
	ID         string      `json:"id"`
	Timestamp  string      `json:"timestamp"`
	VCS        *VCS        `json:"vcs,omitempty"`
	Tool       *Tool       `json:"tool,omitempty"`
	Files      []File      `json:"files"`
	Operations []Operation `json:"operations,omitempty"`
}

// VCS captures the version-control state of the codebase at write time,
// best effort: absent when no repository is detectable.
type VCS struct {
	Type     string `json:"type,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// Tool identifies the gate that produced the record.
type Tool struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// File is one modified file within a record.
type File struct {
	Path          string         `json:"path"`
	Conversations []Conversation `json:"conversations,omitempty"`
}

// Operation records a mutation with no single target file, such as an
// authorized shell command. It keeps such mutations visible in the
// audit trail even though they attribute no file ranges.
type Operation struct {
	Tool          string         `json:"tool,omitempty"`
	Command       string         `json:"command,omitempty"`
	Conversations []Conversation `json:"conversations,omitempty"`
}

// Conversation attributes a file's changes to one agent session.
type Conversation struct {
	URL         string       `json:"url,omitempty"`
	Contributor *Contributor `json:"contributor,omitempty"`
	Ranges      []Range      `json:"ranges,omitempty"`
	Related     []Related    `json:"related,omitempty"`
}

// IntentID returns the conversation's linked intent id, or "" when the
// conversation carries no intent linkage.
func (c Conversation) IntentID() string {
	for _, rel := range c.Related {
		if rel.Type == RelatedIntent {
			return rel.ID
		}
	}
	return ""
}

// Contributor identifies the entity behind a change.
type Contributor struct {
	Type    string `json:"type,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// Range is a block of attributed lines, 1-based inclusive. ContentHash
// is computed over the block bytes, not the whole file, so a block that
// moves during a refactor keeps its identity at the new location.
type Range struct {
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	ContentHash string `json:"content_hash,omitempty"`
}

// Related links a conversation to governance identifiers, most
// importantly the intent the mutation was performed under.
type Related struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// IntentIDs returns every intent id linked from the record.
func (r *Record) IntentIDs() []string {
	var ids []string
	for _, conv := range r.conversations() {
		for _, rel := range conv.Related {
			if rel.Type == RelatedIntent {
				ids = append(ids, rel.ID)
			}
		}
	}
	return ids
}

// Commands returns the commands recorded by the record's file-less
// operations.
func (r *Record) Commands() []string {
	var cmds []string
	for _, op := range r.Operations {
		if op.Command != "" {
			cmds = append(cmds, op.Command)
		}
	}
	return cmds
}

// conversations flattens every conversation in the record, file-bound
// and operation-bound alike.
func (r *Record) conversations() []Conversation {
	var convs []Conversation
	for _, f := range r.Files {
		convs = append(convs, f.Conversations...)
	}
	for _, op := range r.Operations {
		convs = append(convs, op.Conversations...)
	}
	return convs
}

// TouchesFile reports whether the record attributes changes to path.
func (r *Record) TouchesFile(path string) bool {
	for _, f := range r.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Time parses the record timestamp; the zero time is returned for
// unparseable values.
func (r *Record) Time() time.Time {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
