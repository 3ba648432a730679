// Package intent loads and validates the declarative intent registry: the
// set of declared units of work that gate what an agent may mutate. Each
// intent owns a set of file-path glob patterns; a write outside every
// active intent's owned scope is rejected by the gatekeeper.
package intent

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Status is the lifecycle state of an intent. Transitions happen in the
// registry document, edited by a human or by external tooling; the gate
// only ever reads them.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Selectable reports whether an intent in this status may become the
// active intent for a session.
func (s Status) Selectable() bool {
	return s == StatusDraft || s == StatusInProgress
}

// Intent is one declared unit of work.
type Intent struct {
	ID                 string   `yaml:"id" json:"id"`
	Description        string   `yaml:"description,omitempty" json:"description,omitempty"`
	Status             Status   `yaml:"status" json:"status"`
	OwnedScope         []string `yaml:"owned_scope" json:"owned_scope"`
	Constraints        []string `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria,omitempty" json:"acceptance_criteria,omitempty"`
	Dependencies       []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	BlockedReason      string   `yaml:"blocked_reason,omitempty" json:"blocked_reason,omitempty"`
}

// Registry is the root collection in the intents document.
type Registry struct {
	Intents []Intent `yaml:"intents" json:"intents"`
}

// IDs returns the ids of all intents in document order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Intents))
	for _, in := range r.Intents {
		ids = append(ids, in.ID)
	}
	return ids
}

// FindByID returns the intent with the given id.
func (r *Registry) FindByID(id string) (*Intent, bool) {
	for i := range r.Intents {
		if r.Intents[i].ID == id {
			return &r.Intents[i], true
		}
	}
	return nil, false
}

// Validate checks structural properties of the registry: unique ids,
// known statuses, valid non-empty glob scopes, blocked_reason present
// exactly when status is blocked, resolvable and acyclic dependencies.
// Returns all problems found, not just the first.
func (r *Registry) Validate() []error {
	var errs []error

	seen := make(map[string]bool, len(r.Intents))
	for _, in := range r.Intents {
		if in.ID == "" {
			errs = append(errs, fmt.Errorf("intent with empty id"))
			continue
		}
		if seen[in.ID] {
			errs = append(errs, fmt.Errorf("duplicate intent id %q", in.ID))
		}
		seen[in.ID] = true

		if !in.Status.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown status %q", in.ID, in.Status))
		}
		if in.Status == StatusBlocked && in.BlockedReason == "" {
			errs = append(errs, fmt.Errorf("%s: blocked intent missing blocked_reason", in.ID))
		}
		if in.Status != StatusBlocked && in.BlockedReason != "" {
			errs = append(errs, fmt.Errorf("%s: blocked_reason set but status is %q", in.ID, in.Status))
		}
		if len(in.OwnedScope) == 0 {
			errs = append(errs, fmt.Errorf("%s: owned_scope is empty", in.ID))
		}
		for _, pattern := range in.OwnedScope {
			if !doublestar.ValidatePattern(pattern) {
				errs = append(errs, fmt.Errorf("%s: invalid scope pattern %q", in.ID, pattern))
			}
		}
	}

	for _, in := range r.Intents {
		for _, dep := range in.Dependencies {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("%s: unknown dependency %q", in.ID, dep))
			}
		}
	}

	if cycle := r.findCycle(); len(cycle) > 0 {
		errs = append(errs, fmt.Errorf("dependency cycle: %v", cycle))
	}

	return errs
}

// findCycle runs a DFS over the dependency graph and returns the first
// cycle found, or nil.
func (r *Registry) findCycle() []string {
	deps := make(map[string][]string, len(r.Intents))
	for _, in := range r.Intents {
		deps[in.ID] = in.Dependencies
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))

	var cycle []string
	var visit func(id string, path []string) bool
	visit = func(id string, path []string) bool {
		switch state[id] {
		case done:
			return false
		case visiting:
			cycle = append(append([]string{}, path...), id)
			return true
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if _, ok := deps[dep]; !ok {
				continue
			}
			if visit(dep, append(path, id)) {
				return true
			}
		}
		state[id] = done
		return false
	}

	for _, in := range r.Intents {
		if state[in.ID] == unvisited && visit(in.ID, nil) {
			return cycle
		}
	}
	return nil
}
