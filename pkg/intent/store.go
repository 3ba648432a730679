package intent

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when an intent id is absent from the registry.
// It carries the available ids so callers can surface them in rejections.
type ErrNotFound struct {
	ID        string
	Available []string
}

func (e ErrNotFound) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("intent %q not found (registry is empty)", e.ID)
	}
	return fmt.Sprintf("intent %q not found (available: %v)", e.ID, e.Available)
}

// Store reads the intent registry document. The document is re-read on
// every Load so edits to it take effect on the next validation; the gate
// never caches intents across tool calls.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a Store for the registry document at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the registry document path.
func (s *Store) Path() string {
	return s.path
}

// Load parses the registry document. A missing or malformed document is a
// data error, not a pipeline error: it is logged and an empty registry is
// returned so the gate degrades to "no intents available" instead of
// crashing the hosting process.
func (s *Store) Load() *Registry {
	reg, err := s.load()
	if err != nil {
		s.logger.Warn("intent registry unavailable, treating as empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return &Registry{}
	}
	return reg
}

// load reads and parses the document, returning errors for callers that
// need the diagnostic (the validate subcommand).
func (s *Store) load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("registry document does not exist: %s", s.path)
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}

	return &reg, nil
}

// LoadStrict parses the document and runs structural validation,
// returning every problem found. Used by `warden intents validate` and
// the registry watcher.
func (s *Store) LoadStrict() (*Registry, []error) {
	reg, err := s.load()
	if err != nil {
		return &Registry{}, []error{err}
	}
	return reg, reg.Validate()
}

// FindByID loads the registry and looks up one intent.
func (s *Store) FindByID(id string) (*Intent, error) {
	reg := s.Load()
	in, ok := reg.FindByID(id)
	if !ok {
		return nil, ErrNotFound{ID: id, Available: reg.IDs()}
	}
	return in, nil
}
