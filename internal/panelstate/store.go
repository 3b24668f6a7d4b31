package panelstate

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/Iron-Ham/ralphui/internal/logging"
)

// Store holds the panel state of one view and persists it under a fixed key.
type Store struct {
	storage Storage
	key     string
	logger  *logging.Logger

	mu    sync.Mutex
	state State
}

// NewStore returns a Store holding the default state. Call Restore to load
// the persisted record.
func NewStore(storage Storage, key string, logger *logging.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		storage: storage,
		key:     key,
		logger:  logging.OrNop(logger).WithComponent("panelstate"),
		state:   Default(),
	}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Restore loads the persisted record. A missing record yields the defaults;
// a malformed field is replaced by its default without affecting the others.
// Storage errors are logged and treated as a missing record.
func (s *Store) Restore() State {
	raw, ok, err := s.storage.Get(s.key)
	state := Default()
	switch {
	case err != nil:
		s.logger.Warn("failed to read panel state, using defaults", "key", s.key, "error", err)
	case ok:
		var malformed []string
		state, malformed = decodeRecord(raw)
		if len(malformed) > 0 {
			s.logger.Debug("replaced malformed panel state fields", "key", s.key, "fields", malformed)
		}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state.Clone()
}

// Save persists the full state in one write and makes it current.
func (s *Store) Save(state State) error {
	state = state.Clone()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode panel state: %w", err)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return s.storage.Put(s.key, data)
}

// Update merges the supplied fields of p into the current state. changed is
// true iff at least one field was supplied, even when the value is unchanged.
// Update does not persist; callers Save when changed.
func (s *Store) Update(p Partial) (state State, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CollapsedSections != nil {
		s.state.CollapsedSections = slices.Clone(*p.CollapsedSections)
		if s.state.CollapsedSections == nil {
			s.state.CollapsedSections = []string{}
		}
		changed = true
	}
	if p.ScrollPosition != nil {
		s.state.ScrollPosition = max(*p.ScrollPosition, 0)
		changed = true
	}
	if p.Requirements != nil {
		s.state.Requirements = *p.Requirements
		changed = true
	}
	return s.state.Clone(), changed
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
