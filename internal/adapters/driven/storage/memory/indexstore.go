package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu      sync.RWMutex
	version string
	entries domain.Index
	exists  bool
	saves   int

	// LoadErr, when set, is returned by every Load.
	LoadErr error

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

// NewIndexStore creates an empty in-memory index store. Until the first
// Save it behaves like a missing index file.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		version: domain.IndexVersion,
		entries: domain.NewIndex(),
	}
}

// Seed replaces the stored index as if a file with version had been
// written by another run.
func (s *IndexStore) Seed(version string, entries domain.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
	s.entries = entries.Clone()
	s.exists = true
}

// Load returns a copy of the stored index.
func (s *IndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists {
		return &domain.IndexSnapshot{Version: domain.IndexVersion, Entries: domain.NewIndex()}, nil
	}
	return &domain.IndexSnapshot{Version: s.version, Entries: s.entries.Clone()}, nil
}

// Save stores a copy of entries at the current version.
func (s *IndexStore) Save(_ context.Context, entries domain.Index) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version = domain.IndexVersion
	s.entries = entries.Clone()
	s.exists = true
	s.saves++
	return nil
}

// Path returns a placeholder location.
func (s *IndexStore) Path() string {
	return "memory://" + domain.IndexFileName
}

// Saves returns how many times Save succeeded.
func (s *IndexStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Entries returns a copy of the stored entries.
func (s *IndexStore) Entries() domain.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

// Version returns the stored version string.
func (s *IndexStore) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
