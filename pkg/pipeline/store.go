package pipeline

import (
	"sync"

	"github.com/courtsight/volleycoach/pkg/types"
)

// Store holds assembled analysis records, most recent first. Records
// own their image artifact; discarding one through the store releases
// it.
type Store struct {
	mu    sync.Mutex
	items []*types.Analysis
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add prepends a record.
func (s *Store) Add(a *types.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]*types.Analysis{a}, s.items...)
}

// List returns the records, most recent first.
func (s *Store) List() []*types.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Analysis, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Remove discards the record with the given id, releasing its image
// artifact, and reports whether one was found.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			_ = a.Release()
			return true
		}
	}
	return false
}

// Clear discards every record and releases all artifacts.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		_ = a.Release()
	}
	s.items = nil
}
