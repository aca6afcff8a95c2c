// Package manifest provides manifest store implementations. A manifest is
// the persisted {id, typeName} record that lets the runtime reconstruct its
// actors after a process restart.
package manifest

import (
	"sort"
	"sync"

	"github.com/hupe1980/actormesh/core"
)

// InMemoryStore is a volatile ManifestStore keeping records in a process
// local map. Safe for concurrent access.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]core.Manifest
}

// NewInMemoryStore constructs an empty in-memory manifest store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]core.Manifest)}
}

// Save implements core.ManifestStore, replacing any record with the same id.
func (s *InMemoryStore) Save(m core.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[m.ID] = m
	return nil
}

// Delete implements core.ManifestStore. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// List implements core.ManifestStore returning records in stable id order.
func (s *InMemoryStore) List() ([]core.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Manifest, 0, len(s.records))
	for _, m := range s.records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
