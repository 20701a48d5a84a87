package storage

import (
	"sync"
)

// Store defines the interface for a node's resource list.
type Store interface {
	// Append adds a resource name to the end of the list.
	Append(resource string)
	// Find returns the first entry equal to resource.
	Find(resource string) (string, bool)
	// List returns a copy of all entries in insertion order.
	List() []string
	// Len returns the number of entries, duplicates included.
	Len() int
}

// InMemoryStore is an in-memory implementation of Store.
// It's thread-safe.
type InMemoryStore struct {
	mu        sync.RWMutex
	resources []string
}

// NewInMemoryStore creates a new, empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		resources: make([]string, 0),
	}
}

// Append adds a resource. No duplicate detection is performed.
func (s *InMemoryStore) Append(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources = append(s.resources, resource)
}

// Find performs a linear scan for an exact match.
func (s *InMemoryStore) Find(resource string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.resources {
		if r == resource {
			return r, true
		}
	}
	return "", false
}

// List returns a copy to avoid external modifications.
func (s *InMemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.resources...)
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.resources)
}
