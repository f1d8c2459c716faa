package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/errorfix/internal/storage"
)

// Store keeps snapshots in process memory. Useful for tests and throwaway sessions.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewStore creates an empty in-memory snapshot store.
func NewStore() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Get returns a copy of the snapshot stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores or overwrites the snapshot for key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[key] = stored
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
