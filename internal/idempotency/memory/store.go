// Package memory keeps idempotent purchase responses in process. It backs
// the API's memory backend and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

type Option func(*Store)

// WithTTL expires responses ttl after they were saved.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type entry struct {
	response ports.StoredResponse
	savedAt  time.Time
}

// Store replays the first response saved for a key. Without WithTTL saved
// responses never expire; reservations always lapse after
// ports.ReservationTTL.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns nil, nil for unknown or expired keys.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	resp := e.response
	resp.Body = append([]byte(nil), resp.Body...)
	return &resp, nil
}

func (s *Store) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = entry{savedAt: s.now()}
	return true, nil
}

// Save records response unless a live one is already stored for key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.live(key); ok && !e.response.Pending() {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.entries[key] = entry{response: response, savedAt: s.now()}
	return nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.response.Pending() {
		delete(s.entries, key)
	}
	return nil
}

func (s *Store) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	age := s.now().Sub(e.savedAt)
	if e.response.Pending() {
		return e, age < ports.ReservationTTL
	}
	return e, s.ttl <= 0 || age < s.ttl
}
