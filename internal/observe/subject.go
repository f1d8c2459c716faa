// Package observe provides the subscribe/notify primitive shared by the
// client-side state containers.
package observe

import "sync"

// Subject fans a value out to every registered listener.
type Subject[T any] struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(T)
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Subject[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Notify calls every listener with value. Listeners run synchronously on the
// caller's goroutine, outside the subject's lock.
func (s *Subject[T]) Notify(value T) {
	s.mu.RLock()
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(value)
	}
}
