// Package memory keeps audit events in process. With a capacity it keeps only
// the newest events, which makes it usable as the sink of a long running
// server without a database.
package memory

import (
	"context"
	"sync"

	audit "linkage/pkg/platform/audit"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	events   []audit.Event
}

// Option configures the store.
type Option func(*InMemoryStore)

// WithCapacity bounds the store to the newest n events. n <= 0 is unbounded.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		s.capacity = n
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.capacity > 0 && len(s.events) > s.capacity {
		// Copy down so the backing array does not grow without bound.
		n := copy(s.events, s.events[len(s.events)-s.capacity:])
		clear(s.events[n:])
		s.events = s.events[:n]
	}
	return nil
}

// ListByLinkageKey returns events recorded for one linkage key, oldest first.
func (s *InMemoryStore) ListByLinkageKey(_ context.Context, key string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.LinkageKey == key {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every retained event, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// Len returns the number of retained events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
