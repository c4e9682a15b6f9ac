package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"linkage/internal/linkage/models"
	"linkage/internal/linkage/service"
	"linkage/pkg/platform/sentinel"
)

var _ service.Store = (*InMemoryStore)(nil)

// InMemoryStore keeps records in a map guarded by a RWMutex. Records are
// copied on the way in and out so callers never alias stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[models.LinkageKey]*models.PersonIdentity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[models.LinkageKey]*models.PersonIdentity)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.PersonIdentity) error {
	if record.LinkageKey.IsZero() {
		record.LinkageKey = NewLinkageKey()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.LinkageKey] = record.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.PersonIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.LinkageKey]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.LinkageKey] = record.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, key models.LinkageKey) (*models.PersonIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[key]; ok {
		return record.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, record *models.PersonIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.LinkageKey]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, record.LinkageKey)
	return nil
}

// FindByCompositeKey returns the match with the smallest linkage key.
func (s *InMemoryStore) FindByCompositeKey(_ context.Context, key models.CompositeKey) (*models.PersonIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.PersonIdentity
	for _, record := range s.records {
		if !record.CompositeKey().Matches(key) {
			continue
		}
		if found == nil || record.LinkageKey < found.LinkageKey {
			found = record
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found.Clone(), nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NewLinkageKey generates a fresh random linkage key.
func NewLinkageKey() models.LinkageKey {
	return models.LinkageKey(uuid.NewString())
}
