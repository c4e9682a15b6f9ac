package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"linkage/internal/linkage/models"
	"linkage/internal/linkage/store"
)

type InMemoryStoreSuite struct {
	StoreContractSuite
	memory *store.InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.memory = store.NewInMemoryStore()
	s.store = s.memory
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

// TestConcurrentSaves verifies distinct keys under parallel inserts.
func (s *InMemoryStoreSuite) TestConcurrentSaves() {
	const goroutines = 50
	var wg sync.WaitGroup
	keys := make(chan models.LinkageKey, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record := s.newRecord("a", "d", "f", "l")
			if err := s.memory.Save(s.ctx, record); err == nil {
				keys <- record.LinkageKey
			}
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[models.LinkageKey]bool)
	for k := range keys {
		s.False(seen[k], "linkage key reused: %s", k)
		seen[k] = true
	}
	s.Len(seen, goroutines)
	s.Equal(goroutines, s.memory.Len())
}
