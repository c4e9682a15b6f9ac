package store_test

import (
	"context"

	"github.com/stretchr/testify/suite"

	"linkage/internal/linkage/models"
	"linkage/internal/linkage/service"
	"linkage/pkg/platform/sentinel"
)

// StoreContractSuite holds the behavior every Store implementation shares.
// Concrete suites embed it and set store in SetupTest.
type StoreContractSuite struct {
	suite.Suite
	store service.Store
	ctx   context.Context
}

func digest(s string) *string { return &s }

func (s *StoreContractSuite) newRecord(aadhaar, dob, forename, lastname string) *models.PersonIdentity {
	return &models.PersonIdentity{
		HashedAadhaarNumber: digest(aadhaar),
		HashedDOB:           digest(dob),
		HashedForename:      digest(forename),
		HashedLastname:      digest(lastname),
		HashedAddress:       digest("addr-" + aadhaar),
		Gender:              digest("M"),
	}
}

// TestSaveAndLookup verifies key assignment and retrieval by linkage key.
func (s *StoreContractSuite) TestSaveAndLookup() {
	s.Run("assigns a linkage key on first save", func() {
		record := s.newRecord("a1", "d1", "f1", "l1")
		s.Require().NoError(s.store.Save(s.ctx, record))
		s.NotEmpty(record.LinkageKey)

		found, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Equal(record, found)
	})

	s.Run("keeps the linkage key on subsequent saves", func() {
		record := s.newRecord("a2", "d2", "f2", "l2")
		s.Require().NoError(s.store.Save(s.ctx, record))
		key := record.LinkageKey

		record.Gender = digest("F")
		record.HashedPanNumber = digest("pan")
		s.Require().NoError(s.store.Save(s.ctx, record))
		s.Equal(key, record.LinkageKey)

		found, err := s.store.FindByID(s.ctx, key)
		s.Require().NoError(err)
		s.Equal("F", *found.Gender)
		s.Equal("pan", *found.HashedPanNumber)
	})

	s.Run("preserves absent slots", func() {
		record := &models.PersonIdentity{HashedForename: digest("only")}
		s.Require().NoError(s.store.Save(s.ctx, record))

		found, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Nil(found.HashedAadhaarNumber)
		s.Nil(found.Gender)
		s.Equal("only", *found.HashedForename)
	})

	s.Run("returns ErrNotFound for unknown key", func() {
		_, err := s.store.FindByID(s.ctx, models.LinkageKey("missing"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned records do not alias stored state", func() {
		record := s.newRecord("a3", "d3", "f3", "l3")
		s.Require().NoError(s.store.Save(s.ctx, record))

		found, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		*found.HashedForename = "tampered"

		again, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Equal("f3", *again.HashedForename)
	})
}

// TestDelete verifies removal and repeated deletion.
func (s *StoreContractSuite) TestDelete() {
	record := s.newRecord("a4", "d4", "f4", "l4")
	s.Require().NoError(s.store.Save(s.ctx, record))

	s.Require().NoError(s.store.Delete(s.ctx, record))

	_, err := s.store.FindByID(s.ctx, record.LinkageKey)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(s.ctx, record)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByCompositeKey(s.ctx, record.CompositeKey())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestCompositeKeyLookup verifies strict tuple equality.
func (s *StoreContractSuite) TestCompositeKeyLookup() {
	s.Run("matches all four members", func() {
		record := s.newRecord("a5", "d5", "f5", "l5")
		s.Require().NoError(s.store.Save(s.ctx, record))

		found, err := s.store.FindByCompositeKey(s.ctx, record.CompositeKey())
		s.Require().NoError(err)
		s.Equal(record.LinkageKey, found.LinkageKey)
	})

	s.Run("one differing member never matches", func() {
		record := s.newRecord("a6", "d6", "f6", "l6")
		s.Require().NoError(s.store.Save(s.ctx, record))

		key := record.CompositeKey()
		key.HashedForename = digest("f6x")
		_, err := s.store.FindByCompositeKey(s.ctx, key)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("absent member matches only absent slot", func() {
		record := &models.PersonIdentity{
			HashedAadhaarNumber: digest("a7"),
			HashedForename:      digest("f7"),
			HashedLastname:      digest("l7"),
		}
		s.Require().NoError(s.store.Save(s.ctx, record))

		found, err := s.store.FindByCompositeKey(s.ctx, models.CompositeKey{
			HashedAadhaarNumber: digest("a7"),
			HashedForename:      digest("f7"),
			HashedLastname:      digest("l7"),
		})
		s.Require().NoError(err)
		s.Equal(record.LinkageKey, found.LinkageKey)

		_, err = s.store.FindByCompositeKey(s.ctx, models.CompositeKey{
			HashedAadhaarNumber: digest("a7"),
			HashedDOB:           digest("d7"),
			HashedForename:      digest("f7"),
			HashedLastname:      digest("l7"),
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("subset of a stored tuple does not match", func() {
		record := s.newRecord("a8", "d8", "f8", "l8")
		s.Require().NoError(s.store.Save(s.ctx, record))

		_, err := s.store.FindByCompositeKey(s.ctx, models.CompositeKey{
			HashedAadhaarNumber: digest("a8"),
			HashedDOB:           digest("d8"),
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicates resolve to the smallest linkage key", func() {
		first := s.newRecord("a9", "d9", "f9", "l9")
		first.LinkageKey = "00000000-0000-4000-8000-000000000002"
		second := s.newRecord("a9", "d9", "f9", "l9")
		second.LinkageKey = "00000000-0000-4000-8000-000000000001"
		s.Require().NoError(s.store.Save(s.ctx, first))
		s.Require().NoError(s.store.Save(s.ctx, second))

		for i := 0; i < 3; i++ {
			found, err := s.store.FindByCompositeKey(s.ctx, first.CompositeKey())
			s.Require().NoError(err)
			s.Equal(second.LinkageKey, found.LinkageKey)
		}
	})

	s.Run("update replaces an existing record and moves the match", func() {
		record := s.newRecord("a11", "d11", "f11", "l11")
		s.Require().NoError(s.store.Save(s.ctx, record))
		oldKey := record.CompositeKey()

		record.HashedForename = digest("f11-renamed")
		s.Require().NoError(s.store.Update(s.ctx, record))

		_, err := s.store.FindByCompositeKey(s.ctx, oldKey)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		found, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Equal("f11-renamed", *found.HashedForename)
	})

	s.Run("update after delete does not re-create the record", func() {
		record := s.newRecord("a12", "d12", "f12", "l12")
		s.Require().NoError(s.store.Save(s.ctx, record))
		s.Require().NoError(s.store.Delete(s.ctx, record))

		record.Gender = digest("F")
		s.Require().ErrorIs(s.store.Update(s.ctx, record), sentinel.ErrNotFound)

		_, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByCompositeKey(s.ctx, record.CompositeKey())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("re-save with a new tuple moves the match", func() {
		record := s.newRecord("a10", "d10", "f10", "l10")
		s.Require().NoError(s.store.Save(s.ctx, record))
		oldKey := record.CompositeKey()

		record.HashedForename = digest("f10-renamed")
		s.Require().NoError(s.store.Save(s.ctx, record))

		_, err := s.store.FindByCompositeKey(s.ctx, oldKey)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindByCompositeKey(s.ctx, record.CompositeKey())
		s.Require().NoError(err)
		s.Equal(record.LinkageKey, found.LinkageKey)
	})
}
