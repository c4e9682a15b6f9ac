package service

import (
	"context"
	"errors"

	"linkage/internal/linkage/models"
	"linkage/pkg/platform/sentinel"
)

func (s *Service) insert(ctx context.Context, req *models.Request) models.Response {
	if req.Data == nil {
		return models.Error(models.ReasonMissingData, models.MsgMissingData)
	}

	person := &models.PersonIdentity{Gender: copyValue(req.Data[models.FieldGender])}
	for field, slot := range person.HashedSlots() {
		*slot = s.normalizer.DigestField(req.Data, field)
	}

	if err := s.store.Save(ctx, person); err != nil {
		return storeFailure(err)
	}
	return models.Success(models.MsgInserted, person)
}

// update applies a sparse patch: only keys present in the mapping change.
// A key present with a nil value hashes to absence and clears its slot.
func (s *Service) update(ctx context.Context, req *models.Request) models.Response {
	if req.OldLinkageKey == nil {
		return models.Error(models.ReasonMissingKey, models.MsgMissingKey)
	}

	person, resp, ok := s.lookup(ctx, models.LinkageKey(*req.OldLinkageKey))
	if !ok {
		return resp
	}

	for field, slot := range person.HashedSlots() {
		if value, present := req.Data[field]; present {
			*slot = s.normalizer.Digest(value)
		}
	}
	if value, present := req.Data[models.FieldGender]; present {
		person.Gender = copyValue(value)
	}

	if err := s.store.Update(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Removed by a concurrent delete between lookup and update.
			return models.NotFound(models.ReasonNotFound, models.MsgRecordNotFound)
		}
		return storeFailure(err)
	}
	return models.Success(models.MsgUpdated, person)
}

func (s *Service) delete(ctx context.Context, req *models.Request) models.Response {
	if req.OldLinkageKey == nil {
		return models.Error(models.ReasonMissingKey, models.MsgMissingKey)
	}

	person, resp, ok := s.lookup(ctx, models.LinkageKey(*req.OldLinkageKey))
	if !ok {
		return resp
	}

	if err := s.store.Delete(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Removed by a concurrent delete between lookup and delete.
			return models.NotFound(models.ReasonNotFound, models.MsgRecordNotFound)
		}
		return storeFailure(err)
	}
	return models.Success(models.MsgDeleted, nil)
}

// search is a single exact lookup on the four-digest tuple. No subset of the
// tuple is ever tried.
func (s *Service) search(ctx context.Context, req *models.Request) models.Response {
	if req.Data == nil {
		return models.Error(models.ReasonMissingData, models.MsgMissingSearch)
	}

	key := models.CompositeKey{
		HashedAadhaarNumber: s.normalizer.DigestField(req.Data, models.FieldAadhaarNumber),
		HashedDOB:           s.normalizer.DigestField(req.Data, models.FieldDOB),
		HashedForename:      s.normalizer.DigestField(req.Data, models.FieldForename),
		HashedLastname:      s.normalizer.DigestField(req.Data, models.FieldLastname),
	}

	person, err := s.store.FindByCompositeKey(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.NotFound(models.ReasonNoMatch, models.MsgNoRecordFound)
		}
		return storeFailure(err)
	}
	return models.Success(models.MsgFound, person)
}

// lookup resolves a prior linkage key. When ok is false, resp is the
// response to return.
func (s *Service) lookup(ctx context.Context, key models.LinkageKey) (*models.PersonIdentity, models.Response, bool) {
	person, err := s.store.FindByID(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.NotFound(models.ReasonNotFound, models.MsgRecordNotFound), false
		}
		return nil, storeFailure(err), false
	}
	return person, models.Response{}, true
}

func storeFailure(err error) models.Response {
	return models.Error(models.ReasonStoreFailure, err.Error())
}

func copyValue(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
