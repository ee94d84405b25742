// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package memory

import (
	"context"

	"devcamper.io/devcamper/server/storage"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

func (s *StorageMemory) CreateReview(
	ctx context.Context, rd *storage.ReviewData,
) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.bootcamps[rd.BootcampID]; !ok {
		return "", errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	for _, cur := range s.reviews {
		if cur.BootcampID == rd.BootcampID && cur.OwnerID == rd.OwnerID {
			return "", errors.Trace(storage.ErrReviewAlreadyExists)
		}
	}

	rec := &reviewRec{ReviewData: *rd, seq: s.nextSeq()}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	s.reviews[rec.ID] = rec

	return rec.ID, nil
}

func (s *StorageMemory) GetReview(
	ctx context.Context, reviewID string,
) (*storage.ReviewData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.reviews[reviewID]
	if !ok {
		return nil, errors.Trace(storage.ErrReviewDoesNotExist)
	}

	ret := rec.ReviewData
	return &ret, nil
}

func (s *StorageMemory) GetReviews(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.ReviewData, error) {
	if err := storage.ValidateListOpts(opts, storage.ReviewFields); err != nil {
		return nil, errors.Trace(err)
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched, err := s.matchReviews(opts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	items := make([]sortable, len(matched))
	for i, rec := range matched {
		items[i] = sortable{get: reviewField(&rec.ReviewData), seq: rec.seq}
	}

	ret := []storage.ReviewData{}
	for _, i := range sortAndPage(items, opts) {
		ret = append(ret, matched[i].ReviewData)
	}

	return ret, nil
}

func (s *StorageMemory) CountReviews(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.ReviewFields); err != nil {
		return 0, errors.Trace(err)
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched, err := s.matchReviews(&storage.ListOpts{Filters: filters})
	if err != nil {
		return 0, errors.Trace(err)
	}

	return len(matched), nil
}

// Must be called with s.mtx held.
func (s *StorageMemory) matchReviews(opts *storage.ListOpts) ([]*reviewRec, error) {
	var filters []storage.Filter
	if opts != nil {
		filters = opts.Filters
	}

	ret := []*reviewRec{}
	for _, rec := range s.reviews {
		ok, err := matchFilters(reviewField(&rec.ReviewData), filters)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if ok {
			ret = append(ret, rec)
		}
	}

	return ret, nil
}

func (s *StorageMemory) UpdateReview(
	ctx context.Context, rd *storage.ReviewData,
) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.reviews[rd.ID]
	if !ok {
		return errors.Trace(storage.ErrReviewDoesNotExist)
	}

	rec.Title = rd.Title
	rec.Text = rd.Text
	rec.Rating = rd.Rating

	return nil
}

func (s *StorageMemory) DeleteReview(ctx context.Context, reviewID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.reviews[reviewID]; !ok {
		return errors.Trace(storage.ErrReviewDoesNotExist)
	}

	delete(s.reviews, reviewID)
	return nil
}
