// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package resource

import (
	"context"
	"time"

	"devcamper.io/devcamper/server/cptr"
	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
)

var ReviewFilterFields = []string{
	storage.FieldRating,
	storage.FieldUser,
	storage.FieldBootcamp,
}

type Review struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	// Either the bootcamp id, or *BootcampRef when expanded.
	Bootcamp  interface{} `json:"bootcamp"`
	User      string      `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

type ReviewInput struct {
	Title  *string `json:"title" validate:"required,min=1,max=100"`
	Text   *string `json:"text" validate:"required,min=1"`
	Rating *int    `json:"rating" validate:"required,min=1,max=10"`
}

func (in *ReviewInput) mergeInto(dst *ReviewInput) {
	if in.Title != nil {
		dst.Title = trimmed(in.Title)
	}
	if in.Text != nil {
		dst.Text = in.Text
	}
	if in.Rating != nil {
		dst.Rating = in.Rating
	}
}

func (in *ReviewInput) apply(rd *storage.ReviewData) {
	rd.Title = *in.Title
	rd.Text = *in.Text
	rd.Rating = *in.Rating
}

func makeReview(rd *storage.ReviewData) Review {
	return Review{
		ID:        rd.ID,
		Title:     rd.Title,
		Text:      rd.Text,
		Rating:    rd.Rating,
		Bootcamp:  rd.BootcampID,
		User:      rd.OwnerID,
		CreatedAt: rd.CreatedAt,
	}
}

type Reviews struct {
	si       storage.Storage
	validate *validator.Validate
}

func NewReviews(si storage.Storage) *Reviews {
	return &Reviews{
		si:       si,
		validate: newValidator(),
	}
}

func (rs *Reviews) List(ctx context.Context, bootcampID string) ([]Review, error) {
	rds, err := rs.si.GetReviews(ctx, storage.ByBootcamp(bootcampID))
	if err != nil {
		return nil, errors.Trace(err)
	}

	ret := make([]Review, 0, len(rds))
	for i := range rds {
		ret = append(ret, makeReview(&rds[i]))
	}

	return ret, nil
}

func (rs *Reviews) Page(ctx context.Context, q *PageQuery) (*hh.Envelope, error) {
	return runPage(ctx, q, rs.si.CountReviews, func(opts *storage.ListOpts) (interface{}, int, error) {
		rds, err := rs.si.GetReviews(ctx, opts)
		if err != nil {
			return nil, 0, errors.Trace(err)
		}

		ret := make([]Review, 0, len(rds))
		for i := range rds {
			ret = append(ret, makeReview(&rds[i]))
		}
		return ret, len(ret), nil
	})
}

func (rs *Reviews) Get(ctx context.Context, reviewID string) (*Review, error) {
	rd, err := rs.getReviewData(ctx, reviewID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	bd, err := rs.si.GetBootcamp(ctx, rd.BootcampID)
	if err != nil {
		if errors.Cause(err) == storage.ErrBootcampDoesNotExist {
			return nil, hh.MakeNotFoundErrorf("No review with id %s", reviewID)
		}
		return nil, errors.Trace(err)
	}

	review := makeReview(rd)
	review.Bootcamp = &BootcampRef{
		ID:          bd.ID,
		Name:        bd.Name,
		Description: bd.Description,
	}

	return &review, nil
}

// Add creates a review of the bootcamp by the caller. Any authenticated user
// can review any existing bootcamp, but only once.
func (rs *Reviews) Add(
	ctx context.Context, bootcampID string, in *ReviewInput, caller *storage.UserData,
) (*Review, error) {
	if caller == nil {
		return nil, hh.MakeUnauthorizedErrorf("Not authorized to add a review")
	}

	if _, err := getBootcamp(ctx, rs.si, bootcampID); err != nil {
		return nil, errors.Trace(err)
	}

	merged := &ReviewInput{}
	in.mergeInto(merged)
	if err := validateStruct(rs.validate, merged); err != nil {
		return nil, errors.Trace(err)
	}

	rd := &storage.ReviewData{
		BootcampID: bootcampID,
		OwnerID:    caller.ID,
	}
	merged.apply(rd)

	var err error
	rd.ID, err = rs.si.CreateReview(ctx, rd)
	if err != nil {
		switch errors.Cause(err) {
		case storage.ErrReviewAlreadyExists:
			return nil, hh.MakeBadRequestErrorf(
				"User %s has already reviewed bootcamp %s", caller.ID, bootcampID,
			)
		case storage.ErrBootcampDoesNotExist:
			return nil, hh.MakeNotFoundErrorf("No bootcamp with id %s", bootcampID)
		}
		return nil, errors.Trace(err)
	}

	updateBootcampStats(ctx, rs.si, bootcampID)

	return rs.reload(ctx, rd.ID)
}

func (rs *Reviews) Update(
	ctx context.Context, reviewID string, in *ReviewInput, caller *storage.UserData,
) (*Review, error) {
	rd, err := rs.getReviewData(ctx, reviewID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if !CanMutate(rd.OwnerID, caller) {
		return nil, hh.MakeUnauthorizedErrorf(
			"User %s is not authorized to update review %s",
			callerID(caller), reviewID,
		)
	}

	merged := &ReviewInput{
		Title:  cptr.String(rd.Title),
		Text:   cptr.String(rd.Text),
		Rating: cptr.Int(rd.Rating),
	}
	in.mergeInto(merged)
	if err := validateStruct(rs.validate, merged); err != nil {
		return nil, errors.Trace(err)
	}
	merged.apply(rd)

	if err := rs.si.UpdateReview(ctx, rd); err != nil {
		return nil, errors.Trace(rs.mapNotFound(err, reviewID))
	}

	if in.Rating != nil {
		updateBootcampStats(ctx, rs.si, rd.BootcampID)
	}

	return rs.reload(ctx, reviewID)
}

func (rs *Reviews) Remove(
	ctx context.Context, reviewID string, caller *storage.UserData,
) error {
	rd, err := rs.getReviewData(ctx, reviewID)
	if err != nil {
		return errors.Trace(err)
	}

	if !CanMutate(rd.OwnerID, caller) {
		return hh.MakeUnauthorizedErrorf(
			"User %s is not authorized to delete review %s",
			callerID(caller), reviewID,
		)
	}

	if err := rs.si.DeleteReview(ctx, reviewID); err != nil {
		return errors.Trace(rs.mapNotFound(err, reviewID))
	}

	updateBootcampStats(ctx, rs.si, rd.BootcampID)

	return nil
}

func (rs *Reviews) getReviewData(
	ctx context.Context, reviewID string,
) (*storage.ReviewData, error) {
	rd, err := rs.si.GetReview(ctx, reviewID)
	if err != nil {
		return nil, errors.Trace(rs.mapNotFound(err, reviewID))
	}
	return rd, nil
}

func (rs *Reviews) reload(ctx context.Context, reviewID string) (*Review, error) {
	rd, err := rs.getReviewData(ctx, reviewID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	review := makeReview(rd)
	return &review, nil
}

func (rs *Reviews) mapNotFound(err error, reviewID string) error {
	if errors.Cause(err) == storage.ErrReviewDoesNotExist {
		return hh.MakeNotFoundErrorf("No review with id %s", reviewID)
	}
	return err
}
