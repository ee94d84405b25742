// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package mongo

import (
	"context"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

func (s *StorageMongo) CreateReview(
	ctx context.Context, rd *storage.ReviewData,
) (string, error) {
	bootcampID, err := parseID(rd.BootcampID, storage.ErrBootcampDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	ownerID, err := parseID(rd.OwnerID, storage.ErrUserDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	if err := s.checkExists(ctx, bootcampsCollection, bootcampID, storage.ErrBootcampDoesNotExist); err != nil {
		return "", errors.Trace(err)
	}

	doc := reviewDoc{
		ID:         primitive.NewObjectID(),
		BootcampID: bootcampID,
		OwnerID:    ownerID,
		Title:      rd.Title,
		Text:       rd.Text,
		Rating:     rd.Rating,
		CreatedAt:  now(),
	}

	if _, err := s.db.Collection(reviewsCollection).InsertOne(ctx, doc); err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return "", errors.Trace(storage.ErrReviewAlreadyExists)
		}
		return "", hh.MakeInternalServerError(errors.Annotatef(
			err, "adding new review (bootcamp_id: %s)", rd.BootcampID,
		))
	}

	return doc.ID.Hex(), nil
}

func (s *StorageMongo) GetReview(
	ctx context.Context, reviewID string,
) (*storage.ReviewData, error) {
	oid, err := parseID(reviewID, storage.ErrReviewDoesNotExist)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var doc reviewDoc
	err = s.db.Collection(reviewsCollection).FindOne(
		ctx, bson.D{{Key: "_id", Value: oid}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, storage.ErrReviewDoesNotExist)
	}

	rd := doc.data()
	return &rd, nil
}

func (s *StorageMongo) GetReviews(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.ReviewData, error) {
	if opts == nil {
		opts = &storage.ListOpts{}
	}

	if err := storage.ValidateListOpts(opts, storage.ReviewFields); err != nil {
		return nil, errors.Trace(err)
	}

	ret := []storage.ReviewData{}

	filter, matchNone, err := buildFilter(opts.Filters)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if matchNone {
		return ret, nil
	}

	cur, err := s.db.Collection(reviewsCollection).Find(ctx, filter, buildFindOpts(opts))
	if err != nil {
		return nil, hh.MakeInternalServerError(err)
	}
	defer cur.Close(ctx)

	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, hh.MakeInternalServerError(err)
	}

	for i := range docs {
		ret = append(ret, docs[i].data())
	}

	return ret, nil
}

func (s *StorageMongo) CountReviews(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.ReviewFields); err != nil {
		return 0, errors.Trace(err)
	}

	return s.count(ctx, reviewsCollection, filters)
}

func (s *StorageMongo) UpdateReview(
	ctx context.Context, rd *storage.ReviewData,
) error {
	oid, err := parseID(rd.ID, storage.ErrReviewDoesNotExist)
	if err != nil {
		return errors.Trace(err)
	}

	res, err := s.db.Collection(reviewsCollection).UpdateOne(
		ctx, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: storage.FieldTitle, Value: rd.Title},
			{Key: "text", Value: rd.Text},
			{Key: storage.FieldRating, Value: rd.Rating},
		}}},
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating review %s", rd.ID,
		))
	}

	if res.MatchedCount == 0 {
		return errors.Trace(storage.ErrReviewDoesNotExist)
	}

	return nil
}

func (s *StorageMongo) DeleteReview(ctx context.Context, reviewID string) error {
	return errors.Trace(s.deleteOne(ctx, reviewsCollection, reviewID, storage.ErrReviewDoesNotExist))
}
