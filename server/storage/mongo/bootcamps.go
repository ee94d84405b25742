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
)

func (s *StorageMongo) CreateBootcamp(
	ctx context.Context, bd *storage.BootcampData,
) (string, error) {
	ownerID, err := parseID(bd.OwnerID, storage.ErrUserDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	if err := s.checkExists(ctx, usersCollection, ownerID, storage.ErrUserDoesNotExist); err != nil {
		return "", errors.Annotatef(err, "bootcamp owner %q", bd.OwnerID)
	}

	doc := bootcampDoc{
		ID:          primitive.NewObjectID(),
		OwnerID:     ownerID,
		Name:        bd.Name,
		Description: bd.Description,
		CreatedAt:   now(),
	}

	if _, err := s.db.Collection(bootcampsCollection).InsertOne(ctx, doc); err != nil {
		return "", hh.MakeInternalServerError(errors.Annotatef(
			err, "adding new bootcamp (owner_id: %s)", bd.OwnerID,
		))
	}

	return doc.ID.Hex(), nil
}

func (s *StorageMongo) GetBootcamp(
	ctx context.Context, bootcampID string,
) (*storage.BootcampData, error) {
	oid, err := parseID(bootcampID, storage.ErrBootcampDoesNotExist)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var doc bootcampDoc
	err = s.db.Collection(bootcampsCollection).FindOne(
		ctx, bson.D{{Key: "_id", Value: oid}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, storage.ErrBootcampDoesNotExist)
	}

	return doc.data(), nil
}

func (s *StorageMongo) UpdateBootcampStats(
	ctx context.Context, bootcampID string,
) error {
	oid, err := parseID(bootcampID, storage.ErrBootcampDoesNotExist)
	if err != nil {
		return errors.Trace(err)
	}

	avgCost, err := s.average(ctx, coursesCollection, oid, storage.FieldTuition)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(err, "average cost"))
	}

	avgRating, err := s.average(ctx, reviewsCollection, oid, storage.FieldRating)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(err, "average rating"))
	}

	set := bson.D{}
	unset := bson.D{}
	for _, v := range []struct {
		key string
		avg *float64
	}{
		{"averageCost", avgCost},
		{"averageRating", avgRating},
	} {
		if v.avg != nil {
			set = append(set, bson.E{Key: v.key, Value: *v.avg})
		} else {
			unset = append(unset, bson.E{Key: v.key, Value: ""})
		}
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	res, err := s.db.Collection(bootcampsCollection).UpdateOne(
		ctx, bson.D{{Key: "_id", Value: oid}}, update,
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating stats of bootcamp %s", bootcampID,
		))
	}

	if res.MatchedCount == 0 {
		return errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	return nil
}
