// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package mongo

import (
	"context"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// CheckIntegrity compares the stored bootcamp averages with the ones computed
// from the current courses and reviews. Unlike the postgres one, it doesn't
// work on a snapshot, so concurrent writes might yield false mismatches.
func (s *StorageMongo) CheckIntegrity(ctx context.Context) error {
	cur, err := s.db.Collection(bootcampsCollection).Find(ctx, bson.D{})
	if err != nil {
		return errors.Trace(err)
	}

	var docs []bootcampDoc
	if err := cur.All(ctx, &docs); err != nil {
		return errors.Trace(err)
	}

	var mismatches []storage.StatsMismatch
	for _, doc := range docs {
		cost, err := s.average(ctx, coursesCollection, doc.ID, storage.FieldTuition)
		if err != nil {
			return errors.Annotatef(err, "bootcamp %s", doc.ID.Hex())
		}

		rating, err := s.average(ctx, reviewsCollection, doc.ID, storage.FieldRating)
		if err != nil {
			return errors.Annotatef(err, "bootcamp %s", doc.ID.Hex())
		}

		mismatches = storage.CompareStat(mismatches, doc.ID.Hex(), "averageCost", doc.AverageCost, cost)
		mismatches = storage.CompareStat(mismatches, doc.ID.Hex(), "averageRating", doc.AverageRating, rating)
	}

	return storage.IntegrityResult(mismatches)
}
