// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package mongo

import (
	"context"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var filterOps = map[storage.FilterOp]string{
	storage.FilterOpEq:  "$eq",
	storage.FilterOpGt:  "$gt",
	storage.FilterOpGte: "$gte",
	storage.FilterOpLt:  "$lt",
	storage.FilterOpLte: "$lte",
}

// Fields holding references to other documents; their values are given as
// hex strings and stored as ObjectIDs.
var refFields = map[string]bool{
	storage.FieldBootcamp: true,
	storage.FieldUser:     true,
}

// buildFilter converts filters to a mongo query. If some filter can't match
// anything (e.g. it refers to a malformed id), matchNone is true.
func buildFilter(filters []storage.Filter) (q bson.D, matchNone bool, err error) {
	conds := bson.A{}

	for _, f := range filters {
		op, ok := filterOps[f.Op]
		if !ok {
			return nil, false, errors.Errorf("unknown filter operator %q", f.Op)
		}

		v := f.Value
		if refFields[f.Field] {
			oid, err := primitive.ObjectIDFromHex(v.(string))
			if err != nil {
				return nil, true, nil
			}
			v = oid
		}

		conds = append(conds, bson.D{{Key: f.Field, Value: bson.D{{Key: op, Value: v}}}})
	}

	if len(conds) == 0 {
		return bson.D{}, false, nil
	}

	return bson.D{{Key: "$and", Value: conds}}, false, nil
}

func buildFindOpts(opts *storage.ListOpts) *options.FindOptions {
	sort := bson.D{}
	seen := map[string]bool{}
	for _, s := range opts.Sort {
		if seen[s.Field] {
			continue
		}
		seen[s.Field] = true

		dir := 1
		if s.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	if !seen[storage.FieldCreatedAt] {
		sort = append(sort, bson.E{Key: storage.FieldCreatedAt, Value: 1})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	fo := options.Find().SetSort(sort)
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}

	return fo
}

// average returns the average of the given numeric field over the documents
// of the collection belonging to the bootcamp, or nil if there are none.
func (s *StorageMongo) average(
	ctx context.Context, coll string, bootcampID primitive.ObjectID, field string,
) (*float64, error) {
	cur, err := s.db.Collection(coll).Aggregate(ctx, mongodrv.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: storage.FieldBootcamp, Value: bootcampID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$" + field}}},
		}}},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cur.Close(ctx)

	var res []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &res); err != nil {
		return nil, errors.Trace(err)
	}

	if len(res) == 0 {
		return nil, nil
	}

	return &res[0].Avg, nil
}
