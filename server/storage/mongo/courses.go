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

func (s *StorageMongo) CreateCourse(
	ctx context.Context, cd *storage.CourseData,
) (string, error) {
	bootcampID, err := parseID(cd.BootcampID, storage.ErrBootcampDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	ownerID, err := parseID(cd.OwnerID, storage.ErrUserDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	if err := s.checkExists(ctx, bootcampsCollection, bootcampID, storage.ErrBootcampDoesNotExist); err != nil {
		return "", errors.Trace(err)
	}

	doc := courseDoc{
		ID:                   primitive.NewObjectID(),
		BootcampID:           bootcampID,
		OwnerID:              ownerID,
		Title:                cd.Title,
		Description:          cd.Description,
		Weeks:                cd.Weeks,
		Tuition:              cd.Tuition,
		MinimumSkill:         cd.MinimumSkill,
		ScholarshipAvailable: cd.ScholarshipAvailable,
		CreatedAt:            now(),
	}

	if _, err := s.db.Collection(coursesCollection).InsertOne(ctx, doc); err != nil {
		return "", hh.MakeInternalServerError(errors.Annotatef(
			err, "adding new course (bootcamp_id: %s)", cd.BootcampID,
		))
	}

	return doc.ID.Hex(), nil
}

func (s *StorageMongo) GetCourse(
	ctx context.Context, courseID string,
) (*storage.CourseData, error) {
	oid, err := parseID(courseID, storage.ErrCourseDoesNotExist)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var doc courseDoc
	err = s.db.Collection(coursesCollection).FindOne(
		ctx, bson.D{{Key: "_id", Value: oid}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, storage.ErrCourseDoesNotExist)
	}

	cd := doc.data()
	return &cd, nil
}

func (s *StorageMongo) GetCourses(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.CourseData, error) {
	if opts == nil {
		opts = &storage.ListOpts{}
	}

	if err := storage.ValidateListOpts(opts, storage.CourseFields); err != nil {
		return nil, errors.Trace(err)
	}

	ret := []storage.CourseData{}

	filter, matchNone, err := buildFilter(opts.Filters)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if matchNone {
		return ret, nil
	}

	cur, err := s.db.Collection(coursesCollection).Find(ctx, filter, buildFindOpts(opts))
	if err != nil {
		return nil, hh.MakeInternalServerError(err)
	}
	defer cur.Close(ctx)

	var docs []courseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, hh.MakeInternalServerError(err)
	}

	for i := range docs {
		ret = append(ret, docs[i].data())
	}

	return ret, nil
}

func (s *StorageMongo) CountCourses(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.CourseFields); err != nil {
		return 0, errors.Trace(err)
	}

	return s.count(ctx, coursesCollection, filters)
}

func (s *StorageMongo) UpdateCourse(
	ctx context.Context, cd *storage.CourseData,
) error {
	oid, err := parseID(cd.ID, storage.ErrCourseDoesNotExist)
	if err != nil {
		return errors.Trace(err)
	}

	res, err := s.db.Collection(coursesCollection).UpdateOne(
		ctx, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: storage.FieldTitle, Value: cd.Title},
			{Key: "description", Value: cd.Description},
			{Key: storage.FieldWeeks, Value: cd.Weeks},
			{Key: storage.FieldTuition, Value: cd.Tuition},
			{Key: storage.FieldMinimumSkill, Value: cd.MinimumSkill},
			{Key: storage.FieldScholarshipAvailable, Value: cd.ScholarshipAvailable},
		}}},
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating course %s", cd.ID,
		))
	}

	if res.MatchedCount == 0 {
		return errors.Trace(storage.ErrCourseDoesNotExist)
	}

	return nil
}

func (s *StorageMongo) DeleteCourse(ctx context.Context, courseID string) error {
	return errors.Trace(s.deleteOne(ctx, coursesCollection, courseID, storage.ErrCourseDoesNotExist))
}

func (s *StorageMongo) count(
	ctx context.Context, coll string, filters []storage.Filter,
) (int, error) {
	filter, matchNone, err := buildFilter(filters)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if matchNone {
		return 0, nil
	}

	n, err := s.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		return 0, hh.MakeInternalServerError(err)
	}

	return int(n), nil
}

func (s *StorageMongo) deleteOne(
	ctx context.Context, coll string, id string, errNotExist error,
) error {
	oid, err := parseID(id, errNotExist)
	if err != nil {
		return errors.Trace(err)
	}

	res, err := s.db.Collection(coll).DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "deleting %s from %s", id, coll,
		))
	}

	if res.DeletedCount == 0 {
		return errors.Trace(errNotExist)
	}

	return nil
}
