// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package memory

import (
	"context"

	"devcamper.io/devcamper/server/storage"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

func (s *StorageMemory) CreateCourse(
	ctx context.Context, cd *storage.CourseData,
) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.bootcamps[cd.BootcampID]; !ok {
		return "", errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	rec := &courseRec{CourseData: *cd, seq: s.nextSeq()}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	s.courses[rec.ID] = rec

	return rec.ID, nil
}

func (s *StorageMemory) GetCourse(
	ctx context.Context, courseID string,
) (*storage.CourseData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.courses[courseID]
	if !ok {
		return nil, errors.Trace(storage.ErrCourseDoesNotExist)
	}

	ret := rec.CourseData
	return &ret, nil
}

func (s *StorageMemory) GetCourses(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.CourseData, error) {
	if err := storage.ValidateListOpts(opts, storage.CourseFields); err != nil {
		return nil, errors.Trace(err)
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched, err := s.matchCourses(opts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	items := make([]sortable, len(matched))
	for i, rec := range matched {
		items[i] = sortable{get: courseField(&rec.CourseData), seq: rec.seq}
	}

	ret := []storage.CourseData{}
	for _, i := range sortAndPage(items, opts) {
		ret = append(ret, matched[i].CourseData)
	}

	return ret, nil
}

func (s *StorageMemory) CountCourses(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.CourseFields); err != nil {
		return 0, errors.Trace(err)
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched, err := s.matchCourses(&storage.ListOpts{Filters: filters})
	if err != nil {
		return 0, errors.Trace(err)
	}

	return len(matched), nil
}

// Must be called with s.mtx held.
func (s *StorageMemory) matchCourses(opts *storage.ListOpts) ([]*courseRec, error) {
	var filters []storage.Filter
	if opts != nil {
		filters = opts.Filters
	}

	ret := []*courseRec{}
	for _, rec := range s.courses {
		ok, err := matchFilters(courseField(&rec.CourseData), filters)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if ok {
			ret = append(ret, rec)
		}
	}

	return ret, nil
}

func (s *StorageMemory) UpdateCourse(
	ctx context.Context, cd *storage.CourseData,
) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.courses[cd.ID]
	if !ok {
		return errors.Trace(storage.ErrCourseDoesNotExist)
	}

	rec.Title = cd.Title
	rec.Description = cd.Description
	rec.Weeks = cd.Weeks
	rec.Tuition = cd.Tuition
	rec.MinimumSkill = cd.MinimumSkill
	rec.ScholarshipAvailable = cd.ScholarshipAvailable

	return nil
}

func (s *StorageMemory) DeleteCourse(ctx context.Context, courseID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.courses[courseID]; !ok {
		return errors.Trace(storage.ErrCourseDoesNotExist)
	}

	delete(s.courses, courseID)
	return nil
}
