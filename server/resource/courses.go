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

// CourseFilterFields lists the fields courses can be filtered by.
var CourseFilterFields = []string{
	storage.FieldWeeks,
	storage.FieldTuition,
	storage.FieldMinimumSkill,
	storage.FieldScholarshipAvailable,
	storage.FieldUser,
	storage.FieldBootcamp,
}

// Course is a course as returned to clients.
type Course struct {
	ID                   string               `json:"id"`
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	Weeks                int                  `json:"weeks"`
	Tuition              float64              `json:"tuition"`
	MinimumSkill         storage.MinimumSkill `json:"minimumSkill"`
	ScholarshipAvailable bool                 `json:"scholarshipAvailable"`
	// Either the bootcamp id, or *BootcampRef when expanded.
	Bootcamp  interface{} `json:"bootcamp"`
	User      string      `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CourseInput holds the caller-supplied course fields. On update, nil fields
// are left unchanged. Bootcamp and user can't be given: they come from the
// URL and the caller.
type CourseInput struct {
	Title                *string               `json:"title" validate:"required,min=1,max=100"`
	Description          *string               `json:"description" validate:"required,min=1"`
	Weeks                *int                  `json:"weeks" validate:"required,min=1"`
	Tuition              *float64              `json:"tuition" validate:"required,min=0"`
	MinimumSkill         *storage.MinimumSkill `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool                 `json:"scholarshipAvailable" validate:"required"`
}

// mergeInto overwrites fields of dst with the non-nil fields of in.
func (in *CourseInput) mergeInto(dst *CourseInput) {
	if in.Title != nil {
		dst.Title = trimmed(in.Title)
	}
	if in.Description != nil {
		dst.Description = in.Description
	}
	if in.Weeks != nil {
		dst.Weeks = in.Weeks
	}
	if in.Tuition != nil {
		dst.Tuition = in.Tuition
	}
	if in.MinimumSkill != nil {
		dst.MinimumSkill = in.MinimumSkill
	}
	if in.ScholarshipAvailable != nil {
		dst.ScholarshipAvailable = in.ScholarshipAvailable
	}
}

func courseInputFromData(cd *storage.CourseData) *CourseInput {
	ms := cd.MinimumSkill
	return &CourseInput{
		Title:                cptr.String(cd.Title),
		Description:          cptr.String(cd.Description),
		Weeks:                cptr.Int(cd.Weeks),
		Tuition:              cptr.Float64(cd.Tuition),
		MinimumSkill:         &ms,
		ScholarshipAvailable: cptr.Bool(cd.ScholarshipAvailable),
	}
}

// apply sets the fields of cd from the validated input.
func (in *CourseInput) apply(cd *storage.CourseData) {
	cd.Title = *in.Title
	cd.Description = *in.Description
	cd.Weeks = *in.Weeks
	cd.Tuition = *in.Tuition
	cd.MinimumSkill = *in.MinimumSkill
	cd.ScholarshipAvailable = *in.ScholarshipAvailable
}

func makeCourse(cd *storage.CourseData) Course {
	return Course{
		ID:                   cd.ID,
		Title:                cd.Title,
		Description:          cd.Description,
		Weeks:                cd.Weeks,
		Tuition:              cd.Tuition,
		MinimumSkill:         cd.MinimumSkill,
		ScholarshipAvailable: cd.ScholarshipAvailable,
		Bootcamp:             cd.BootcampID,
		User:                 cd.OwnerID,
		CreatedAt:            cd.CreatedAt,
	}
}

type Courses struct {
	si       storage.Storage
	validate *validator.Validate
}

func NewCourses(si storage.Storage) *Courses {
	return &Courses{
		si:       si,
		validate: newValidator(),
	}
}

// List returns all courses of the bootcamp, oldest first.
func (c *Courses) List(ctx context.Context, bootcampID string) ([]Course, error) {
	cds, err := c.si.GetCourses(ctx, storage.ByBootcamp(bootcampID))
	if err != nil {
		return nil, errors.Trace(err)
	}

	ret := make([]Course, 0, len(cds))
	for i := range cds {
		ret = append(ret, makeCourse(&cds[i]))
	}

	return ret, nil
}

// Page returns a page of courses selected by the query.
func (c *Courses) Page(ctx context.Context, q *PageQuery) (*hh.Envelope, error) {
	return runPage(ctx, q, c.si.CountCourses, func(opts *storage.ListOpts) (interface{}, int, error) {
		cds, err := c.si.GetCourses(ctx, opts)
		if err != nil {
			return nil, 0, errors.Trace(err)
		}

		ret := make([]Course, 0, len(cds))
		for i := range cds {
			ret = append(ret, makeCourse(&cds[i]))
		}
		return ret, len(ret), nil
	})
}

// Get returns the course with its bootcamp expanded.
func (c *Courses) Get(ctx context.Context, courseID string) (*Course, error) {
	cd, err := c.getCourseData(ctx, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	bd, err := c.si.GetBootcamp(ctx, cd.BootcampID)
	if err != nil {
		if errors.Cause(err) == storage.ErrBootcampDoesNotExist {
			return nil, hh.MakeNotFoundErrorf("Course not found with id %s", courseID)
		}
		return nil, errors.Trace(err)
	}

	course := makeCourse(cd)
	course.Bootcamp = &BootcampRef{
		ID:          bd.ID,
		Name:        bd.Name,
		Description: bd.Description,
	}

	return &course, nil
}

// Add creates a course in the bootcamp. Only the bootcamp owner or an admin
// can do that; the caller becomes the owner of the course.
func (c *Courses) Add(
	ctx context.Context, bootcampID string, in *CourseInput, caller *storage.UserData,
) (*Course, error) {
	bd, err := getBootcamp(ctx, c.si, bootcampID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if !CanMutate(bd.OwnerID, caller) {
		return nil, hh.MakeUnauthorizedErrorf(
			"User %s is not authorized to add a course to bootcamp %s",
			callerID(caller), bootcampID,
		)
	}

	merged := &CourseInput{ScholarshipAvailable: cptr.Bool(false)}
	in.mergeInto(merged)
	if err := validateStruct(c.validate, merged); err != nil {
		return nil, errors.Trace(err)
	}

	cd := &storage.CourseData{
		BootcampID: bootcampID,
		OwnerID:    caller.ID,
	}
	merged.apply(cd)

	cd.ID, err = c.si.CreateCourse(ctx, cd)
	if err != nil {
		if errors.Cause(err) == storage.ErrBootcampDoesNotExist {
			return nil, hh.MakeNotFoundErrorf("Bootcamp not found with id %s", bootcampID)
		}
		return nil, errors.Trace(err)
	}

	updateBootcampStats(ctx, c.si, bootcampID)

	return c.reload(ctx, cd.ID)
}

// Update applies the non-nil fields of in to the course, and returns the
// updated course.
func (c *Courses) Update(
	ctx context.Context, courseID string, in *CourseInput, caller *storage.UserData,
) (*Course, error) {
	cd, err := c.getCourseData(ctx, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if !CanMutate(cd.OwnerID, caller) {
		return nil, hh.MakeUnauthorizedErrorf(
			"User %s is not authorized to update course %s",
			callerID(caller), courseID,
		)
	}

	merged := courseInputFromData(cd)
	in.mergeInto(merged)
	if err := validateStruct(c.validate, merged); err != nil {
		return nil, errors.Trace(err)
	}
	merged.apply(cd)

	if err := c.si.UpdateCourse(ctx, cd); err != nil {
		return nil, errors.Trace(c.mapNotFound(err, courseID))
	}

	if in.Tuition != nil {
		updateBootcampStats(ctx, c.si, cd.BootcampID)
	}

	return c.reload(ctx, courseID)
}

func (c *Courses) Remove(
	ctx context.Context, courseID string, caller *storage.UserData,
) error {
	cd, err := c.getCourseData(ctx, courseID)
	if err != nil {
		return errors.Trace(err)
	}

	if !CanMutate(cd.OwnerID, caller) {
		return hh.MakeUnauthorizedErrorf(
			"User %s is not authorized to delete course %s",
			callerID(caller), courseID,
		)
	}

	if err := c.si.DeleteCourse(ctx, courseID); err != nil {
		return errors.Trace(c.mapNotFound(err, courseID))
	}

	updateBootcampStats(ctx, c.si, cd.BootcampID)

	return nil
}

func (c *Courses) getCourseData(
	ctx context.Context, courseID string,
) (*storage.CourseData, error) {
	cd, err := c.si.GetCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Trace(c.mapNotFound(err, courseID))
	}
	return cd, nil
}

func (c *Courses) reload(ctx context.Context, courseID string) (*Course, error) {
	cd, err := c.getCourseData(ctx, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	course := makeCourse(cd)
	return &course, nil
}

func (c *Courses) mapNotFound(err error, courseID string) error {
	if errors.Cause(err) == storage.ErrCourseDoesNotExist {
		return hh.MakeNotFoundErrorf("Course not found with id %s", courseID)
	}
	return err
}

func callerID(caller *storage.UserData) string {
	if caller == nil {
		return "(anonymous)"
	}
	return caller.ID
}
