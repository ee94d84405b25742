// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// Package storagetest contains tests which every storage.Storage
// implementation should pass.
package storagetest // import "devcamper.io/devcamper/server/storage/storagetest"

import (
	"context"
	"fmt"
	"testing"
	"time"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run runs all storage tests. newStorage should return a connected storage
// with migrations applied and no data.
func Run(t *testing.T, newStorage func(t *testing.T) storage.Storage) {
	tests := []struct {
		name string
		f    func(t *testing.T, si storage.Storage)
	}{
		{"Users", testUsers},
		{"Bootcamps", testBootcamps},
		{"Courses", testCourses},
		{"CoursesList", testCoursesList},
		{"Reviews", testReviews},
		{"Stats", testStats},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.f(t, newStorage(t))
		})
	}
}

func requireCause(t *testing.T, want, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, errors.Cause(err), "error: %s", errors.ErrorStack(err))
}

func mkUser(t *testing.T, si storage.Storage, username string, role storage.Role) string {
	userID, err := si.CreateUser(context.Background(), &storage.UserData{
		Username: username,
		Email:    username + "@devcamper.test",
		Role:     role,
	})
	require.NoError(t, err)
	return userID
}

func mkBootcamp(t *testing.T, si storage.Storage, ownerID, name string) string {
	bootcampID, err := si.CreateBootcamp(context.Background(), &storage.BootcampData{
		OwnerID: ownerID,
		Name:    name,
	})
	require.NoError(t, err)
	return bootcampID
}

func mkCourse(
	t *testing.T, si storage.Storage, bootcampID, ownerID, title string,
	weeks int, tuition float64,
) string {
	courseID, err := si.CreateCourse(context.Background(), &storage.CourseData{
		BootcampID:   bootcampID,
		OwnerID:      ownerID,
		Title:        title,
		Description:  "About " + title,
		Weeks:        weeks,
		Tuition:      tuition,
		MinimumSkill: storage.MinimumSkillIntermediate,
	})
	require.NoError(t, err)
	return courseID
}

func testUsers(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	userID := mkUser(t, si, "alice", storage.RolePublisher)

	ud, err := si.GetUser(ctx, &storage.GetUserArgs{ID: &userID})
	require.NoError(t, err)
	assert.Equal(t, "alice", ud.Username)
	assert.Equal(t, storage.RolePublisher, ud.Role)

	username := "alice"
	ud, err = si.GetUser(ctx, &storage.GetUserArgs{Username: &username})
	require.NoError(t, err)
	assert.Equal(t, userID, ud.ID)

	username = "nobody"
	_, err = si.GetUser(ctx, &storage.GetUserArgs{Username: &username})
	requireCause(t, storage.ErrUserDoesNotExist, err)

	token, err := si.CreateAccessToken(ctx, userID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	ud, err = si.GetUserByAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, ud.ID)

	given, err := si.CreateAccessToken(ctx, userID, "my-token")
	require.NoError(t, err)
	assert.Equal(t, "my-token", given)

	_, err = si.CreateAccessToken(ctx, userID, "my-token")
	requireCause(t, storage.ErrAccessTokenExists, err)

	_, err = si.GetUserByAccessToken(ctx, "no-such-token")
	requireCause(t, storage.ErrUserDoesNotExist, err)
}

func testBootcamps(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	ownerID := mkUser(t, si, "alice", storage.RolePublisher)
	bootcampID := mkBootcamp(t, si, ownerID, "Devworks")

	bd, err := si.GetBootcamp(ctx, bootcampID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, bd.OwnerID)
	assert.Equal(t, "Devworks", bd.Name)
	assert.Nil(t, bd.AverageCost)
	assert.Nil(t, bd.AverageRating)
	assert.WithinDuration(t, time.Now(), bd.CreatedAt, time.Minute)

	_, err = si.GetBootcamp(ctx, "nope")
	requireCause(t, storage.ErrBootcampDoesNotExist, err)
}

func testCourses(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	ownerID := mkUser(t, si, "alice", storage.RolePublisher)
	bootcampID := mkBootcamp(t, si, ownerID, "Devworks")

	courseID := mkCourse(t, si, bootcampID, ownerID, "Go", 8, 9000)

	cd, err := si.GetCourse(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, bootcampID, cd.BootcampID)
	assert.Equal(t, ownerID, cd.OwnerID)
	assert.Equal(t, "Go", cd.Title)
	assert.Equal(t, 8, cd.Weeks)
	assert.Equal(t, 9000.0, cd.Tuition)
	assert.Equal(t, storage.MinimumSkillIntermediate, cd.MinimumSkill)
	assert.False(t, cd.ScholarshipAvailable)

	createdAt := cd.CreatedAt
	cd.Title = "Go advanced"
	cd.ScholarshipAvailable = true
	cd.OwnerID = "somebody-else"
	require.NoError(t, si.UpdateCourse(ctx, cd))

	cd, err = si.GetCourse(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, "Go advanced", cd.Title)
	assert.True(t, cd.ScholarshipAvailable)
	assert.Equal(t, ownerID, cd.OwnerID)
	assert.True(t, createdAt.Equal(cd.CreatedAt))

	_, err = si.CreateCourse(ctx, &storage.CourseData{
		BootcampID:   "nope",
		OwnerID:      ownerID,
		Title:        "Orphan",
		Weeks:        1,
		MinimumSkill: storage.MinimumSkillBeginner,
	})
	requireCause(t, storage.ErrBootcampDoesNotExist, err)

	require.NoError(t, si.DeleteCourse(ctx, courseID))

	_, err = si.GetCourse(ctx, courseID)
	requireCause(t, storage.ErrCourseDoesNotExist, err)

	requireCause(t, storage.ErrCourseDoesNotExist, si.DeleteCourse(ctx, courseID))
	requireCause(t, storage.ErrCourseDoesNotExist, si.UpdateCourse(ctx, cd))
}

func testCoursesList(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	ownerID := mkUser(t, si, "alice", storage.RolePublisher)
	bc1 := mkBootcamp(t, si, ownerID, "One")
	bc2 := mkBootcamp(t, si, ownerID, "Two")

	for i := 1; i <= 4; i++ {
		mkCourse(t, si, bc1, ownerID, fmt.Sprintf("Course %d", i), i*2, float64(i*1000))
	}
	mkCourse(t, si, bc2, ownerID, "Other", 10, 500)

	cds, err := si.GetCourses(ctx, storage.ByBootcamp(bc1))
	require.NoError(t, err)
	require.Len(t, cds, 4)
	for i, cd := range cds {
		assert.Equal(t, fmt.Sprintf("Course %d", i+1), cd.Title, "oldest first")
	}

	cds, err = si.GetCourses(ctx, &storage.ListOpts{
		Filters: []storage.Filter{
			{Field: storage.FieldBootcamp, Op: storage.FilterOpEq, Value: bc1},
			{Field: storage.FieldWeeks, Op: storage.FilterOpGte, Value: 4},
			{Field: storage.FieldTuition, Op: storage.FilterOpLt, Value: 4000.0},
		},
		Sort: []storage.SortField{{Field: storage.FieldTuition, Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, cds, 2)
	assert.Equal(t, "Course 3", cds[0].Title)
	assert.Equal(t, "Course 2", cds[1].Title)

	cds, err = si.GetCourses(ctx, &storage.ListOpts{
		Sort:   []storage.SortField{{Field: storage.FieldTuition}},
		Offset: 1,
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, cds, 2)
	assert.Equal(t, "Course 1", cds[0].Title)
	assert.Equal(t, "Course 2", cds[1].Title)

	cnt, err := si.CountCourses(ctx, []storage.Filter{
		{Field: storage.FieldBootcamp, Op: storage.FilterOpEq, Value: bc1},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cnt)

	cnt, err = si.CountCourses(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cnt)

	_, err = si.GetCourses(ctx, &storage.ListOpts{
		Filters: []storage.Filter{{Field: "secret", Op: storage.FilterOpEq, Value: "x"}},
	})
	require.Error(t, err)

	_, err = si.GetCourses(ctx, &storage.ListOpts{
		Filters: []storage.Filter{{Field: storage.FieldWeeks, Op: storage.FilterOpEq, Value: "4"}},
	})
	require.Error(t, err)
}

func testReviews(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	ownerID := mkUser(t, si, "alice", storage.RolePublisher)
	reviewerID := mkUser(t, si, "rob", storage.RoleUser)
	bootcampID := mkBootcamp(t, si, ownerID, "Devworks")

	rd := &storage.ReviewData{
		BootcampID: bootcampID,
		OwnerID:    reviewerID,
		Title:      "Nice",
		Text:       "Learned a lot",
		Rating:     7,
	}
	reviewID, err := si.CreateReview(ctx, rd)
	require.NoError(t, err)

	_, err = si.CreateReview(ctx, rd)
	requireCause(t, storage.ErrReviewAlreadyExists, err)

	// Another user can review the same bootcamp
	_, err = si.CreateReview(ctx, &storage.ReviewData{
		BootcampID: bootcampID,
		OwnerID:    ownerID,
		Title:      "Mine",
		Text:       "Best ever",
		Rating:     10,
	})
	require.NoError(t, err)

	got, err := si.GetReview(ctx, reviewID)
	require.NoError(t, err)
	assert.Equal(t, reviewerID, got.OwnerID)
	assert.Equal(t, 7, got.Rating)

	got.Rating = 3
	require.NoError(t, si.UpdateReview(ctx, got))

	rds, err := si.GetReviews(ctx, &storage.ListOpts{
		Filters: []storage.Filter{
			{Field: storage.FieldBootcamp, Op: storage.FilterOpEq, Value: bootcampID},
		},
		Sort: []storage.SortField{{Field: storage.FieldRating}},
	})
	require.NoError(t, err)
	require.Len(t, rds, 2)
	assert.Equal(t, 3, rds[0].Rating)
	assert.Equal(t, 10, rds[1].Rating)

	cnt, err := si.CountReviews(ctx, []storage.Filter{
		{Field: storage.FieldUser, Op: storage.FilterOpEq, Value: reviewerID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	_, err = si.CreateReview(ctx, &storage.ReviewData{
		BootcampID: "nope",
		OwnerID:    reviewerID,
		Title:      "Orphan",
		Text:       "Orphan",
		Rating:     1,
	})
	requireCause(t, storage.ErrBootcampDoesNotExist, err)

	require.NoError(t, si.DeleteReview(ctx, reviewID))
	_, err = si.GetReview(ctx, reviewID)
	requireCause(t, storage.ErrReviewDoesNotExist, err)
	requireCause(t, storage.ErrReviewDoesNotExist, si.DeleteReview(ctx, reviewID))
}

func testStats(t *testing.T, si storage.Storage) {
	ctx := context.Background()

	ownerID := mkUser(t, si, "alice", storage.RolePublisher)
	reviewerID := mkUser(t, si, "rob", storage.RoleUser)
	bootcampID := mkBootcamp(t, si, ownerID, "Devworks")

	mkCourse(t, si, bootcampID, ownerID, "One", 4, 1000)
	courseID := mkCourse(t, si, bootcampID, ownerID, "Two", 4, 2000)

	_, err := si.CreateReview(ctx, &storage.ReviewData{
		BootcampID: bootcampID,
		OwnerID:    reviewerID,
		Title:      "Ok",
		Text:       "Ok",
		Rating:     6,
	})
	require.NoError(t, err)

	require.NoError(t, si.UpdateBootcampStats(ctx, bootcampID))

	bd, err := si.GetBootcamp(ctx, bootcampID)
	require.NoError(t, err)
	require.NotNil(t, bd.AverageCost)
	require.NotNil(t, bd.AverageRating)
	assert.InDelta(t, 1500, *bd.AverageCost, 0.001)
	assert.InDelta(t, 6, *bd.AverageRating, 0.001)

	require.NoError(t, si.DeleteCourse(ctx, courseID))
	require.NoError(t, si.UpdateBootcampStats(ctx, bootcampID))

	bd, err = si.GetBootcamp(ctx, bootcampID)
	require.NoError(t, err)
	assert.InDelta(t, 1000, *bd.AverageCost, 0.001)

	requireCause(t, storage.ErrBootcampDoesNotExist, si.UpdateBootcampStats(ctx, "nope"))

	require.NoError(t, si.CheckIntegrity(ctx))

	// Courses added without updating stats make them stale
	mkCourse(t, si, bootcampID, ownerID, "Three", 4, 4000)

	err = si.CheckIntegrity(ctx)
	require.Error(t, err)
	ierr, ok := err.(*storage.IntegrityError)
	require.True(t, ok, "error: %s", err)
	require.Len(t, ierr.Mismatches, 1)
	assert.Equal(t, bootcampID, ierr.Mismatches[0].BootcampID)
	assert.Equal(t, "averageCost", ierr.Mismatches[0].Field)
	assert.InDelta(t, 2500, *ierr.Mismatches[0].Actual, 0.001)
}
