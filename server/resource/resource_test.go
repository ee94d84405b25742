// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package resource

import (
	"context"
	"testing"

	"devcamper.io/devcamper/server/cptr"
	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"
	"devcamper.io/devcamper/server/storage/memory"
	"devcamper.io/devcamper/server/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	si *memory.StorageMemory

	owner     *storage.UserData
	other     *storage.UserData
	admin     *storage.UserData
	reviewer  *storage.UserData
	bootcamp1 string
}

func mkUser(t *testing.T, si storage.Storage, username string, role storage.Role) *storage.UserData {
	userID, _, err := testutils.CreateTestUser(t, si, username, role)
	require.NoError(t, err)

	return &storage.UserData{ID: userID, Username: username, Role: role}
}

func prepareEnv(t *testing.T) *testEnv {
	si := memory.New()
	require.NoError(t, testutils.PrepareTestDB(t, si))

	env := &testEnv{
		si:       si,
		owner:    mkUser(t, si, "alice", storage.RolePublisher),
		other:    mkUser(t, si, "carol", storage.RolePublisher),
		admin:    mkUser(t, si, "root", storage.RoleAdmin),
		reviewer: mkUser(t, si, "rob", storage.RoleUser),
	}

	var err error
	env.bootcamp1, err = testutils.CreateTestBootcamp(t, si, env.owner.ID, "Devworks")
	require.NoError(t, err)

	return env
}

func courseInput(title string, tuition float64) *CourseInput {
	ms := storage.MinimumSkillBeginner
	return &CourseInput{
		Title:        cptr.String(title),
		Description:  cptr.String("Learn " + title),
		Weeks:        cptr.Int(8),
		Tuition:      cptr.Float64(tuition),
		MinimumSkill: &ms,
	}
}

func TestCanMutate(t *testing.T) {
	owner := &storage.UserData{ID: "1", Role: storage.RolePublisher}
	other := &storage.UserData{ID: "2", Role: storage.RolePublisher}
	admin := &storage.UserData{ID: "3", Role: storage.RoleAdmin}
	user := &storage.UserData{ID: "4", Role: storage.RoleUser}

	testCases := []struct {
		name   string
		caller *storage.UserData
		want   bool
	}{
		{"owner", owner, true},
		{"other publisher", other, false},
		{"admin", admin, true},
		{"plain user", user, false},
		{"anonymous", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanMutate("1", tc.caller))
		})
	}
}

func TestCourseLifecycle(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	courses := NewCourses(env.si)

	course, err := courses.Add(ctx, env.bootcamp1, courseInput("Go basics", 8000), env.owner)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", course.Title)
	assert.Equal(t, env.bootcamp1, course.Bootcamp)
	assert.Equal(t, env.owner.ID, course.User)
	assert.False(t, course.ScholarshipAvailable)

	// Other publisher can neither add to the bootcamp, nor change the course
	_, err = courses.Add(ctx, env.bootcamp1, courseInput("Intruder", 1), env.other)
	require.Error(t, err)
	assert.True(t, hh.IsUnauthorized(err))
	assert.Equal(t,
		"User "+env.other.ID+" is not authorized to add a course to bootcamp "+env.bootcamp1,
		err.Error(),
	)

	_, err = courses.Update(ctx, course.ID, &CourseInput{Title: cptr.String("Hacked")}, env.other)
	require.Error(t, err)
	assert.True(t, hh.IsUnauthorized(err))

	err = courses.Remove(ctx, course.ID, env.other)
	require.Error(t, err)
	assert.True(t, hh.IsUnauthorized(err))

	// Admin can change it, and only the given fields change
	updated, err := courses.Update(ctx, course.ID, &CourseInput{Title: cptr.String("  Go advanced ")}, env.admin)
	require.NoError(t, err)
	assert.Equal(t, "Go advanced", updated.Title)
	assert.Equal(t, 8, updated.Weeks)
	assert.Equal(t, env.owner.ID, updated.User)

	// Single course has its bootcamp expanded
	got, err := courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, &BootcampRef{
		ID:          env.bootcamp1,
		Name:        "Devworks",
		Description: "Description of Devworks",
	}, got.Bootcamp)

	list, err := courses.List(ctx, env.bootcamp1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, course.ID, list[0].ID)

	require.NoError(t, courses.Remove(ctx, course.ID, env.owner))

	_, err = courses.Get(ctx, course.ID)
	require.Error(t, err)
	assert.True(t, hh.IsNotFound(err))
	assert.Equal(t, "Course not found with id "+course.ID, err.Error())

	err = courses.Remove(ctx, course.ID, env.owner)
	assert.True(t, hh.IsNotFound(err))
}

func TestCourseAddToMissingBootcamp(t *testing.T) {
	env := prepareEnv(t)
	courses := NewCourses(env.si)

	_, err := courses.Add(context.Background(), "nope", courseInput("Go", 1), env.admin)
	require.Error(t, err)
	assert.True(t, hh.IsNotFound(err))
	assert.Equal(t, "Bootcamp not found with id nope", err.Error())
}

func TestCourseValidation(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	courses := NewCourses(env.si)

	in := courseInput("Go", 100)
	in.Weeks = nil
	_, err := courses.Add(ctx, env.bootcamp1, in, env.owner)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
	assert.Contains(t, err.Error(), "weeks is required")

	bad := storage.MinimumSkill("guru")
	in = courseInput("Go", 100)
	in.MinimumSkill = &bad
	_, err = courses.Add(ctx, env.bootcamp1, in, env.owner)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
	assert.Contains(t, err.Error(), "minimumSkill must be one of: beginner, intermediate, advanced")

	course, err := courses.Add(ctx, env.bootcamp1, courseInput("Go", 100), env.owner)
	require.NoError(t, err)

	_, err = courses.Update(ctx, course.ID, &CourseInput{Title: cptr.String("   ")}, env.owner)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
	assert.Contains(t, err.Error(), "title can't be empty")

	_, err = courses.Update(ctx, course.ID, &CourseInput{Tuition: cptr.Float64(-1)}, env.owner)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
}

func TestAverageCost(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	courses := NewCourses(env.si)

	c1, err := courses.Add(ctx, env.bootcamp1, courseInput("One", 1000), env.owner)
	require.NoError(t, err)
	_, err = courses.Add(ctx, env.bootcamp1, courseInput("Two", 3000), env.owner)
	require.NoError(t, err)

	bd, err := env.si.GetBootcamp(ctx, env.bootcamp1)
	require.NoError(t, err)
	require.NotNil(t, bd.AverageCost)
	assert.InDelta(t, 2000, *bd.AverageCost, 0.001)

	_, err = courses.Update(ctx, c1.ID, &CourseInput{Tuition: cptr.Float64(5000)}, env.owner)
	require.NoError(t, err)

	bd, err = env.si.GetBootcamp(ctx, env.bootcamp1)
	require.NoError(t, err)
	assert.InDelta(t, 4000, *bd.AverageCost, 0.001)
}

func TestReviewLifecycle(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	reviews := NewReviews(env.si)

	in := &ReviewInput{
		Title:  cptr.String("Great"),
		Text:   cptr.String("Learned a lot"),
		Rating: cptr.Int(9),
	}

	review, err := reviews.Add(ctx, env.bootcamp1, in, env.reviewer)
	require.NoError(t, err)
	assert.Equal(t, env.reviewer.ID, review.User)
	assert.Equal(t, 9, review.Rating)

	_, err = reviews.Add(ctx, env.bootcamp1, in, env.reviewer)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
	assert.Equal(t,
		"User "+env.reviewer.ID+" has already reviewed bootcamp "+env.bootcamp1,
		err.Error(),
	)

	bd, err := env.si.GetBootcamp(ctx, env.bootcamp1)
	require.NoError(t, err)
	require.NotNil(t, bd.AverageRating)
	assert.InDelta(t, 9, *bd.AverageRating, 0.001)

	_, err = reviews.Update(ctx, review.ID, &ReviewInput{Rating: cptr.Int(2)}, env.owner)
	require.Error(t, err)
	assert.True(t, hh.IsUnauthorized(err))

	updated, err := reviews.Update(ctx, review.ID, &ReviewInput{Rating: cptr.Int(5)}, env.reviewer)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "Great", updated.Title)

	require.NoError(t, reviews.Remove(ctx, review.ID, env.admin))

	_, err = reviews.Get(ctx, review.ID)
	require.Error(t, err)
	assert.True(t, hh.IsNotFound(err))
	assert.Equal(t, "No review with id "+review.ID, err.Error())

	bd, err = env.si.GetBootcamp(ctx, env.bootcamp1)
	require.NoError(t, err)
	assert.Nil(t, bd.AverageRating)
}

func TestReviewValidation(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	reviews := NewReviews(env.si)

	_, err := reviews.Add(ctx, env.bootcamp1, &ReviewInput{
		Title:  cptr.String("Too good"),
		Text:   cptr.String("Really"),
		Rating: cptr.Int(11),
	}, env.reviewer)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
	assert.Contains(t, err.Error(), "rating must be at most 10")

	_, err = reviews.Add(ctx, env.bootcamp1, &ReviewInput{Rating: cptr.Int(3)}, nil)
	require.Error(t, err)
	assert.True(t, hh.IsUnauthorized(err))

	_, err = reviews.Add(ctx, "nope", &ReviewInput{Rating: cptr.Int(3)}, env.reviewer)
	require.Error(t, err)
	assert.True(t, hh.IsNotFound(err))
}
