// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package resource

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"testing"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageQueryDefaults(t *testing.T) {
	q, err := ParsePageQuery(url.Values{}, CourseFilterFields, storage.CourseFields)
	require.NoError(t, err)

	assert.Equal(t, &PageQuery{
		Page:  DefaultPage,
		Limit: DefaultLimit,
		Sort:  []storage.SortField{{Field: storage.FieldCreatedAt, Desc: true}},
	}, q)
}

func TestParsePageQuery(t *testing.T) {
	values, err := url.ParseQuery(
		"page=2&limit=10&sort=-tuition,title&weeks[gte]=4&minimumSkill=beginner&scholarshipAvailable=true",
	)
	require.NoError(t, err)

	q, err := ParsePageQuery(values, CourseFilterFields, storage.CourseFields)
	require.NoError(t, err)

	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, []storage.SortField{
		{Field: storage.FieldTuition, Desc: true},
		{Field: storage.FieldTitle},
	}, q.Sort)
	assert.ElementsMatch(t, []storage.Filter{
		{Field: storage.FieldWeeks, Op: storage.FilterOpGte, Value: 4},
		{Field: storage.FieldMinimumSkill, Op: storage.FilterOpEq, Value: "beginner"},
		{Field: storage.FieldScholarshipAvailable, Op: storage.FilterOpEq, Value: true},
	}, q.Filters)
}

func TestParsePageQueryErrors(t *testing.T) {
	testCases := []string{
		"page=0",
		"page=abc",
		"limit=1000",
		"limit=5&limit=6",
		"sort=nosuchfield",
		"sort=,",
		"select=title,weeks",
		"title=Go",
		"weeks[between]=1",
		"weeks[gt=1",
		"weeks=many",
		"scholarshipAvailable[gt]=true",
	}

	for _, tc := range testCases {
		t.Run(tc, func(t *testing.T) {
			values, err := url.ParseQuery(tc)
			require.NoError(t, err)

			_, err = ParsePageQuery(values, CourseFilterFields, storage.CourseFields)
			require.Error(t, err)
			assert.True(t, hh.IsBadRequest(err), "error: %s", err)
		})
	}
}

func TestParsePageQueryHugePage(t *testing.T) {
	// The last page whose offset and limit still fit in an int
	lastPage := (math.MaxInt-100)/100 + 1

	values := url.Values{"limit": {"100"}, "page": {strconv.Itoa(lastPage)}}
	q, err := ParsePageQuery(values, CourseFilterFields, storage.CourseFields)
	require.NoError(t, err)
	assert.Equal(t, lastPage, q.Page)

	values.Set("page", strconv.Itoa(lastPage+1))
	_, err = ParsePageQuery(values, CourseFilterFields, storage.CourseFields)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err), "error: %s", err)

	values, err = url.ParseQuery("limit=100&page=92233720368547759")
	require.NoError(t, err)
	_, err = ParsePageQuery(values, CourseFilterFields, storage.CourseFields)
	assert.True(t, hh.IsBadRequest(err), "error: %v", err)
}

func TestCoursesPage(t *testing.T) {
	env := prepareEnv(t)
	ctx := context.Background()
	courses := NewCourses(env.si)

	for i := 1; i <= 5; i++ {
		_, err := courses.Add(
			ctx, env.bootcamp1, courseInput(fmt.Sprintf("Course %d", i), float64(i*1000)), env.owner,
		)
		require.NoError(t, err)
	}

	q := &PageQuery{
		Page:  1,
		Limit: 2,
		Sort:  []storage.SortField{{Field: storage.FieldTuition}},
	}

	env1, err := courses.Page(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, env1.Count)
	assert.Equal(t, 2, *env1.Count)
	assert.Equal(t, &hh.PageRef{Page: 2, Limit: 2}, env1.Pagination.Next)
	assert.Nil(t, env1.Pagination.Prev)

	page1 := env1.Data.([]Course)
	assert.Equal(t, "Course 1", page1[0].Title)
	assert.Equal(t, "Course 2", page1[1].Title)

	q.Page = 3
	env3, err := courses.Page(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, *env3.Count)
	assert.Nil(t, env3.Pagination.Next)
	assert.Equal(t, &hh.PageRef{Page: 2, Limit: 2}, env3.Pagination.Prev)
	assert.Equal(t, "Course 5", env3.Data.([]Course)[0].Title)

	q = &PageQuery{
		Page:  1,
		Limit: 25,
		Sort:  []storage.SortField{{Field: storage.FieldTuition, Desc: true}},
		Filters: []storage.Filter{
			{Field: storage.FieldTuition, Op: storage.FilterOpGt, Value: 2500.0},
		},
	}
	envF, err := courses.Page(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, *envF.Count)
	assert.Equal(t, "Course 5", envF.Data.([]Course)[0].Title)
}
