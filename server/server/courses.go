// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/resource"

	"github.com/juju/errors"
)

// GET /courses: either all courses of the bootcamp given as a "bootcampId"
// query param, or a page of all courses.
func (dc *DCServer) coursesGet(dcr *DCRequest) (resp interface{}, err error) {
	if bootcampID := dcr.FormValue(BootcampID); bootcampID != "" {
		return dc.listCourses(dcr, bootcampID)
	}

	if dcr.Page == nil {
		return nil, hh.MakeInternalServerError(errors.Errorf("page query is missing"))
	}

	env, err := dc.courses.Page(dcr.Context(), dcr.Page)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return env, nil
}

func (dc *DCServer) bootcampCoursesGet(dcr *DCRequest) (resp interface{}, err error) {
	return dc.listCourses(dcr, pat.Param(dcr.HTTPReq, BootcampID))
}

func (dc *DCServer) listCourses(dcr *DCRequest, bootcampID string) (interface{}, error) {
	courses, err := dc.courses.List(dcr.Context(), bootcampID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeListResp(courses, len(courses)), nil
}

func (dc *DCServer) courseGet(dcr *DCRequest) (resp interface{}, err error) {
	course, err := dc.courses.Get(dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID))
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeResp(course), nil
}

func (dc *DCServer) coursePost(dcr *DCRequest) (resp interface{}, err error) {
	var in resource.CourseInput
	if err := dcr.decodeBody(&in); err != nil {
		return nil, errors.Trace(err)
	}

	course, err := dc.courses.Add(
		dcr.Context(), pat.Param(dcr.HTTPReq, BootcampID), &in, dcr.Caller,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeResp(course), nil
}

func (dc *DCServer) coursePut(dcr *DCRequest) (resp interface{}, err error) {
	var in resource.CourseInput
	if err := dcr.decodeBody(&in); err != nil {
		return nil, errors.Trace(err)
	}

	course, err := dc.courses.Update(
		dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID), &in, dcr.Caller,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeResp(course), nil
}

func (dc *DCServer) courseDelete(dcr *DCRequest) (resp interface{}, err error) {
	err = dc.courses.Remove(dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID), dcr.Caller)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeEmptyResp(), nil
}
