// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"net/http"

	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/resource"

	"github.com/juju/errors"
)

func (dc *DCServer) reviewsGet(dcr *DCRequest) (resp interface{}, err error) {
	if bootcampID := dcr.FormValue(BootcampID); bootcampID != "" {
		return dc.listReviews(dcr, bootcampID)
	}

	if dcr.Page == nil {
		return nil, hh.MakeInternalServerError(errors.Errorf("page query is missing"))
	}

	env, err := dc.reviews.Page(dcr.Context(), dcr.Page)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return env, nil
}

func (dc *DCServer) bootcampReviewsGet(dcr *DCRequest) (resp interface{}, err error) {
	return dc.listReviews(dcr, pat.Param(dcr.HTTPReq, BootcampID))
}

func (dc *DCServer) listReviews(dcr *DCRequest, bootcampID string) (interface{}, error) {
	reviews, err := dc.reviews.List(dcr.Context(), bootcampID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeListResp(reviews, len(reviews)), nil
}

func (dc *DCServer) reviewGet(dcr *DCRequest) (resp interface{}, err error) {
	review, err := dc.reviews.Get(dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID))
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeResp(review), nil
}

func (dc *DCServer) reviewPost(dcr *DCRequest) (resp interface{}, err error) {
	var in resource.ReviewInput
	if err := dcr.decodeBody(&in); err != nil {
		return nil, errors.Trace(err)
	}

	review, err := dc.reviews.Add(
		dcr.Context(), pat.Param(dcr.HTTPReq, BootcampID), &in, dcr.Caller,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.WithStatus(http.StatusCreated, hh.MakeResp(review)), nil
}

func (dc *DCServer) reviewPut(dcr *DCRequest) (resp interface{}, err error) {
	var in resource.ReviewInput
	if err := dcr.decodeBody(&in); err != nil {
		return nil, errors.Trace(err)
	}

	review, err := dc.reviews.Update(
		dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID), &in, dcr.Caller,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeResp(review), nil
}

func (dc *DCServer) reviewDelete(dcr *DCRequest) (resp interface{}, err error) {
	err = dc.reviews.Remove(dcr.Context(), pat.Param(dcr.HTTPReq, ResourceID), dcr.Caller)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return hh.MakeEmptyResp(), nil
}
