// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// This file contains test-specific implementation of some functions.  I'd
// rather name it "server_utils_test.go", but unfortunately it doesn't work: go
// tool complains about undefined symbols (which are actually defined here).

//go:build all_tests || unit_tests || integration_tests

package server

import (
	goji "goji.io"
	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"

	"github.com/juju/errors"
)

// setEndpointsTest sets endpoints which are used by tests only.
func setEndpointsTest(dc *DCServer, mux *goji.Mux) {
	dc.setEndpoint(mux, pat.Get("/test_internal_error"), testInternalError)
}

func testInternalError(dcr *DCRequest) (resp interface{}, err error) {
	errTest := errors.Errorf("some private error")
	errTest = errors.Annotatef(errTest, "private annotation")
	return nil, errors.Annotatef(hh.MakeInternalServerError(errTest), "public annotation")
}
