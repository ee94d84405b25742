// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package httphelper

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimonomid/interrors"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "not found",
			err:     errors.Trace(MakeNotFoundErrorf("Course not found with id %s", "1")),
			status:  http.StatusNotFound,
			message: "Course not found with id 1",
		},
		{
			name:    "unauthorized",
			err:     MakeUnauthorizedErrorf("User %s is not authorized", "2"),
			status:  http.StatusUnauthorized,
			message: "User 2 is not authorized",
		},
		{
			name:    "bare unauthorized",
			err:     MakeUnauthorizedError(),
			status:  http.StatusUnauthorized,
			message: "unauthorized",
		},
		{
			name:    "bad request from error",
			err:     MakeBadRequestError(errors.Errorf("weeks is invalid")),
			status:  http.StatusBadRequest,
			message: "weeks is invalid",
		},
		{
			name:    "internal",
			err:     MakeInternalServerError(errors.Errorf("db is on fire")),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
		{
			name:   "unknown error",
			err:    errors.Errorf("something"),
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, GetHTTPErrorCode(tc.err))

			es := GetErrorStruct(tc.err)
			assert.False(t, es.Success)
			assert.Equal(t, tc.status, es.Status)
			if tc.message != "" {
				assert.Equal(t, tc.message, es.Message)
			}
		})
	}
}

func TestInternalErrorIsNotRewrapped(t *testing.T) {
	err := MakeInternalServerError(errors.Errorf("private"))
	err = MakeInternalServerError(errors.Trace(err))

	assert.True(t, IsInternalServerError(err))
	assert.Equal(t, "internal server error", err.Error())
	assert.Contains(t, interrors.ErrorStack(err), "private")
}

func TestAPIHandler(t *testing.T) {
	handler := MakeAPIHandler(func(r *http.Request) (interface{}, error) {
		switch r.URL.Path {
		case "/created":
			return WithStatus(http.StatusCreated, MakeResp(map[string]string{"id": "1"})), nil
		case "/list":
			return MakeListResp([]int{1, 2}, 2), nil
		case "/empty":
			return MakeEmptyResp(), nil
		}
		return nil, MakeNotFoundErrorf("No such thing")
	})

	testCases := []struct {
		path   string
		status int
		body   string
	}{
		{"/created", http.StatusCreated, `{"success": true, "data": {"id": "1"}}`},
		{"/list", http.StatusOK, `{"success": true, "count": 2, "data": [1, 2]}`},
		{"/empty", http.StatusOK, `{"success": true, "data": {}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest("GET", tc.path, nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}

	// Errors are rendered according to the desired content type
	jsonHandler := MakeDesiredContentTypeMiddleware("application/json")(http.HandlerFunc(handler))
	w := httptest.NewRecorder()
	jsonHandler.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, ErrorResponse{
		Success: false,
		Status:  http.StatusNotFound,
		Message: "No such thing",
	}, errResp)

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Error: No such thing", w.Body.String())
}
