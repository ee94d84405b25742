// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/glog"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	cases := []struct {
		code  int
		color string
	}{
		{101, green},
		{200, green},
		{204, green},
		{302, white},
		{401, yellow},
		{404, yellow},
		{500, red},
		{503, red},
	}

	for _, c := range cases {
		color, logf := statusClass(c.code)
		assert.Equal(t, c.color, color, "code %d", c.code)
		assert.NotNil(t, logf)
	}

	assert.Equal(t, blue, methodColor(http.MethodGet))
	assert.Equal(t, reset, methodColor("BREW"))
}

func TestLoggerRequestID(t *testing.T) {
	defer glog.Flush()

	var gotID string
	h := MakeLogger()(MkMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	// Incoming id is kept
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/courses?page=2", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "abc-123", gotID)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	// Missing id is generated
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, gotID)
	assert.NotEqual(t, "abc-123", gotID)
	assert.Equal(t, gotID, w.Header().Get(RequestIDHeader))
}

func TestRWWrapperStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &RWWrapper{ResponseWriter: rec}

	rw.Write([]byte("hi"))
	assert.Equal(t, http.StatusOK, rw.status)

	// Hijack isn't supported by the recorder
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	h := MakeCORS([]string{"https://devcamper.io"})(MkMiddleware(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
	r.Header.Set("Origin", "https://devcamper.io")
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	h.ServeHTTP(w, r)

	assert.Equal(t, "https://devcamper.io", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	r.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(w, r)

	assert.Equal(t, "", w.Header().Get("Access-Control-Allow-Origin"))
}
