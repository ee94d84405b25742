// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"goji.io/pat"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseWebSocketRequest(t *testing.T, data string) *WebSocketRequest {
	decoder := json.NewDecoder(bytes.NewReader([]byte(data)))
	decoder.UseNumber()

	var wsr WebSocketRequest
	require.NoError(t, decoder.Decode(&wsr))
	return &wsr
}

func TestFromWebSocketRequest(t *testing.T) {
	wsr := parseWebSocketRequest(t, `
	{
		"id": 7,
		"method": "PUT",
		"path": "/courses/123",
		"values": {
			"name1": "single",
			"name2": ["first", "second"],
			"name3": 20,
			"name4": 20.2,
			"name5": ["first", 3, 7.3],
			"name6": true
		},
		"body": {
			"title": "Go",
			"weeks": 4
		}
	}
	`)

	caller := &storage.UserData{ID: "42"}

	dcr, err := makeDCRequestFromWebSocketRequest(context.Background(), wsr, caller)
	require.NoError(t, err)

	assert.Equal(t, "PUT", dcr.HTTPReq.Method)
	assert.Equal(t, caller, dcr.Caller)

	assert.Equal(t, []string{"single"}, dcr.Values["name1"])
	assert.Equal(t, []string{"first", "second"}, dcr.Values["name2"])
	assert.Equal(t, []string{"20"}, dcr.Values["name3"])
	assert.Equal(t, []string{"20.2"}, dcr.Values["name4"])
	assert.Equal(t, []string{"first", "3", "7.3"}, dcr.Values["name5"])
	assert.Equal(t, "true", dcr.FormValue("name6"))

	body, err := ioutil.ReadAll(dcr.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Go", "weeks": 4}`, string(body))

	// Patterns match the request path just like on the HTTP mux
	r := pat.Put("/courses/:" + ResourceID).Match(dcr.HTTPReq)
	require.NotNil(t, r)
	assert.Equal(t, "123", pat.Param(r, ResourceID))
}

func TestFromWebSocketRequestInvalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"no method", `{"path": "/courses"}`},
		{"relative path", `{"method": "GET", "path": "courses"}`},
		{"object value", `{"method": "GET", "path": "/courses", "values": {"a": {"b": 1}}}`},
		{"nested array", `{"method": "GET", "path": "/courses", "values": {"a": [[1]]}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wsr := parseWebSocketRequest(t, tc.data)
			_, err := makeDCRequestFromWebSocketRequest(context.Background(), wsr, nil)
			require.Error(t, err)
			assert.True(t, hh.IsBadRequest(err), "error: %s", err)
		})
	}
}

func TestFromHTTPRequest(t *testing.T) {
	req := httptest.NewRequest(
		"POST", "/bootcamps/1/courses?a=1&a=2", bytes.NewReader([]byte(`{"title": "Go"}`)),
	)

	dcr, err := makeDCRequestFromHTTPRequest(req)
	require.NoError(t, err)
	assert.Nil(t, dcr.Caller)
	assert.Equal(t, []string{"1", "2"}, dcr.Values["a"])

	var in struct {
		Title string `json:"title"`
	}
	require.NoError(t, dcr.decodeBody(&in))
	assert.Equal(t, "Go", in.Title)
}

func TestDecodeBody(t *testing.T) {
	dcr := &DCRequest{Body: ioutil.NopCloser(bytes.NewReader(nil))}
	var v map[string]interface{}
	require.NoError(t, dcr.decodeBody(&v))
	assert.Nil(t, v)

	dcr = &DCRequest{Body: ioutil.NopCloser(bytes.NewReader([]byte(`{"title":`)))}
	err := dcr.decodeBody(&v)
	require.Error(t, err)
	assert.True(t, hh.IsBadRequest(err))
}
