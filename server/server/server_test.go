// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"
	"devcamper.io/devcamper/server/storage/memory"
	"devcamper.io/devcamper/server/testutils"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/stretchr/testify/require"
)

type H map[string]interface{}

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

// testBackend performs API requests on behalf of the user with the given
// token; an empty token means an anonymous request.
type testBackend interface {
	DoReq(method, path, token string, body interface{}) (*genericResp, error)
	Close()
}

type genericResp struct {
	StatusCode int
	Body       []byte
}

type respEnvelope struct {
	Success    bool            `json:"success"`
	Count      *int            `json:"count"`
	Pagination *hh.Pagination  `json:"pagination"`
	Data       json.RawMessage `json:"data"`

	// Only for errors
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (r *genericResp) envelope(t *testing.T) *respEnvelope {
	var env respEnvelope
	require.NoError(t, json.Unmarshal(r.Body, &env), "body: %s", r.Body)
	return &env
}

type testBackendHTTP struct {
	ts *httptest.Server
}

func (be *testBackendHTTP) DoReq(
	method, path, token string, body interface{},
) (*genericResp, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Trace(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, be.ts.URL+APIPrefix+path, reader)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &genericResp{StatusCode: resp.StatusCode, Body: data}, nil
}

func (be *testBackendHTTP) Close() {}

type wsReq struct {
	ID     int                    `json:"id"`
	Method string                 `json:"method"`
	Path   string                 `json:"path"`
	Values map[string]interface{} `json:"values"`
	Body   interface{}            `json:"body,omitempty"`
}

type wsResp struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// testBackendWS sends requests over one WebSocket connection per token.
// Anonymous requests can't go over WebSocket, so they go over HTTP.
type testBackendWS struct {
	http   *testBackendHTTP
	conns  map[string]*websocket.Conn
	nextID int
}

func (be *testBackendWS) conn(token string) (*websocket.Conn, error) {
	if conn, ok := be.conns[token]; ok {
		return conn, nil
	}

	wsURL := "ws" + strings.TrimPrefix(be.http.ts.URL, "http") + APIPrefix + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return nil, errors.Annotatef(err, "dialing %s", wsURL)
	}

	be.conns[token] = conn
	return conn, nil
}

func (be *testBackendWS) DoReq(
	method, path, token string, body interface{},
) (*genericResp, error) {
	if token == "" {
		return be.http.DoReq(method, path, token, body)
	}

	conn, err := be.conn(token)
	if err != nil {
		return nil, errors.Trace(err)
	}

	u, err := url.Parse(path)
	if err != nil {
		return nil, errors.Trace(err)
	}

	values := map[string]interface{}{}
	for k, vals := range u.Query() {
		arr := []interface{}{}
		for _, v := range vals {
			arr = append(arr, v)
		}
		values[k] = arr
	}

	be.nextID++
	req := wsReq{
		ID:     be.nextID,
		Method: method,
		Path:   u.Path,
		Values: values,
		Body:   body,
	}

	if err := conn.WriteJSON(&req); err != nil {
		return nil, errors.Trace(err)
	}

	var resp wsResp
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, errors.Trace(err)
	}

	if resp.ID != req.ID {
		return nil, errors.Errorf("expected response to %d, got to %d", req.ID, resp.ID)
	}

	return &genericResp{StatusCode: resp.Status, Body: resp.Body}, nil
}

func (be *testBackendWS) Close() {
	for _, conn := range be.conns {
		conn.Close()
	}
}

type testUser struct {
	ID    string
	Token string
}

type testEnv struct {
	si storage.Storage
	be testBackend

	// publisher owns bootcamp1; other is a publisher who owns nothing
	publisher testUser
	other     testUser
	admin     testUser
	user      testUser

	bootcamp1 string
}

func (env *testEnv) do(
	t *testing.T, method, path string, caller testUser, body interface{},
) *genericResp {
	resp, err := env.be.DoReq(method, path, caller.Token, body)
	require.NoError(t, err)
	return resp
}

// expect performs the request and checks the status; for successful
// responses, the data is unmarshaled into dst, if it's not nil.
func (env *testEnv) expect(
	t *testing.T, wantStatus int, method, path string, caller testUser,
	body interface{}, dst interface{},
) *respEnvelope {
	resp := env.do(t, method, path, caller, body)
	require.Equal(t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, resp.Body)

	renv := resp.envelope(t)
	if wantStatus < 300 && dst != nil {
		require.NoError(t, json.Unmarshal(renv.Data, dst))
	}

	return renv
}

func mkTestUser(t *testing.T, si storage.Storage, username string, role storage.Role) testUser {
	userID, token, err := testutils.CreateTestUser(t, si, username, role)
	require.NoError(t, err)
	return testUser{ID: userID, Token: token}
}

func runWithBackends(t *testing.T, f func(t *testing.T, env *testEnv)) {
	for _, useWS := range []bool{false, true} {
		name := "http"
		if useWS {
			name = "ws"
		}

		t.Run(name, func(t *testing.T) {
			env := prepareEnv(t, useWS)
			defer env.be.Close()
			f(t, env)
		})
	}
}

func prepareEnv(t *testing.T, useWS bool) *testEnv {
	si := memory.New()
	require.NoError(t, testutils.PrepareTestDB(t, si))

	dc, err := New(si, nil)
	require.NoError(t, err)

	handler, err := dc.CreateHandler()
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		dc.Close()
		ts.Close()
	})

	httpBE := &testBackendHTTP{ts: ts}

	env := &testEnv{
		si:        si,
		be:        httpBE,
		publisher: mkTestUser(t, si, "alice", storage.RolePublisher),
		other:     mkTestUser(t, si, "carol", storage.RolePublisher),
		admin:     mkTestUser(t, si, "root", storage.RoleAdmin),
		user:      mkTestUser(t, si, "rob", storage.RoleUser),
	}

	if useWS {
		env.be = &testBackendWS{
			http:  httpBE,
			conns: map[string]*websocket.Conn{},
		}
	}

	env.bootcamp1, err = testutils.CreateTestBootcamp(t, si, env.publisher.ID, "Devworks")
	require.NoError(t, err)

	return env
}

func courseBody(title string, tuition float64) H {
	return H{
		"title":        title,
		"description":  "Learn " + title,
		"weeks":        6,
		"tuition":      tuition,
		"minimumSkill": "beginner",
	}
}

type courseResp struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Weeks                int             `json:"weeks"`
	Tuition              float64         `json:"tuition"`
	ScholarshipAvailable bool            `json:"scholarshipAvailable"`
	Bootcamp             json.RawMessage `json:"bootcamp"`
	User                 string          `json:"user"`
}

type reviewResp struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Rating   int             `json:"rating"`
	Bootcamp json.RawMessage `json:"bootcamp"`
	User     string          `json:"user"`
}

func TestCourseOwnership(t *testing.T) {
	runWithBackends(t, func(t *testing.T, env *testEnv) {
		bcPath := fmt.Sprintf("/bootcamps/%s/courses", env.bootcamp1)

		// Anonymous and foreign publisher can't add courses
		env.expect(t, http.StatusUnauthorized, "POST", bcPath, testUser{}, courseBody("Go", 100), nil)
		renv := env.expect(t, http.StatusUnauthorized, "POST", bcPath, env.other, courseBody("Go", 100), nil)
		require.False(t, renv.Success)
		require.Equal(t,
			fmt.Sprintf("User %s is not authorized to add a course to bootcamp %s", env.other.ID, env.bootcamp1),
			renv.Error,
		)

		var course courseResp
		env.expect(t, http.StatusOK, "POST", bcPath, env.publisher, courseBody("Go", 100), &course)
		require.Equal(t, "Go", course.Title)
		require.Equal(t, env.publisher.ID, course.User)
		require.Equal(t, `"`+env.bootcamp1+`"`, string(course.Bootcamp))
		require.False(t, course.ScholarshipAvailable)

		// Owner and bootcamp come from the caller and the path, not the body
		body := courseBody("Rust", 200)
		body["user"] = env.other.ID
		body["bootcamp"] = "elsewhere"
		var forged courseResp
		env.expect(t, http.StatusOK, "POST", bcPath, env.publisher, body, &forged)
		require.Equal(t, env.publisher.ID, forged.User)
		require.Equal(t, `"`+env.bootcamp1+`"`, string(forged.Bootcamp))
		env.expect(t, http.StatusOK, "DELETE", "/courses/"+forged.ID, env.publisher, nil, nil)

		coursePath := "/courses/" + course.ID

		env.expect(t, http.StatusUnauthorized, "PUT", coursePath, env.other, H{"title": "Mine"}, nil)
		env.expect(t, http.StatusUnauthorized, "DELETE", coursePath, env.other, nil, nil)
		env.expect(t, http.StatusUnauthorized, "PUT", coursePath, testUser{}, H{"title": "Mine"}, nil)

		var unchanged courseResp
		env.expect(t, http.StatusOK, "GET", coursePath, env.other, nil, &unchanged)
		require.Equal(t, "Go", unchanged.Title)
		require.Equal(t, env.publisher.ID, unchanged.User)

		var updated courseResp
		env.expect(t, http.StatusOK, "PUT", coursePath, env.admin, H{
			"title":    "Go advanced",
			"user":     env.admin.ID,
			"bootcamp": "elsewhere",
		}, &updated)
		require.Equal(t, "Go advanced", updated.Title)
		require.Equal(t, 6, updated.Weeks)
		require.Equal(t, env.publisher.ID, updated.User)
		require.Equal(t, `"`+env.bootcamp1+`"`, string(updated.Bootcamp))

		// Single course has the bootcamp expanded
		var got courseResp
		env.expect(t, http.StatusOK, "GET", coursePath, testUser{}, nil, &got)
		var bootcamp H
		require.NoError(t, json.Unmarshal(got.Bootcamp, &bootcamp))
		require.Equal(t, H{
			"id":          env.bootcamp1,
			"name":        "Devworks",
			"description": "Description of Devworks",
		}, bootcamp)

		var list []courseResp
		renv = env.expect(t, http.StatusOK, "GET", bcPath, env.user, nil, &list)
		require.True(t, renv.Success)
		require.NotNil(t, renv.Count)
		require.Equal(t, 1, *renv.Count)
		require.Len(t, list, 1)

		renv = env.expect(t, http.StatusOK, "DELETE", coursePath, env.publisher, nil, nil)
		require.True(t, renv.Success)
		require.JSONEq(t, `{}`, string(renv.Data))

		renv = env.expect(t, http.StatusNotFound, "GET", coursePath, env.user, nil, nil)
		require.Equal(t, "Course not found with id "+course.ID, renv.Error)
	})
}

func TestCourseInvalidInput(t *testing.T) {
	runWithBackends(t, func(t *testing.T, env *testEnv) {
		bcPath := fmt.Sprintf("/bootcamps/%s/courses", env.bootcamp1)

		body := courseBody("Go", 100)
		body["minimumSkill"] = "guru"
		env.expect(t, http.StatusBadRequest, "POST", bcPath, env.publisher, body, nil)

		body = courseBody("Go", 100)
		delete(body, "weeks")
		renv := env.expect(t, http.StatusBadRequest, "POST", bcPath, env.publisher, body, nil)
		require.Contains(t, renv.Error, "weeks is required")

		env.expect(t, http.StatusNotFound, "POST", "/bootcamps/nope/courses", env.admin, courseBody("Go", 1), nil)
		env.expect(t, http.StatusNotFound, "PUT", "/courses/nope", env.admin, H{"title": "x"}, nil)
	})
}

func TestReviews(t *testing.T) {
	runWithBackends(t, func(t *testing.T, env *testEnv) {
		bcPath := fmt.Sprintf("/bootcamps/%s/reviews", env.bootcamp1)
		body := H{"title": "Nice", "text": "Learned a lot", "rating": 8}

		env.expect(t, http.StatusUnauthorized, "POST", bcPath, testUser{}, body, nil)

		var review reviewResp
		env.expect(t, http.StatusCreated, "POST", bcPath, env.user, body, &review)
		require.Equal(t, env.user.ID, review.User)
		require.Equal(t, 8, review.Rating)

		renv := env.expect(t, http.StatusBadRequest, "POST", bcPath, env.user, body, nil)
		require.Equal(t,
			fmt.Sprintf("User %s has already reviewed bootcamp %s", env.user.ID, env.bootcamp1),
			renv.Error,
		)

		env.expect(t, http.StatusBadRequest, "POST", bcPath, env.other,
			H{"title": "Meh", "text": "Meh", "rating": 11}, nil)

		reviewPath := "/reviews/" + review.ID

		env.expect(t, http.StatusUnauthorized, "PUT", reviewPath, env.publisher, H{"rating": 1}, nil)

		var updated reviewResp
		env.expect(t, http.StatusOK, "PUT", reviewPath, env.user, H{"rating": 10}, &updated)
		require.Equal(t, 10, updated.Rating)
		require.Equal(t, "Nice", updated.Title)

		bd, err := env.si.GetBootcamp(context.Background(), env.bootcamp1)
		require.NoError(t, err)
		require.NotNil(t, bd.AverageRating)
		require.InDelta(t, 10, *bd.AverageRating, 0.001)

		var list []reviewResp
		renv = env.expect(t, http.StatusOK, "GET", "/reviews?bootcampId="+env.bootcamp1, testUser{}, nil, &list)
		require.Equal(t, 1, *renv.Count)
		require.Nil(t, renv.Pagination)

		env.expect(t, http.StatusOK, "DELETE", reviewPath, env.admin, nil, nil)
		renv = env.expect(t, http.StatusNotFound, "GET", reviewPath, env.user, nil, nil)
		require.Equal(t, "No review with id "+review.ID, renv.Error)
	})
}

func TestAdvancedResults(t *testing.T) {
	runWithBackends(t, func(t *testing.T, env *testEnv) {
		bcPath := fmt.Sprintf("/bootcamps/%s/courses", env.bootcamp1)
		for i := 1; i <= 5; i++ {
			env.expect(t, http.StatusOK, "POST", bcPath, env.publisher,
				courseBody(fmt.Sprintf("Course %d", i), float64(i*1000)), nil)
		}

		var page []courseResp
		renv := env.expect(t, http.StatusOK, "GET", "/courses?limit=2&sort=tuition", env.user, nil, &page)
		require.Equal(t, 2, *renv.Count)
		require.Len(t, page, 2)
		require.Equal(t, "Course 1", page[0].Title)
		require.NotNil(t, renv.Pagination)
		require.Equal(t, &hh.PageRef{Page: 2, Limit: 2}, renv.Pagination.Next)
		require.Nil(t, renv.Pagination.Prev)

		renv = env.expect(t, http.StatusOK, "GET", "/courses?limit=2&page=3&sort=tuition", env.user, nil, &page)
		require.Len(t, page, 1)
		require.Equal(t, "Course 5", page[0].Title)
		require.Nil(t, renv.Pagination.Next)
		require.Equal(t, &hh.PageRef{Page: 2, Limit: 2}, renv.Pagination.Prev)

		renv = env.expect(t, http.StatusOK, "GET", "/courses?tuition[gte]=3000&sort=-tuition", env.user, nil, &page)
		require.Equal(t, 3, *renv.Count)
		require.Equal(t, "Course 5", page[0].Title)

		renv = env.expect(t, http.StatusOK, "GET", "/courses?bootcampId="+env.bootcamp1, env.user, nil, &page)
		require.Equal(t, 5, *renv.Count)
		require.Nil(t, renv.Pagination)

		env.expect(t, http.StatusBadRequest, "GET", "/courses?select=title", env.user, nil, nil)
		env.expect(t, http.StatusBadRequest, "GET", "/courses?limit=1000", env.user, nil, nil)
		env.expect(t, http.StatusBadRequest, "GET", "/courses?sort=nosuchfield", env.user, nil, nil)
		env.expect(t, http.StatusBadRequest, "GET", "/reviews?tuition=1", env.user, nil, nil)
	})
}

func TestAuthn(t *testing.T) {
	env := prepareEnv(t, false)

	resp, err := env.be.DoReq("GET", "/courses", "no-such-token", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid access token", resp.envelope(t).Error)

	// Browsers pass the token as a basic auth username
	req, err := http.NewRequest(
		"DELETE", env.be.(*testBackendHTTP).ts.URL+APIPrefix+"/courses/nope", nil,
	)
	require.NoError(t, err)
	req.SetBasicAuth(env.admin.Token, "")

	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	httpResp.Body.Close()
	require.Equal(t, http.StatusNotFound, httpResp.StatusCode)

	// WebSocket requires authentication
	wsURL := "ws" + strings.TrimPrefix(env.be.(*testBackendHTTP).ts.URL, "http") + APIPrefix + "/ws"
	_, httpResp, err = websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, httpResp)
	require.Equal(t, http.StatusUnauthorized, httpResp.StatusCode)
}

func TestInternalError(t *testing.T) {
	runWithBackends(t, func(t *testing.T, env *testEnv) {
		renv := env.expect(t, http.StatusInternalServerError, "GET", "/test_internal_error", env.user, nil, nil)
		require.False(t, renv.Success)
		require.NotContains(t, renv.Error, "private")
	})
}

func TestWebSocketUnknownPath(t *testing.T) {
	env := prepareEnv(t, true)
	defer env.be.Close()

	renv := env.expect(t, http.StatusNotFound, "GET", "/nosuchthing", env.user, nil, nil)
	require.Equal(t, "no handler for GET /nosuchthing", renv.Error)
}
