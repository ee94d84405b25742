// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"goji.io/pattern"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/resource"
	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

const maxBodySize = 1 << 20

// DCRequest is a transport-independent API request: it's made either from an
// HTTP request, or from a message received over a WebSocket connection.
type DCRequest struct {
	HTTPReq *http.Request
	Caller  *storage.UserData
	Values  url.Values
	Body    io.ReadCloser

	// Set by the advanced results middleware; nil if the request is not
	// a paged one.
	Page *resource.PageQuery
}

func (dcr *DCRequest) FormValue(key string) string {
	return dcr.Values.Get(key)
}

func (dcr *DCRequest) Context() context.Context {
	return dcr.HTTPReq.Context()
}

// decodeBody decodes JSON body into v. An empty body leaves v untouched.
func (dcr *DCRequest) decodeBody(v interface{}) error {
	decoder := json.NewDecoder(dcr.Body)
	if err := decoder.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return hh.MakeBadRequestErrorf("invalid request body: %s", err)
	}

	return nil
}

func makeDCRequestFromHTTPRequest(r *http.Request) (*DCRequest, error) {
	// calling r.ParseForm consumes r.Body, so we have to copy body data
	var b bytes.Buffer

	if r.Body != nil {
		if _, err := io.Copy(&b, io.LimitReader(r.Body, maxBodySize+1)); err != nil {
			return nil, hh.MakeBadRequestErrorf("reading request body: %s", err)
		}
		if b.Len() > maxBodySize {
			return nil, hh.MakeBadRequestErrorf("request body is too large")
		}
		r.Body = ioutil.NopCloser(bytes.NewReader(b.Bytes()))
	}

	if err := r.ParseForm(); err != nil {
		return nil, hh.MakeBadRequestError(errors.Trace(err))
	}

	dcr := &DCRequest{
		HTTPReq: r,
		Caller:  getAuthnUserDataByReq(r),
		Values:  r.Form,
		Body:    ioutil.NopCloser(bytes.NewReader(b.Bytes())),
	}

	return dcr, nil
}

// WebSocketRequest is a single API request received over a WebSocket
// connection. Path is relative to the API root, e.g. "/courses/123".
type WebSocketRequest struct {
	ID     int                    `json:"id"`
	Method string                 `json:"method"`
	Path   string                 `json:"path"`
	Values map[string]interface{} `json:"values"`
	Body   json.RawMessage        `json:"body,omitempty"`
}

type WebSocketResponse struct {
	ID     int         `json:"id"`
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Status int         `json:"status"`
	Body   interface{} `json:"body"`
}

func makeDCRequestFromWebSocketRequest(
	ctx context.Context, wsr *WebSocketRequest, caller *storage.UserData,
) (*DCRequest, error) {
	values := url.Values{}
	for k, v := range wsr.Values {
		switch val := v.(type) {
		case string:
			values.Add(k, val)
		case json.Number:
			values.Add(k, val.String())
		case bool:
			if val {
				values.Add(k, "true")
			} else {
				values.Add(k, "false")
			}
		case []interface{}:
			for _, v := range val {
				switch ival := v.(type) {
				case string:
					values.Add(k, ival)
				case json.Number:
					values.Add(k, ival.String())
				default:
					return nil, hh.MakeBadRequestErrorf(
						"value can only be a string, a number, or an array of these",
					)
				}
			}
		default:
			return nil, hh.MakeBadRequestErrorf(
				"value can only be a string, a number, or an array of these",
			)
		}
	}

	httpReq, err := mkHTTPReqFromWebSocketReq(wsr, values)
	if err != nil {
		return nil, errors.Trace(err)
	}

	ctx = pattern.SetPath(ctx, httpReq.URL.EscapedPath())
	httpReq = httpReq.WithContext(ctx)

	dcr := &DCRequest{
		HTTPReq: httpReq,
		Caller:  caller,
		Values:  values,
		Body:    ioutil.NopCloser(bytes.NewReader(wsr.Body)),
	}

	return dcr, nil
}

func mkHTTPReqFromWebSocketReq(wsr *WebSocketRequest, values url.Values) (*http.Request, error) {
	if wsr.Method == "" {
		return nil, hh.MakeBadRequestErrorf("method is required")
	}

	u, err := url.Parse(wsr.Path)
	if err != nil || u.Path == "" || u.Path[0] != '/' {
		return nil, hh.MakeBadRequestErrorf("invalid path: %q", wsr.Path)
	}
	u.RawQuery = values.Encode()

	httpReq, err := http.NewRequest(wsr.Method, u.String(), bytes.NewReader(wsr.Body))
	if err != nil {
		return nil, hh.MakeBadRequestError(errors.Trace(err))
	}

	return httpReq, nil
}
