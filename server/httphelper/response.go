// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

package httphelper

import (
	"net/http"
)

// Envelope is the body of every successful API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       interface{} `json:"data"`
}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// statusResp is returned by handlers which need some status other than 200.
type statusResp struct {
	status int
	body   interface{}
}

func MakeResp(data interface{}) *Envelope {
	return &Envelope{
		Success: true,
		Data:    data,
	}
}

func MakeListResp(data interface{}, count int) *Envelope {
	return &Envelope{
		Success: true,
		Count:   &count,
		Data:    data,
	}
}

// MakeEmptyResp returns an envelope with an empty object as data.
func MakeEmptyResp() *Envelope {
	return MakeResp(struct{}{})
}

func WithStatus(status int, resp interface{}) interface{} {
	return &statusResp{
		status: status,
		body:   resp,
	}
}

// UnwrapResp returns the HTTP status and the body of the response returned by
// a handler.
func UnwrapResp(resp interface{}) (status int, body interface{}) {
	if sr, ok := resp.(*statusResp); ok {
		return sr.status, sr.body
	}
	return http.StatusOK, resp
}
