// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

package httphelper // import "devcamper.io/devcamper/server/httphelper"

import (
	"context"
	"encoding/json"
	"net/http"

	"devcamper.io/devcamper/server/middleware"

	"github.com/dimonomid/interrors"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

const (
	DesiredContentTypeKey = "desiredContentType"

	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html"
)

// ErrorResponse is the body of every failed response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"error"`
}

func GetErrorStruct(errResp error) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Status:  GetHTTPErrorCode(errResp),
		Message: errResp.Error(),
	}
}

// LogError logs the error: internal errors are always logged together with
// the internal stack, others only at verbosity 2.
func LogError(errResp error) {
	if IsInternalServerError(errResp) {
		glog.Errorf("INTERNAL SERVER ERROR:\n%s", interrors.ErrorStack(errResp))
		return
	}
	glog.V(2).Infof("%s", errors.ErrorStack(errResp))
}

func writeBody(w http.ResponseWriter, contentType string, status int, body []byte) {
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		glog.Errorf("writing response: %s", err)
	}
}

// RespondWithError writes errResp to the client, either as ErrorResponse
// JSON or as plain text, depending on the content type set by
// MakeDesiredContentTypeMiddleware.
func RespondWithError(w http.ResponseWriter, r *http.Request, errResp error) {
	LogError(errResp)

	errStruct := GetErrorStruct(errResp)

	contentType := contentTypeHTML
	if v := r.Context().Value(DesiredContentTypeKey); v != nil {
		ct, ok := v.(string)
		if !ok {
			glog.Errorf("wrong type of desiredContentType: %T (%v)", v, v)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		contentType = ct
	}

	switch contentType {
	case contentTypeJSON:
		d, err := json.MarshalIndent(errStruct, "", "  ")
		if err != nil {
			panic(err)
		}
		writeBody(w, contentTypeJSON, errStruct.Status, d)

	case contentTypeHTML:
		writeBody(w, contentTypeHTML, errStruct.Status, []byte("Error: "+errResp.Error()))

	default:
		glog.Errorf("wrong desiredContentType: %q", contentType)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// MakeAPIHandler turns f into an http handler which writes the value
// returned by f as JSON, or the error as returned by RespondWithError.
func MakeAPIHandler(
	f func(r *http.Request) (resp interface{}, err error),
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := f(r)
		if err != nil {
			RespondWithError(w, r, errors.Trace(err))
			return
		}

		status, body := UnwrapResp(resp)

		d, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			RespondWithError(w, r, MakeInternalServerError(
				errors.Annotatef(err, "marshalling resp"),
			))
			return
		}

		writeBody(w, contentTypeJSON, status, d)
	}
}

// MakeAPIHandlerWWriter is like MakeAPIHandler, but f writes the response
// itself; only errors are handled.
func MakeAPIHandlerWWriter(
	f func(w http.ResponseWriter, r *http.Request) (err error),
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			RespondWithError(w, r, errors.Trace(err))
		}
	}
}

// MakeInternalServerError hides intError behind the generic internal server
// error, so that the details don't percolate to clients. The original error
// is still available to interrors.ErrorStack for logging.
func MakeInternalServerError(intError error) error {
	if IsInternalServerError(intError) {
		return errors.Trace(intError)
	}
	return interrors.WrapInternalError(intError, internalServerError)
}

func MakeInternalServerErrorf(
	intError error, format string, args ...interface{},
) error {
	return interrors.WrapInternalError(
		intError,
		errors.Annotatef(internalServerError, format, args...),
	)
}

func MakeUnauthorizedError() error {
	return unauthorizedError
}

// MakeUnauthorizedErrorf returns an error which is reported to the client
// with the given message and HTTP status 401.
func MakeUnauthorizedErrorf(format string, args ...interface{}) error {
	return errors.Trace(newPublicError(unauthorizedError, format, args...))
}

func MakeNotFoundErrorf(format string, args ...interface{}) error {
	return errors.Trace(newPublicError(notFoundError, format, args...))
}

func MakeBadRequestErrorf(format string, args ...interface{}) error {
	return errors.Trace(newPublicError(badRequestError, format, args...))
}

// MakeBadRequestError makes a client error out of err: the client gets the
// message of err, and the stack of err is kept for logging.
func MakeBadRequestError(err error) error {
	return interrors.WrapInternalError(
		err, newPublicError(badRequestError, "%s", err.Error()),
	)
}

func IsNotFound(err error) bool            { return errorKind(err) == notFoundError }
func IsUnauthorized(err error) bool        { return errorKind(err) == unauthorizedError }
func IsBadRequest(err error) bool          { return errorKind(err) == badRequestError }
func IsInternalServerError(err error) bool { return errorKind(err) == internalServerError }

func GetHTTPErrorCode(err error) int {
	return kindStatus(errorKind(err))
}

func MakeDesiredContentTypeMiddleware(
	contentType string,
) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return middleware.MkMiddleware(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, r.WithContext(context.WithValue(
				r.Context(), DesiredContentTypeKey, contentType,
			)))
		})
	}
}
