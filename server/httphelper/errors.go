// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package httphelper

import (
	"fmt"
	"net/http"

	"github.com/juju/errors"
)

var (
	internalServerError = errors.New("internal server error")
	unauthorizedError   = errors.New("unauthorized")
	notFoundError       = errors.New("not found")
	badRequestError     = errors.New("bad request")
)

// kindStatus returns the HTTP status for the error kind; anything unknown is
// a bad request.
func kindStatus(kind error) int {
	switch kind {
	case internalServerError:
		return http.StatusInternalServerError
	case unauthorizedError:
		return http.StatusUnauthorized
	case notFoundError:
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// publicError carries a message for the client, and one of the sentinel
// errors (unauthorizedError, notFoundError, etc) as its cause, which
// determines the HTTP status.
type publicError struct {
	kind    error
	message string
}

func newPublicError(kind error, format string, args ...interface{}) *publicError {
	return &publicError{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *publicError) Error() string {
	return e.message
}

// Satisfies the non-exported interface errors.causer
func (e *publicError) Cause() error {
	return e.kind
}

// errorKind follows the chain of causes until it stops changing. A single
// errors.Cause is not enough: an internal error wrapper reports its public
// error as the cause, which in turn might have its own cause.
func errorKind(err error) error {
	cur := err
	for i := 0; i < 8; i++ {
		next := errors.Cause(cur)
		if next == nil || next == cur {
			break
		}
		cur = next
	}
	return cur
}
