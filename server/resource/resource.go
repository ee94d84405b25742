// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// Package resource implements operations on courses and reviews: lookups,
// ownership checks, validation and persistence. Errors returned from here
// are the httphelper ones, so that callers can pass them to the client as is.
package resource // import "devcamper.io/devcamper/server/resource"

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

// CanMutate reports whether the caller may modify a record owned by ownerID:
// only the owner and admins can.
func CanMutate(ownerID string, caller *storage.UserData) bool {
	if caller == nil {
		return false
	}

	return caller.ID == ownerID || caller.Role == storage.RoleAdmin
}

// BootcampRef is a bootcamp expanded in a single course or review.
type BootcampRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct validates s and returns a BadRequest error describing all
// the offending fields.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return hh.MakeInternalServerError(errors.Trace(err))
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), describeFieldError(fe)))
	}

	return hh.MakeBadRequestErrorf("invalid input: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			if fe.Param() == "1" {
				return "can't be empty"
			}
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("can't be longer than %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Replace(fe.Param(), " ", ", ", -1))
	}

	return fmt.Sprintf("failed the %q check", fe.Tag())
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// getBootcamp returns the bootcamp, or NotFound if it doesn't exist.
func getBootcamp(
	ctx context.Context, si storage.Storage, bootcampID string,
) (*storage.BootcampData, error) {
	bd, err := si.GetBootcamp(ctx, bootcampID)
	if err != nil {
		if errors.Cause(err) == storage.ErrBootcampDoesNotExist {
			return nil, hh.MakeNotFoundErrorf("Bootcamp not found with id %s", bootcampID)
		}
		return nil, errors.Trace(err)
	}

	return bd, nil
}

// updateBootcampStats recomputes the bootcamp averages. The mutation which
// triggered it has already happened, so a failure is only logged.
func updateBootcampStats(ctx context.Context, si storage.Storage, bootcampID string) {
	if err := si.UpdateBootcampStats(ctx, bootcampID); err != nil {
		glog.Errorf(
			"Failed to update stats of bootcamp %s: %s",
			bootcampID, errors.ErrorStack(err),
		)
	}
}
