// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package storage

import (
	"time"

	"github.com/juju/errors"
)

// Field names understood by ListOpts. They match the JSON names of the
// public API, so that query strings can be passed through as is.
const (
	FieldBootcamp             = "bootcamp"
	FieldUser                 = "user"
	FieldTitle                = "title"
	FieldWeeks                = "weeks"
	FieldTuition              = "tuition"
	FieldMinimumSkill         = "minimumSkill"
	FieldScholarshipAvailable = "scholarshipAvailable"
	FieldRating               = "rating"
	FieldCreatedAt            = "createdAt"
)

type FieldType int

const (
	FieldTypeString FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeBool
	FieldTypeTime
)

// CourseFields and ReviewFields list the fields which can be used for
// filtering and sorting, together with the type of values they hold.
var (
	CourseFields = map[string]FieldType{
		FieldBootcamp:             FieldTypeString,
		FieldUser:                 FieldTypeString,
		FieldTitle:                FieldTypeString,
		FieldWeeks:                FieldTypeInt,
		FieldTuition:              FieldTypeFloat,
		FieldMinimumSkill:         FieldTypeString,
		FieldScholarshipAvailable: FieldTypeBool,
		FieldCreatedAt:            FieldTypeTime,
	}

	ReviewFields = map[string]FieldType{
		FieldBootcamp:  FieldTypeString,
		FieldUser:      FieldTypeString,
		FieldTitle:     FieldTypeString,
		FieldRating:    FieldTypeInt,
		FieldCreatedAt: FieldTypeTime,
	}
)

type FilterOp string

const (
	FilterOpEq  FilterOp = "eq"
	FilterOpGt  FilterOp = "gt"
	FilterOpGte FilterOp = "gte"
	FilterOpLt  FilterOp = "lt"
	FilterOpLte FilterOp = "lte"
)

// Filter value has a Go type corresponding to the FieldType of the field:
// string, int, float64, bool or time.Time.
type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

type SortField struct {
	Field string
	Desc  bool
}

type ListOpts struct {
	Filters []Filter
	// If empty, records are sorted by creation time, oldest first.
	Sort   []SortField
	Offset int
	// Zero means no limit.
	Limit int
}

// ByBootcamp returns ListOpts which select all records of the given bootcamp.
func ByBootcamp(bootcampID string) *ListOpts {
	return &ListOpts{
		Filters: []Filter{
			{Field: FieldBootcamp, Op: FilterOpEq, Value: bootcampID},
		},
	}
}

// ValidateListOpts checks that all filters and sort fields refer to the
// known fields, and that filter values have the right types. Backends call it
// before building a query.
func ValidateListOpts(opts *ListOpts, fields map[string]FieldType) error {
	if opts == nil {
		return nil
	}

	if err := ValidateFilters(opts.Filters, fields); err != nil {
		return errors.Trace(err)
	}

	for _, s := range opts.Sort {
		if _, ok := fields[s.Field]; !ok {
			return errors.Errorf("unknown sort field %q", s.Field)
		}
	}

	if opts.Offset < 0 || opts.Limit < 0 {
		return errors.Errorf("offset and limit can't be negative")
	}

	return nil
}

func ValidateFilters(filters []Filter, fields map[string]FieldType) error {
	for _, f := range filters {
		ft, ok := fields[f.Field]
		if !ok {
			return errors.Errorf("unknown filter field %q", f.Field)
		}

		switch f.Op {
		case FilterOpEq, FilterOpGt, FilterOpGte, FilterOpLt, FilterOpLte:
		default:
			return errors.Errorf("unknown filter operator %q", f.Op)
		}

		if ft == FieldTypeBool && f.Op != FilterOpEq {
			return errors.Errorf("field %q only supports equality", f.Field)
		}

		if !valueHasType(f.Value, ft) {
			return errors.Errorf(
				"wrong value type for field %q: %T", f.Field, f.Value,
			)
		}
	}

	return nil
}

func valueHasType(v interface{}, ft FieldType) bool {
	switch ft {
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeInt:
		_, ok := v.(int)
		return ok
	case FieldTypeFloat:
		_, ok := v.(float64)
		return ok
	case FieldTypeBool:
		_, ok := v.(bool)
		return ok
	case FieldTypeTime:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}
