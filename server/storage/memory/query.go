// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package memory

import (
	"sort"
	"strings"
	"time"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

// fieldGetter returns the value of the named field of a record, of the type
// declared in storage.CourseFields / storage.ReviewFields.
type fieldGetter func(field string) interface{}

func courseField(c *storage.CourseData) fieldGetter {
	return func(field string) interface{} {
		switch field {
		case storage.FieldBootcamp:
			return c.BootcampID
		case storage.FieldUser:
			return c.OwnerID
		case storage.FieldTitle:
			return c.Title
		case storage.FieldWeeks:
			return c.Weeks
		case storage.FieldTuition:
			return c.Tuition
		case storage.FieldMinimumSkill:
			return string(c.MinimumSkill)
		case storage.FieldScholarshipAvailable:
			return c.ScholarshipAvailable
		case storage.FieldCreatedAt:
			return c.CreatedAt
		}
		return nil
	}
}

func reviewField(r *storage.ReviewData) fieldGetter {
	return func(field string) interface{} {
		switch field {
		case storage.FieldBootcamp:
			return r.BootcampID
		case storage.FieldUser:
			return r.OwnerID
		case storage.FieldTitle:
			return r.Title
		case storage.FieldRating:
			return r.Rating
		case storage.FieldCreatedAt:
			return r.CreatedAt
		}
		return nil
	}
}

// compareValues returns -1, 0 or 1; both values must be of the same type.
func compareValues(a, b interface{}) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			break
		}
		return strings.Compare(av, bv), nil
	case int:
		bv, ok := b.(int)
		if !ok {
			break
		}
		return cmpOrdered(av < bv, av > bv), nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			break
		}
		return cmpOrdered(av < bv, av > bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			break
		}
		return cmpOrdered(!av && bv, av && !bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			break
		}
		return cmpOrdered(av.Before(bv), av.After(bv)), nil
	}

	return 0, errors.Errorf("can't compare %T with %T", a, b)
}

func cmpOrdered(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func matchFilters(get fieldGetter, filters []storage.Filter) (bool, error) {
	for _, f := range filters {
		c, err := compareValues(get(f.Field), f.Value)
		if err != nil {
			return false, errors.Annotatef(err, "filter on %q", f.Field)
		}

		var ok bool
		switch f.Op {
		case storage.FilterOpEq:
			ok = c == 0
		case storage.FilterOpGt:
			ok = c > 0
		case storage.FilterOpGte:
			ok = c >= 0
		case storage.FilterOpLt:
			ok = c < 0
		case storage.FilterOpLte:
			ok = c <= 0
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

type sortable struct {
	get fieldGetter
	seq uint64
}

// sortAndPage sorts items according to opts (falling back to the insertion
// order) and returns the indices of the items which fall into the requested
// page.
func sortAndPage(items []sortable, opts *storage.ListOpts) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}

	var sortFields []storage.SortField
	if opts != nil {
		sortFields = opts.Sort
	}

	sort.SliceStable(idx, func(i, j int) bool {
		a, b := items[idx[i]], items[idx[j]]
		for _, sf := range sortFields {
			// Types are validated by storage.ValidateListOpts
			c, _ := compareValues(a.get(sf.Field), b.get(sf.Field))
			if c == 0 {
				continue
			}
			if sf.Desc {
				return c > 0
			}
			return c < 0
		}
		return a.seq < b.seq
	})

	if opts == nil {
		return idx
	}

	if opts.Offset >= len(idx) {
		return nil
	}
	idx = idx[opts.Offset:]

	if opts.Limit > 0 && opts.Limit < len(idx) {
		idx = idx[:opts.Limit]
	}

	return idx
}
