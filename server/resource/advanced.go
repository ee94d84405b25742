// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package resource

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100

	queryKeyPage   = "page"
	queryKeyLimit  = "limit"
	queryKeySort   = "sort"
	queryKeySelect = "select"
)

// PageQuery selects a page of a filtered and sorted list.
type PageQuery struct {
	Page    int
	Limit   int
	Filters []storage.Filter
	Sort    []storage.SortField
}

// ParsePageQuery parses query string values like
// "page=2&limit=10&sort=-tuition,title&weeks[gte]=4&minimumSkill=beginner".
//
// Only the fields in filterable can be filtered by; any field in fields can
// be sorted by. Everything unknown or malformed results in BadRequest.
func ParsePageQuery(
	values url.Values, filterable []string, fields map[string]storage.FieldType,
) (*PageQuery, error) {
	q := &PageQuery{
		Page:  DefaultPage,
		Limit: DefaultLimit,
		Sort:  []storage.SortField{{Field: storage.FieldCreatedAt, Desc: true}},
	}

	isFilterable := map[string]bool{}
	for _, f := range filterable {
		isFilterable[f] = true
	}

	for key, vals := range values {
		switch key {
		case queryKeyPage:
			n, err := parsePositive(key, vals)
			if err != nil {
				return nil, errors.Trace(err)
			}
			q.Page = n

		case queryKeyLimit:
			n, err := parsePositive(key, vals)
			if err != nil {
				return nil, errors.Trace(err)
			}
			if n > MaxLimit {
				return nil, hh.MakeBadRequestErrorf("limit can't be larger than %d", MaxLimit)
			}
			q.Limit = n

		case queryKeySort:
			sort, err := parseSort(vals, fields)
			if err != nil {
				return nil, errors.Trace(err)
			}
			q.Sort = sort

		case queryKeySelect:
			return nil, hh.MakeBadRequestErrorf("selecting fields is not supported")

		default:
			field, op, err := parseFilterKey(key)
			if err != nil {
				return nil, errors.Trace(err)
			}

			if !isFilterable[field] {
				return nil, hh.MakeBadRequestErrorf("can't filter by %q", field)
			}

			for _, v := range vals {
				value, err := parseFilterValue(field, fields[field], v)
				if err != nil {
					return nil, errors.Trace(err)
				}

				q.Filters = append(q.Filters, storage.Filter{
					Field: field,
					Op:    op,
					Value: value,
				})
			}
		}
	}

	if q.Page-1 > (math.MaxInt-q.Limit)/q.Limit {
		return nil, hh.MakeBadRequestErrorf("page %d is too large", q.Page)
	}

	if err := storage.ValidateFilters(q.Filters, fields); err != nil {
		return nil, hh.MakeBadRequestError(err)
	}

	return q, nil
}

func parsePositive(key string, vals []string) (int, error) {
	if len(vals) != 1 {
		return 0, hh.MakeBadRequestErrorf("%s should be given once", key)
	}

	n, err := strconv.Atoi(vals[0])
	if err != nil || n < 1 {
		return 0, hh.MakeBadRequestErrorf("%s should be a positive integer, got %q", key, vals[0])
	}

	return n, nil
}

func parseSort(vals []string, fields map[string]storage.FieldType) ([]storage.SortField, error) {
	ret := []storage.SortField{}
	for _, v := range vals {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			sf := storage.SortField{}
			if strings.HasPrefix(name, "-") {
				sf.Desc = true
				name = name[1:]
			}

			if _, ok := fields[name]; !ok {
				return nil, hh.MakeBadRequestErrorf("can't sort by %q", name)
			}

			sf.Field = name
			ret = append(ret, sf)
		}
	}

	if len(ret) == 0 {
		return nil, hh.MakeBadRequestErrorf("sort is empty")
	}

	return ret, nil
}

// parseFilterKey parses "field" or "field[op]".
func parseFilterKey(key string) (field string, op storage.FilterOp, err error) {
	idx := strings.IndexByte(key, '[')
	if idx < 0 {
		return key, storage.FilterOpEq, nil
	}

	if !strings.HasSuffix(key, "]") {
		return "", "", hh.MakeBadRequestErrorf("malformed filter %q", key)
	}

	op = storage.FilterOp(key[idx+1 : len(key)-1])
	switch op {
	case storage.FilterOpGt, storage.FilterOpGte, storage.FilterOpLt, storage.FilterOpLte:
	default:
		return "", "", hh.MakeBadRequestErrorf("unknown filter operator in %q", key)
	}

	return key[:idx], op, nil
}

func parseFilterValue(field string, ft storage.FieldType, v string) (interface{}, error) {
	var value interface{}
	var err error

	switch ft {
	case storage.FieldTypeString:
		value = v
	case storage.FieldTypeInt:
		value, err = strconv.Atoi(v)
	case storage.FieldTypeFloat:
		value, err = strconv.ParseFloat(v, 64)
	case storage.FieldTypeBool:
		value, err = strconv.ParseBool(v)
	case storage.FieldTypeTime:
		value, err = time.Parse(time.RFC3339, v)
	default:
		return nil, hh.MakeInternalServerError(errors.Errorf("unknown type of field %q", field))
	}

	if err != nil {
		return nil, hh.MakeBadRequestErrorf("invalid value of %q: %q", field, v)
	}

	return value, nil
}

type countFunc func(ctx context.Context, filters []storage.Filter) (int, error)

// fetchFunc returns the records as a slice, and the slice length.
type fetchFunc func(opts *storage.ListOpts) (interface{}, int, error)

func runPage(
	ctx context.Context, q *PageQuery, count countFunc, fetch fetchFunc,
) (*hh.Envelope, error) {
	total, err := count(ctx, q.Filters)
	if err != nil {
		return nil, errors.Trace(err)
	}

	offset := (q.Page - 1) * q.Limit
	data, n, err := fetch(&storage.ListOpts{
		Filters: q.Filters,
		Sort:    q.Sort,
		Offset:  offset,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	pagination := &hh.Pagination{}
	if offset+q.Limit < total {
		pagination.Next = &hh.PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if offset > 0 {
		pagination.Prev = &hh.PageRef{Page: q.Page - 1, Limit: q.Limit}
	}

	env := hh.MakeListResp(data, n)
	env.Pagination = pagination

	return env, nil
}
