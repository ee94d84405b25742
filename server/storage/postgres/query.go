// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"fmt"
	"strings"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

var courseColumns = map[string]string{
	storage.FieldBootcamp:             "bootcamp_id",
	storage.FieldUser:                 "owner_id",
	storage.FieldTitle:                "title",
	storage.FieldWeeks:                "weeks",
	storage.FieldTuition:              "tuition",
	storage.FieldMinimumSkill:         "minimum_skill",
	storage.FieldScholarshipAvailable: "scholarship_available",
	storage.FieldCreatedAt:            "created_at",
}

var reviewColumns = map[string]string{
	storage.FieldBootcamp:  "bootcamp_id",
	storage.FieldUser:      "owner_id",
	storage.FieldTitle:     "title",
	storage.FieldRating:    "rating",
	storage.FieldCreatedAt: "created_at",
}

var filterOps = map[storage.FilterOp]string{
	storage.FilterOpEq:  "=",
	storage.FilterOpGt:  ">",
	storage.FilterOpGte: ">=",
	storage.FilterOpLt:  "<",
	storage.FilterOpLte: "<=",
}

// selectQuery accumulates the WHERE / ORDER BY / LIMIT parts of a query
// together with the positional arguments.
type selectQuery struct {
	where   []string
	orderBy []string
	limit   string
	args    []interface{}
}

func (q *selectQuery) addArg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *selectQuery) addFilters(
	filters []storage.Filter, columns map[string]string,
) error {
	for _, f := range filters {
		col, ok := columns[f.Field]
		if !ok {
			return errors.Errorf("unknown filter field %q", f.Field)
		}
		op, ok := filterOps[f.Op]
		if !ok {
			return errors.Errorf("unknown filter operator %q", f.Op)
		}
		q.where = append(q.where, fmt.Sprintf("%s %s %s", col, op, q.addArg(f.Value)))
	}
	return nil
}

func (q *selectQuery) addListOpts(
	opts *storage.ListOpts, columns map[string]string,
) error {
	if opts == nil {
		opts = &storage.ListOpts{}
	}

	if err := q.addFilters(opts.Filters, columns); err != nil {
		return errors.Trace(err)
	}

	for _, s := range opts.Sort {
		col, ok := columns[s.Field]
		if !ok {
			return errors.Errorf("unknown sort field %q", s.Field)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		q.orderBy = append(q.orderBy, col+" "+dir)
	}
	// Make the order deterministic
	q.orderBy = append(q.orderBy, "created_at ASC", "id ASC")

	if opts.Limit > 0 {
		q.limit = fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		q.limit += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	return nil
}

func (q *selectQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func (q *selectQuery) tail() string {
	return q.whereClause() + " ORDER BY " + strings.Join(q.orderBy, ", ") + q.limit
}
