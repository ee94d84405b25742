// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package server

import (
	"devcamper.io/devcamper/server/resource"
	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

// withPage parses the advanced results query (paging, sorting, filtering)
// into dcr.Page before calling the handler. Requests scoped to a bootcamp by
// the "bootcampId" query param are not paged.
func withPage(
	filterable []string, fields map[string]storage.FieldType, h DCHandler,
) DCHandler {
	return func(dcr *DCRequest) (interface{}, error) {
		if dcr.FormValue(BootcampID) != "" {
			return h(dcr)
		}

		q, err := resource.ParsePageQuery(dcr.Values, filterable, fields)
		if err != nil {
			return nil, errors.Trace(err)
		}

		dcr.Page = q
		return h(dcr)
	}
}
