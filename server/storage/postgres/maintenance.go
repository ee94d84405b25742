// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"context"
	"database/sql"

	"devcamper.io/devcamper/server/storage"

	"github.com/juju/errors"
)

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// CheckIntegrity compares the stored bootcamp averages with the ones computed
// from the current courses and reviews, all within a single snapshot.
func (s *StoragePostgres) CheckIntegrity(ctx context.Context) error {
	var mismatches []storage.StatsMismatch

	err := s.TxOpt(ctx, TxILevelRepeatableRead, TxModeReadOnly, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
SELECT b.id, b.average_cost, b.average_rating,
	(SELECT AVG(tuition) FROM courses WHERE bootcamp_id = b.id),
	(SELECT AVG(rating) FROM reviews WHERE bootcamp_id = b.id)
FROM bootcamps b ORDER BY b.id`)
		if err != nil {
			return errors.Trace(err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var cost, rating, actualCost, actualRating sql.NullFloat64

			if err := rows.Scan(&id, &cost, &rating, &actualCost, &actualRating); err != nil {
				return errors.Trace(err)
			}

			mismatches = storage.CompareStat(
				mismatches, id, "averageCost", nullFloat(cost), nullFloat(actualCost),
			)
			mismatches = storage.CompareStat(
				mismatches, id, "averageRating", nullFloat(rating), nullFloat(actualRating),
			)
		}

		return errors.Trace(rows.Err())
	})
	if err != nil {
		return errors.Trace(err)
	}

	return storage.IntegrityResult(mismatches)
}
