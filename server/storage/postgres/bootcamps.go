// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"context"
	"database/sql"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/dimonomid/interrors"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

func (s *StoragePostgres) CreateBootcamp(
	ctx context.Context, bd *storage.BootcampData,
) (string, error) {
	bootcampID := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO bootcamps (id, owner_id, name, description) VALUES ($1, $2, $3, $4)`,
		bootcampID, bd.OwnerID, bd.Name, bd.Description,
	)
	if err != nil {
		if pqErrCode(err) == pqErrForeignKeyViolation {
			return "", interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
		}
		return "", hh.MakeInternalServerError(errors.Annotatef(
			err, "adding new bootcamp (owner_id: %s)", bd.OwnerID,
		))
	}

	return bootcampID, nil
}

func (s *StoragePostgres) GetBootcamp(
	ctx context.Context, bootcampID string,
) (*storage.BootcampData, error) {
	var bd storage.BootcampData
	var avgCost, avgRating sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
SELECT id, owner_id, name, description, average_cost, average_rating, created_at
FROM bootcamps WHERE id = $1`, bootcampID,
	).Scan(
		&bd.ID, &bd.OwnerID, &bd.Name, &bd.Description,
		&avgCost, &avgRating, &bd.CreatedAt,
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, interrors.WrapInternalError(err, storage.ErrBootcampDoesNotExist)
		}
		return nil, hh.MakeInternalServerError(err)
	}

	if avgCost.Valid {
		bd.AverageCost = &avgCost.Float64
	}
	if avgRating.Valid {
		bd.AverageRating = &avgRating.Float64
	}

	return &bd, nil
}

func (s *StoragePostgres) UpdateBootcampStats(
	ctx context.Context, bootcampID string,
) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE bootcamps SET
	average_cost = (SELECT AVG(tuition) FROM courses WHERE bootcamp_id = $1),
	average_rating = (SELECT AVG(rating) FROM reviews WHERE bootcamp_id = $1)
WHERE id = $1`, bootcampID,
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating stats of bootcamp %s", bootcampID,
		))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return hh.MakeInternalServerError(err)
	}

	if n == 0 {
		return errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	return nil
}
