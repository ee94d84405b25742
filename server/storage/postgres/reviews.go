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

const reviewSelectCols = `id, bootcamp_id, owner_id, title, text, rating, created_at`

func scanReview(row rowScanner, rd *storage.ReviewData) error {
	return row.Scan(
		&rd.ID, &rd.BootcampID, &rd.OwnerID, &rd.Title, &rd.Text, &rd.Rating,
		&rd.CreatedAt,
	)
}

func (s *StoragePostgres) CreateReview(
	ctx context.Context, rd *storage.ReviewData,
) (string, error) {
	reviewID := uuid.NewString()

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if err := lockBootcamp(ctx, tx, rd.BootcampID); err != nil {
			return errors.Trace(err)
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO reviews (id, bootcamp_id, owner_id, title, text, rating)
VALUES ($1, $2, $3, $4, $5, $6)`,
			reviewID, rd.BootcampID, rd.OwnerID, rd.Title, rd.Text, rd.Rating,
		)
		if err != nil {
			switch pqErrCode(err) {
			case pqErrForeignKeyViolation:
				return interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
			case pqErrUniqueViolation:
				return interrors.WrapInternalError(err, storage.ErrReviewAlreadyExists)
			}
			return hh.MakeInternalServerError(errors.Annotatef(
				err, "adding new review (bootcamp_id: %s)", rd.BootcampID,
			))
		}

		return nil
	})
	if err != nil {
		return "", errors.Trace(err)
	}

	return reviewID, nil
}

func (s *StoragePostgres) GetReview(
	ctx context.Context, reviewID string,
) (*storage.ReviewData, error) {
	var rd storage.ReviewData

	err := scanReview(s.db.QueryRowContext(ctx,
		"SELECT "+reviewSelectCols+" FROM reviews WHERE id = $1", reviewID,
	), &rd)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, interrors.WrapInternalError(err, storage.ErrReviewDoesNotExist)
		}
		return nil, hh.MakeInternalServerError(err)
	}

	return &rd, nil
}

func (s *StoragePostgres) GetReviews(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.ReviewData, error) {
	if err := storage.ValidateListOpts(opts, storage.ReviewFields); err != nil {
		return nil, errors.Trace(err)
	}

	q := selectQuery{}
	if err := q.addListOpts(opts, reviewColumns); err != nil {
		return nil, errors.Trace(err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reviewSelectCols+" FROM reviews"+q.tail(), q.args...,
	)
	if err != nil {
		return nil, hh.MakeInternalServerError(err)
	}
	defer rows.Close()

	ret := []storage.ReviewData{}
	for rows.Next() {
		var rd storage.ReviewData
		if err := scanReview(rows, &rd); err != nil {
			return nil, hh.MakeInternalServerError(err)
		}
		ret = append(ret, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, hh.MakeInternalServerError(err)
	}

	return ret, nil
}

func (s *StoragePostgres) CountReviews(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.ReviewFields); err != nil {
		return 0, errors.Trace(err)
	}

	q := selectQuery{}
	if err := q.addFilters(filters, reviewColumns); err != nil {
		return 0, errors.Trace(err)
	}

	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM reviews"+q.whereClause(), q.args...,
	).Scan(&cnt)
	if err != nil {
		return 0, hh.MakeInternalServerError(err)
	}

	return cnt, nil
}

func (s *StoragePostgres) UpdateReview(
	ctx context.Context, rd *storage.ReviewData,
) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET title = $2, text = $3, rating = $4 WHERE id = $1",
		rd.ID, rd.Title, rd.Text, rd.Rating,
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating review %s", rd.ID,
		))
	}

	return errors.Trace(checkAffected(res, storage.ErrReviewDoesNotExist))
}

func (s *StoragePostgres) DeleteReview(ctx context.Context, reviewID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", reviewID)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "deleting review %s", reviewID,
		))
	}

	return errors.Trace(checkAffected(res, storage.ErrReviewDoesNotExist))
}
