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

const courseSelectCols = `id, bootcamp_id, owner_id, title, description, weeks,
	tuition, minimum_skill, scholarship_available, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner, cd *storage.CourseData) error {
	return row.Scan(
		&cd.ID, &cd.BootcampID, &cd.OwnerID, &cd.Title, &cd.Description,
		&cd.Weeks, &cd.Tuition, &cd.MinimumSkill, &cd.ScholarshipAvailable,
		&cd.CreatedAt,
	)
}

func (s *StoragePostgres) CreateCourse(
	ctx context.Context, cd *storage.CourseData,
) (string, error) {
	courseID := uuid.NewString()

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if err := lockBootcamp(ctx, tx, cd.BootcampID); err != nil {
			return errors.Trace(err)
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO courses (
	id, bootcamp_id, owner_id, title, description, weeks, tuition,
	minimum_skill, scholarship_available
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			courseID, cd.BootcampID, cd.OwnerID, cd.Title, cd.Description,
			cd.Weeks, cd.Tuition, cd.MinimumSkill, cd.ScholarshipAvailable,
		)
		if err != nil {
			if pqErrCode(err) == pqErrForeignKeyViolation {
				return interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
			}
			return hh.MakeInternalServerError(errors.Annotatef(
				err, "adding new course (bootcamp_id: %s)", cd.BootcampID,
			))
		}

		return nil
	})
	if err != nil {
		return "", errors.Trace(err)
	}

	return courseID, nil
}

func (s *StoragePostgres) GetCourse(
	ctx context.Context, courseID string,
) (*storage.CourseData, error) {
	var cd storage.CourseData

	err := scanCourse(s.db.QueryRowContext(ctx,
		"SELECT "+courseSelectCols+" FROM courses WHERE id = $1", courseID,
	), &cd)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, interrors.WrapInternalError(err, storage.ErrCourseDoesNotExist)
		}
		return nil, hh.MakeInternalServerError(err)
	}

	return &cd, nil
}

func (s *StoragePostgres) GetCourses(
	ctx context.Context, opts *storage.ListOpts,
) ([]storage.CourseData, error) {
	if err := storage.ValidateListOpts(opts, storage.CourseFields); err != nil {
		return nil, errors.Trace(err)
	}

	q := selectQuery{}
	if err := q.addListOpts(opts, courseColumns); err != nil {
		return nil, errors.Trace(err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+courseSelectCols+" FROM courses"+q.tail(), q.args...,
	)
	if err != nil {
		return nil, hh.MakeInternalServerError(err)
	}
	defer rows.Close()

	ret := []storage.CourseData{}
	for rows.Next() {
		var cd storage.CourseData
		if err := scanCourse(rows, &cd); err != nil {
			return nil, hh.MakeInternalServerError(err)
		}
		ret = append(ret, cd)
	}

	if err := rows.Err(); err != nil {
		return nil, hh.MakeInternalServerError(err)
	}

	return ret, nil
}

func (s *StoragePostgres) CountCourses(
	ctx context.Context, filters []storage.Filter,
) (int, error) {
	if err := storage.ValidateFilters(filters, storage.CourseFields); err != nil {
		return 0, errors.Trace(err)
	}

	q := selectQuery{}
	if err := q.addFilters(filters, courseColumns); err != nil {
		return 0, errors.Trace(err)
	}

	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM courses"+q.whereClause(), q.args...,
	).Scan(&cnt)
	if err != nil {
		return 0, hh.MakeInternalServerError(err)
	}

	return cnt, nil
}

func (s *StoragePostgres) UpdateCourse(
	ctx context.Context, cd *storage.CourseData,
) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE courses SET
	title = $2, description = $3, weeks = $4, tuition = $5,
	minimum_skill = $6, scholarship_available = $7
WHERE id = $1`,
		cd.ID, cd.Title, cd.Description, cd.Weeks, cd.Tuition,
		cd.MinimumSkill, cd.ScholarshipAvailable,
	)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "updating course %s", cd.ID,
		))
	}

	return errors.Trace(checkAffected(res, storage.ErrCourseDoesNotExist))
}

func (s *StoragePostgres) DeleteCourse(ctx context.Context, courseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", courseID)
	if err != nil {
		return hh.MakeInternalServerError(errors.Annotatef(
			err, "deleting course %s", courseID,
		))
	}

	return errors.Trace(checkAffected(res, storage.ErrCourseDoesNotExist))
}

// checkAffected returns errNotExist if res has no affected rows.
func checkAffected(res sql.Result, errNotExist error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return hh.MakeInternalServerError(err)
	}

	if n == 0 {
		return errors.Trace(errNotExist)
	}

	return nil
}

// lockBootcamp checks that the bootcamp exists, and keeps it from being
// deleted until the transaction ends.
func lockBootcamp(ctx context.Context, tx *sql.Tx, bootcampID string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM bootcamps WHERE id = $1 FOR SHARE", bootcampID,
	).Scan(&id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return interrors.WrapInternalError(err, storage.ErrBootcampDoesNotExist)
		}
		return hh.MakeInternalServerError(err)
	}

	return nil
}
