// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"context"
	"database/sql"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/dchest/uniuri"
	"github.com/dimonomid/interrors"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

func (s *StoragePostgres) GetUser(
	ctx context.Context, args *storage.GetUserArgs,
) (*storage.UserData, error) {
	var ud storage.UserData
	queryArgs := []interface{}{}
	where := ""
	if args.ID != nil {
		where = "id = $1"
		queryArgs = append(queryArgs, *args.ID)
	} else if args.Username != nil {
		where = "username = $1"
		queryArgs = append(queryArgs, *args.Username)
	} else {
		return nil, hh.MakeInternalServerError(errors.Errorf(
			"neither id nor username is given to storage.GetUser()",
		))
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, role FROM users WHERE "+where,
		queryArgs...,
	).Scan(&ud.ID, &ud.Username, &ud.Email, &ud.Role)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
		}
		// Some unexpected error
		return nil, hh.MakeInternalServerError(err)
	}

	return &ud, nil
}

func (s *StoragePostgres) CreateUser(
	ctx context.Context, ud *storage.UserData,
) (userID string, err error) {
	role := ud.Role
	if role == "" {
		role = storage.RoleUser
	}

	userID = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, $4)",
		userID, ud.Username, ud.Email, role,
	)
	if err != nil {
		if pqErrCode(err) == pqErrUniqueViolation {
			return "", errors.Errorf("user %q already exists", ud.Username)
		}
		return "", hh.MakeInternalServerError(err)
	}

	return userID, nil
}

func (s *StoragePostgres) CreateAccessToken(
	ctx context.Context, userID string, token string,
) (string, error) {
	if token == "" {
		token = uniuri.NewLen(accessTokenLen)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO access_tokens (user_id, token) VALUES ($1, $2)",
		userID, token,
	)
	if err != nil {
		switch pqErrCode(err) {
		case pqErrUniqueViolation:
			return "", interrors.WrapInternalError(err, storage.ErrAccessTokenExists)
		case pqErrForeignKeyViolation:
			return "", interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
		}
		return "", hh.MakeInternalServerErrorf(
			err, "failed to create access token for user %q", userID,
		)
	}

	return token, nil
}

func (s *StoragePostgres) GetUserByAccessToken(
	ctx context.Context, token string,
) (*storage.UserData, error) {
	var ud storage.UserData

	err := s.db.QueryRowContext(ctx, `
SELECT u.id, u.username, u.email, u.role FROM users u
JOIN access_tokens tok ON tok.user_id = u.id
WHERE tok.token = $1`, token,
	).Scan(&ud.ID, &ud.Username, &ud.Email, &ud.Role)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, interrors.WrapInternalError(err, storage.ErrUserDoesNotExist)
		}
		// Some unexpected error
		return nil, hh.MakeInternalServerError(err)
	}

	return &ud, nil
}
