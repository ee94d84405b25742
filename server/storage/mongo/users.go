// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package mongo

import (
	"context"

	hh "devcamper.io/devcamper/server/httphelper"
	"devcamper.io/devcamper/server/storage"

	"github.com/dchest/uniuri"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

func (s *StorageMongo) GetUser(
	ctx context.Context, args *storage.GetUserArgs,
) (*storage.UserData, error) {
	var filter bson.D
	switch {
	case args.ID != nil:
		oid, err := parseID(*args.ID, storage.ErrUserDoesNotExist)
		if err != nil {
			return nil, errors.Trace(err)
		}
		filter = bson.D{{Key: "_id", Value: oid}}
	case args.Username != nil:
		filter = bson.D{{Key: "username", Value: *args.Username}}
	default:
		return nil, hh.MakeInternalServerError(errors.Errorf(
			"neither id nor username is given to storage.GetUser()",
		))
	}

	var doc userDoc
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, storage.ErrUserDoesNotExist)
	}

	return doc.data(), nil
}

func (s *StorageMongo) CreateUser(
	ctx context.Context, ud *storage.UserData,
) (string, error) {
	doc := userDoc{
		ID:       primitive.NewObjectID(),
		Username: ud.Username,
		Email:    ud.Email,
		Role:     ud.Role,
	}
	if doc.Role == "" {
		doc.Role = storage.RoleUser
	}

	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return "", errors.Errorf("user %q already exists", ud.Username)
		}
		return "", hh.MakeInternalServerError(err)
	}

	return doc.ID.Hex(), nil
}

func (s *StorageMongo) CreateAccessToken(
	ctx context.Context, userID string, token string,
) (string, error) {
	oid, err := parseID(userID, storage.ErrUserDoesNotExist)
	if err != nil {
		return "", errors.Trace(err)
	}

	if err := s.checkExists(ctx, usersCollection, oid, storage.ErrUserDoesNotExist); err != nil {
		return "", errors.Trace(err)
	}

	if token == "" {
		token = uniuri.NewLen(accessTokenLen)
	}

	_, err = s.db.Collection(tokensCollection).InsertOne(ctx, tokenDoc{
		Token:  token,
		UserID: oid,
	})
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return "", errors.Trace(storage.ErrAccessTokenExists)
		}
		return "", hh.MakeInternalServerErrorf(
			err, "failed to create access token for user %q", userID,
		)
	}

	return token, nil
}

func (s *StorageMongo) GetUserByAccessToken(
	ctx context.Context, token string,
) (*storage.UserData, error) {
	var tok tokenDoc
	err := s.db.Collection(tokensCollection).FindOne(
		ctx, bson.D{{Key: "_id", Value: token}},
	).Decode(&tok)
	if err != nil {
		return nil, mapErr(err, storage.ErrUserDoesNotExist)
	}

	var doc userDoc
	err = s.db.Collection(usersCollection).FindOne(
		ctx, bson.D{{Key: "_id", Value: tok.UserID}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, storage.ErrUserDoesNotExist)
	}

	return doc.data(), nil
}

// checkExists returns errNotExist if there's no document with the given id in
// the collection.
func (s *StorageMongo) checkExists(
	ctx context.Context, coll string, id primitive.ObjectID, errNotExist error,
) error {
	n, err := s.db.Collection(coll).CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return hh.MakeInternalServerError(err)
	}

	if n == 0 {
		return errors.Trace(errNotExist)
	}

	return nil
}
