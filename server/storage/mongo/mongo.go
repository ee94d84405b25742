// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// Package mongo implements storage.Storage on top of MongoDB. Record IDs are
// hex representations of ObjectIDs, except access tokens which are stored
// as document ids as is.
package mongo // import "devcamper.io/devcamper/server/storage/mongo"

import (
	"context"
	"time"

	hh "devcamper.io/devcamper/server/httphelper"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	tokensCollection    = "access_tokens"
	bootcampsCollection = "bootcamps"
	coursesCollection   = "courses"
	reviewsCollection   = "reviews"

	accessTokenLen = 32

	DefaultDBName = "devcamper"
)

// Implements storage.Storage
type StorageMongo struct {
	mongoURL string
	dbName   string

	client *mongodrv.Client
	db     *mongodrv.Database
}

func New(mongoURL, dbName string) (*StorageMongo, error) {
	if mongoURL == "" {
		return nil, errors.Errorf("mongo url is empty")
	}

	if dbName == "" {
		dbName = DefaultDBName
	}

	return &StorageMongo{
		mongoURL: mongoURL,
		dbName:   dbName,
	}, nil
}

func (s *StorageMongo) Connect(ctx context.Context) error {
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(s.mongoURL))
	if err != nil {
		return errors.Annotatef(err, "connecting to mongo")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return errors.Annotatef(err, "pinging mongo")
	}

	s.client = client
	s.db = client.Database(s.dbName)

	return nil
}

// ApplyMigrations creates the indexes the storage relies upon. It's
// idempotent: existing indexes are left untouched.
func (s *StorageMongo) ApplyMigrations(ctx context.Context) error {
	indexes := []struct {
		coll  string
		model mongodrv.IndexModel
	}{
		{usersCollection, mongodrv.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{tokensCollection, mongodrv.IndexModel{
			Keys: bson.D{{Key: "user", Value: 1}},
		}},
		{bootcampsCollection, mongodrv.IndexModel{
			Keys: bson.D{{Key: "user", Value: 1}},
		}},
		{coursesCollection, mongodrv.IndexModel{
			Keys: bson.D{{Key: "bootcamp", Value: 1}, {Key: "createdAt", Value: 1}},
		}},
		{reviewsCollection, mongodrv.IndexModel{
			Keys: bson.D{{Key: "bootcamp", Value: 1}, {Key: "createdAt", Value: 1}},
		}},
		{reviewsCollection, mongodrv.IndexModel{
			Keys:    bson.D{{Key: "bootcamp", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		name, err := s.db.Collection(idx.coll).Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			return errors.Annotatef(err, "creating index on %s", idx.coll)
		}
		glog.V(1).Infof("Index %s.%s is in place", idx.coll, name)
	}

	return nil
}

func (s *StorageMongo) Close() error {
	if s.client == nil {
		return nil
	}

	return errors.Trace(s.client.Disconnect(context.Background()))
}

// Database returns the underlying database handle; used by tests.
func (s *StorageMongo) Database() *mongodrv.Database {
	return s.db
}

// now returns the current time with the precision mongo is able to store,
// so that the values we return before and after a roundtrip are equal.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// parseID converts the hex id to an ObjectID. An id which is not a valid hex
// can't refer to any document, so the caller gets errNotExist.
func parseID(id string, errNotExist error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Annotatef(errNotExist, "id %q", id)
	}
	return oid, nil
}

// mapErr translates mongo errors to the storage ones.
func mapErr(err error, errNotExist error) error {
	if errors.Cause(err) == mongodrv.ErrNoDocuments {
		return errors.Trace(errNotExist)
	}
	return hh.MakeInternalServerError(err)
}
