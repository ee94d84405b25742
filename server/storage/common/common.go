// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package common // import "devcamper.io/devcamper/server/storage/common"

import (
	"flag"
	"os"

	"devcamper.io/devcamper/server/storage"
	"devcamper.io/devcamper/server/storage/memory"
	"devcamper.io/devcamper/server/storage/mongo"
	"devcamper.io/devcamper/server/storage/postgres"

	"github.com/juju/errors"
	_ "github.com/lib/pq"
)

const (
	DBTypePostgres = "postgres"
	DBTypeMongo    = "mongo"
	DBTypeMemory   = "memory"
)

var (
	dbType = flag.String("devcamper.dbtype", DBTypePostgres,
		"Database type: postgres, mongo or memory.")
	postgresURL = flag.String("devcamper.postgres.url", "",
		"Data source name pointing to the Postgres database. Alternatively, can be "+
			"given in an environment variable DC_POSTGRES_URL.")
	mongoURL = flag.String("devcamper.mongo.url", "",
		"MongoDB connection string. Alternatively, can be given in an "+
			"environment variable DC_MONGO_URL.")
	mongoDBName = flag.String("devcamper.mongo.db", mongo.DefaultDBName,
		"MongoDB database name.")
)

type Options struct {
	DBType      string
	PostgresURL string
	MongoURL    string
	MongoDBName string
}

// OptionsFromFlags returns storage options given by the command line flags,
// with the database URLs falling back to the environment.
func OptionsFromFlags() Options {
	opts := Options{
		DBType:      *dbType,
		PostgresURL: *postgresURL,
		MongoURL:    *mongoURL,
		MongoDBName: *mongoDBName,
	}

	if opts.PostgresURL == "" {
		opts.PostgresURL = os.Getenv("DC_POSTGRES_URL")
	}
	if opts.MongoURL == "" {
		opts.MongoURL = os.Getenv("DC_MONGO_URL")
	}

	return opts
}

// CreateStorage creates, but does not connect, the storage of the given type.
func CreateStorage(opts Options) (storage.Storage, error) {
	switch opts.DBType {
	case DBTypePostgres:
		return postgres.New(opts.PostgresURL)
	case DBTypeMongo:
		return mongo.New(opts.MongoURL, opts.MongoDBName)
	case DBTypeMemory:
		return memory.New(), nil
	default:
		return nil, errors.Errorf("Invalid database type: %q", opts.DBType)
	}
}
