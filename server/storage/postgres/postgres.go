// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres // import "devcamper.io/devcamper/server/storage/postgres"

import (
	"context"
	"database/sql"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/lib/pq"
)

const (
	accessTokenLen = 32

	pqErrUniqueViolation     = "23505"
	pqErrForeignKeyViolation = "23503"
)

// Implements storage.Storage
type StoragePostgres struct {
	postgresURL string
	db          *sql.DB
}

func New(postgresURL string) (*StoragePostgres, error) {
	if postgresURL == "" {
		return nil, errors.Errorf("postgres url is empty")
	}

	return &StoragePostgres{
		postgresURL: postgresURL,
	}, nil
}

func (s *StoragePostgres) Connect(ctx context.Context) error {
	var err error
	s.db, err = sql.Open("postgres", s.postgresURL)
	if err != nil {
		return errors.Trace(err)
	}

	if err := s.db.PingContext(ctx); err != nil {
		return errors.Annotatef(err, "pinging postgres")
	}

	return nil
}

func (s *StoragePostgres) ApplyMigrations(ctx context.Context) error {
	mig, err := initMigrations()
	if err != nil {
		return errors.Trace(err)
	}

	n, err := mig.MigrateToLatest(s.db)
	if n == 0 {
		glog.Infof("No migrations applied")
	} else {
		glog.Infof("Applied %d migrations!", n)
	}
	if err != nil {
		return errors.Trace(err)
	}

	return nil
}

func (s *StoragePostgres) Close() error {
	if s.db == nil {
		return nil
	}
	return errors.Trace(s.db.Close())
}

// DB returns the underlying connection pool; used by tests to prepare the
// database.
func (s *StoragePostgres) DB() *sql.DB {
	return s.db
}

// pqErrCode returns the SQLSTATE code of the postgres error, or an empty
// string if err is not a postgres error.
func pqErrCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}
