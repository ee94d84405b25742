// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package testutils // import "devcamper.io/devcamper/server/testutils"

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"devcamper.io/devcamper/server/storage"
	"devcamper.io/devcamper/server/storage/memory"
	"devcamper.io/devcamper/server/storage/mongo"
	"devcamper.io/devcamper/server/storage/postgres"

	"github.com/juju/errors"
)

// PrepareTestDB wipes all data from the storage and applies migrations.
func PrepareTestDB(t *testing.T, si storage.Storage) error {
	ctx := context.Background()

	switch s := si.(type) {
	case *postgres.StoragePostgres:
		if err := dropAllTables(ctx, s); err != nil {
			return errors.Trace(err)
		}
	case *mongo.StorageMongo:
		if err := s.Database().Drop(ctx); err != nil {
			return errors.Annotatef(err, "dropping mongo database")
		}
	case *memory.StorageMemory:
		// Nothing to do: every memory storage starts empty
	default:
		return errors.Errorf("unexpected storage type %T", si)
	}

	// Init schema (apply all migrations)
	if err := si.ApplyMigrations(ctx); err != nil {
		return errors.Annotatef(err, "applying migrations")
	}

	return nil
}

func CleanupTestDB(t *testing.T, si storage.Storage) error {
	return errors.Trace(si.Close())
}

func dropAllTables(ctx context.Context, s *postgres.StoragePostgres) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT table_name
				FROM information_schema.tables
				WHERE table_schema='public'
				AND table_type='BASE TABLE'
		`)
		if err != nil {
			return errors.Annotatef(err, "getting all table names")
		}

		var tables []string
		for rows.Next() {
			var tableName string
			if err := rows.Scan(&tableName); err != nil {
				rows.Close()
				return errors.Trace(err)
			}
			tables = append(tables, tableName)
		}
		rows.Close()

		if len(tables) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, "DROP TABLE "+strings.Join(tables, ", ")+" CASCADE")
		if err != nil {
			return errors.Annotatef(err, "dropping all tables")
		}

		return nil
	})
}

// CreateTestUser creates a user with the given role, and an access token for
// it.
func CreateTestUser(
	t *testing.T, si storage.Storage, username string, role storage.Role,
) (userID, token string, err error) {
	ctx := context.Background()

	userID, err = si.CreateUser(ctx, &storage.UserData{
		Username: username,
		Email:    username + "@devcamper.test",
		Role:     role,
	})
	if err != nil {
		return "", "", errors.Annotatef(err, "creating user %q", username)
	}

	token, err = si.CreateAccessToken(ctx, userID, "")
	if err != nil {
		return "", "", errors.Annotatef(err, "creating token for %q", username)
	}

	return userID, token, nil
}

func CreateTestBootcamp(
	t *testing.T, si storage.Storage, ownerID, name string,
) (string, error) {
	bootcampID, err := si.CreateBootcamp(context.Background(), &storage.BootcampData{
		OwnerID:     ownerID,
		Name:        name,
		Description: "Description of " + name,
	})
	if err != nil {
		return "", errors.Annotatef(err, "creating bootcamp %q", name)
	}

	return bootcampID, nil
}
