// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

// Package dfmigrate applies numbered SQL migrations, each one in its own
// transaction, and keeps the id of the last applied one in the database.
package dfmigrate // import "devcamper.io/devcamper/server/dfmigrate"

import (
	"database/sql"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

type MigrationFunc func(tx *sql.Tx) error

type Migration struct {
	id    int
	descr string
	up    MigrationFunc
	down  MigrationFunc
}

type Migrations struct {
	migrations []Migration
}

func (m *Migrations) AddMigration(
	id int, descr string, up MigrationFunc, down MigrationFunc,
) error {
	if id != len(m.migrations)+1 {
		return errors.Errorf("wrong migration id for %q: expected %d, given %d",
			descr, len(m.migrations)+1, id,
		)
	}
	m.migrations = append(m.migrations, Migration{
		id, descr, up, down,
	})
	return nil
}

func (m *Migrations) Len() int {
	return len(m.migrations)
}

func (m *Migrations) MigrateToLatest(db *sql.DB) (int, error) {
	return m.Migrate(db, len(m.migrations))
}

// Migrate brings the database to the state after the migration
// targetMigrationID, applying migrations up or down as needed. 0 means the
// state before the very first migration. Returns the number of migrations
// applied.
func (m *Migrations) Migrate(db *sql.DB, targetMigrationID int) (int, error) {
	err := initialize(db)
	if err != nil {
		return 0, errors.Trace(err)
	}

	if targetMigrationID > len(m.migrations) || targetMigrationID < 0 {
		return 0, errors.Errorf("wrong target migration id %d (max: %d)",
			targetMigrationID, len(m.migrations),
		)
	}

	curID, err := getCurrentMigrationID(db)
	if err != nil {
		return 0, errors.Trace(err)
	}

	if curID > len(m.migrations) {
		return 0, errors.Errorf("wrong saved current migration id %d (max: %d)",
			curID, len(m.migrations),
		)
	}

	if curID < 0 {
		return 0, errors.Errorf("wrong saved current migration id %d", curID)
	}

	applied := 0

	if targetMigrationID > curID {
		// migrate up
		for _, mig := range m.migrations[curID:targetMigrationID] {
			glog.Infof("Applying migration %d %q", mig.id, mig.descr)
			if err := m.apply(db, mig.up, mig.id); err != nil {
				return applied, errors.Annotatef(err, "migration %d up", mig.id)
			}
			applied++
			glog.Infof("Applied successfully")
		}
	} else if targetMigrationID < curID {
		// migrate down
		for i := curID - 1; i >= targetMigrationID; i-- {
			mig := m.migrations[i]
			if mig.down == nil {
				return applied, errors.Errorf(
					"migration %d %q can't be reverted", mig.id, mig.descr,
				)
			}

			glog.Infof("Reverting migration %d %q", mig.id, mig.descr)
			if err := m.apply(db, mig.down, mig.id-1); err != nil {
				return applied, errors.Annotatef(err, "migration %d down", mig.id)
			}
			applied++
			glog.Infof("Reverted successfully")
		}
	}

	return applied, nil
}

// apply runs fn and saves newCurID in the same transaction, so that a failed
// migration leaves no trace.
func (m *Migrations) apply(db *sql.DB, fn MigrationFunc, newCurID int) error {
	return tx(db, func(tx *sql.Tx) error {
		if err := fn(tx); err != nil {
			return errors.Trace(err)
		}

		return errors.Trace(setCurrentMigrationID(tx, newCurID))
	})
}
