// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENCE file for details.

package dfmigrate

import (
	"database/sql"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

const (
	paramCurMigrationID = "cur_migration_id"
)

func tx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Annotate(err, "begin transaction")
	}

	err = fn(tx)
	if err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			glog.Errorf("Transaction rollback failed: %+v", err2)
		}
		return errors.Trace(err)
	}

	err = tx.Commit()
	if err != nil {
		return errors.Annotate(err, "commit transaction")
	}
	return nil
}

func initialize(db *sql.DB) error {
	err := tx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS dfmigrate_state (
          param TEXT NOT NULL UNIQUE,
          value INTEGER NOT NULL
        )
      `)
		return err
	})
	if err != nil {
		return errors.Trace(err)
	}

	return nil
}

func getCurrentMigrationID(db *sql.DB) (int, error) {
	curID := 0

	err := db.QueryRow(
		"SELECT value FROM dfmigrate_state WHERE param = $1", paramCurMigrationID,
	).Scan(&curID)
	if err != nil {
		if errors.Cause(err) != sql.ErrNoRows {
			return 0, errors.Trace(err)
		}
		curID = 0
	}

	return curID, nil
}

func setCurrentMigrationID(tx *sql.Tx, curID int) error {
	_, err := tx.Exec(`
      INSERT INTO dfmigrate_state (param, value) values ($1, $2)
      ON CONFLICT (param) DO UPDATE SET value = $2;
    `,
		paramCurMigrationID, curID,
	)
	if err != nil {
		return errors.Trace(err)
	}

	return nil
}
