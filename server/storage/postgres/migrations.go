// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"database/sql"

	"github.com/juju/errors"

	"devcamper.io/devcamper/server/dfmigrate"
)

func execAll(tx *sql.Tx, queries ...string) error {
	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return errors.Annotatef(err, "executing %q", q)
		}
	}
	return nil
}

func initMigrations() (*dfmigrate.Migrations, error) {
	mig := &dfmigrate.Migrations{}
	var err error

	// 001: Initial structure {{{
	err = mig.AddMigration(
		1, "Initial structure",

		// ---------- UP ----------
		func(tx *sql.Tx) error {
			return execAll(tx, `
				CREATE TABLE users (
					id TEXT NOT NULL PRIMARY KEY,
					username VARCHAR(50) NOT NULL UNIQUE,
					email VARCHAR(100) NOT NULL DEFAULT '',
					role VARCHAR(20) NOT NULL DEFAULT 'user'
				)
				`, `
				CREATE TABLE access_tokens (
					id SERIAL NOT NULL PRIMARY KEY,
					user_id TEXT NOT NULL,
					token VARCHAR(64) NOT NULL UNIQUE,
					FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
				)
				`, `
				CREATE TABLE bootcamps (
					id TEXT NOT NULL PRIMARY KEY,
					owner_id TEXT NOT NULL,
					name VARCHAR(50) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
				)
				`, `
				CREATE TABLE courses (
					id TEXT NOT NULL PRIMARY KEY,
					bootcamp_id TEXT NOT NULL,
					owner_id TEXT NOT NULL,
					title VARCHAR(100) NOT NULL,
					description TEXT NOT NULL,
					weeks INTEGER NOT NULL,
					tuition DOUBLE PRECISION NOT NULL,
					minimum_skill VARCHAR(20) NOT NULL,
					scholarship_available BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					FOREIGN KEY (bootcamp_id) REFERENCES bootcamps(id) ON DELETE CASCADE,
					FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
				)
				`,
			)
		},

		// ---------- DOWN ----------
		func(tx *sql.Tx) error {
			return execAll(tx,
				`DROP TABLE courses`,
				`DROP TABLE bootcamps`,
				`DROP TABLE access_tokens`,
				`DROP TABLE users`,
			)
		},
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// }}}
	// 002: Add reviews {{{
	err = mig.AddMigration(
		2, "Add reviews",

		// ---------- UP ----------
		func(tx *sql.Tx) error {
			return execAll(tx, `
				CREATE TABLE reviews (
					id TEXT NOT NULL PRIMARY KEY,
					bootcamp_id TEXT NOT NULL,
					owner_id TEXT NOT NULL,
					title VARCHAR(100) NOT NULL,
					text TEXT NOT NULL,
					rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 10),
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					FOREIGN KEY (bootcamp_id) REFERENCES bootcamps(id) ON DELETE CASCADE,
					FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
				)
				`, `
				-- A user can review a bootcamp only once
				CREATE UNIQUE INDEX reviews_bootcamp_owner_idx
					ON reviews (bootcamp_id, owner_id)
				`,
			)
		},

		// ---------- DOWN ----------
		func(tx *sql.Tx) error {
			return execAll(tx, `DROP TABLE reviews`)
		},
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// }}}
	// 003: Bootcamp stats and indices {{{
	err = mig.AddMigration(
		3, "Bootcamp stats and indices",

		// ---------- UP ----------
		func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE "bootcamps" ADD COLUMN "average_cost" DOUBLE PRECISION`,
				`ALTER TABLE "bootcamps" ADD COLUMN "average_rating" DOUBLE PRECISION`,
				`CREATE INDEX courses_bootcamp_idx ON courses (bootcamp_id)`,
				`CREATE INDEX courses_created_at_idx ON courses (created_at)`,
				`CREATE INDEX reviews_created_at_idx ON reviews (created_at)`,
			)
		},

		// ---------- DOWN ----------
		func(tx *sql.Tx) error {
			return execAll(tx,
				`DROP INDEX reviews_created_at_idx`,
				`DROP INDEX courses_created_at_idx`,
				`DROP INDEX courses_bootcamp_idx`,
				`ALTER TABLE "bootcamps" DROP COLUMN "average_rating"`,
				`ALTER TABLE "bootcamps" DROP COLUMN "average_cost"`,
			)
		},
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// }}}

	return mig, nil
}
