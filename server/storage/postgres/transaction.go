// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

type TxILevel int

const (
	TxILevelReadCommitted TxILevel = iota
	TxILevelRepeatableRead
	TxILevelSerializable
)

type TxMode int

const (
	TxModeReadWrite TxMode = iota
	TxModeReadOnly
)

func (s *StoragePostgres) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	return s.TxOpt(ctx, TxILevelReadCommitted, TxModeReadWrite, fn)
}

func (s *StoragePostgres) TxOpt(
	ctx context.Context, ilevel TxILevel, mode TxMode, fn func(*sql.Tx) error,
) error {

	if ilevel != TxILevelReadCommitted && mode == TxModeReadWrite {
		// Read-write transactions with stricter isolation levels would need to
		// be retried on serialization failures, which we don't do.
		return errors.Errorf("read-write mode is currently supported only for \"Read Committed\" isolation level")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: ilevelToSQL(ilevel),
		ReadOnly:  mode == TxModeReadOnly,
	})
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

func ilevelToSQL(ilevel TxILevel) sql.IsolationLevel {
	switch ilevel {
	case TxILevelReadCommitted:
		return sql.LevelReadCommitted
	case TxILevelRepeatableRead:
		return sql.LevelRepeatableRead
	case TxILevelSerializable:
		return sql.LevelSerializable
	}
	panic(fmt.Sprintf("unknown isolation level: %d", ilevel))
}
