// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package memory_test

import (
	"testing"

	"devcamper.io/devcamper/server/storage"
	"devcamper.io/devcamper/server/storage/memory"
	"devcamper.io/devcamper/server/storage/storagetest"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return memory.New()
	})
}
