// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

//go:build all_tests || unit_tests

package config

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"devcamper.io/devcamper/server/storage"
	storagecommon "devcamper.io/devcamper/server/storage/common"
	"devcamper.io/devcamper/server/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
listen: ":8080"
db:
  type: memory
cors_origins:
  - https://devcamper.io
seed:
  users:
    - username: alice
      email: alice@devcamper.io
      role: publisher
      tokens: ["alice-token"]
      bootcamps:
        - name: Devworks
          description: Full stack web development
    - username: root
      role: admin
      tokens: ["root-token"]
`

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "devcamper.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr(":5000"))
	assert.Equal(t, []string{"https://devcamper.io"}, cfg.CORSOrigins)

	opts := cfg.StorageOptions(storagecommon.Options{
		DBType:   storagecommon.DBTypePostgres,
		MongoURL: "mongodb://localhost",
	})
	assert.Equal(t, "memory", opts.DBType)
	assert.Equal(t, "mongodb://localhost", opts.MongoURL)

	require.Len(t, cfg.Seed.Users, 2)
	assert.Equal(t, storage.RoleAdmin, cfg.Seed.Users[1].Role)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ListenAddr(":5000"))
}

func TestLoadInvalid(t *testing.T) {
	testCases := map[string]string{
		"unknown key":   "listen: \":1\"\nport: 1\n",
		"bad role":      "seed:\n  users:\n    - username: bob\n      role: god\n",
		"duplicate":     "seed:\n  users:\n    - username: bob\n    - username: bob\n",
		"no username":   "seed:\n  users:\n    - role: user\n",
		"malformed doc": "listen: [",
	}

	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, data))
			require.Error(t, err)
		})
	}
}

func TestApplySeed(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	si := memory.New()
	ctx := context.Background()

	// Seeding twice should not duplicate anything
	require.NoError(t, cfg.ApplySeed(ctx, si))
	require.NoError(t, cfg.ApplySeed(ctx, si))

	ud, err := si.GetUserByAccessToken(ctx, "alice-token")
	require.NoError(t, err)
	assert.Equal(t, "alice", ud.Username)
	assert.Equal(t, storage.RolePublisher, ud.Role)

	ud, err = si.GetUserByAccessToken(ctx, "root-token")
	require.NoError(t, err)
	assert.Equal(t, storage.RoleAdmin, ud.Role)
}
