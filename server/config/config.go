// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// Package config reads the optional YAML configuration file. Values given in
// the file take precedence over the command line flags.
package config // import "devcamper.io/devcamper/server/config"

import (
	"context"
	"io/ioutil"

	"devcamper.io/devcamper/server/cptr"
	"devcamper.io/devcamper/server/storage"
	storagecommon "devcamper.io/devcamper/server/storage/common"

	"github.com/golang/glog"
	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Listen      *string  `yaml:"listen"`
	DB          DB       `yaml:"db"`
	CORSOrigins []string `yaml:"cors_origins"`
	Seed        Seed     `yaml:"seed"`
}

type DB struct {
	Type        *string `yaml:"type"`
	PostgresURL *string `yaml:"postgres_url"`
	MongoURL    *string `yaml:"mongo_url"`
	MongoDBName *string `yaml:"mongo_db"`
}

type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username string       `yaml:"username"`
	Email    string       `yaml:"email"`
	Role     storage.Role `yaml:"role"`
	// Tokens are created if they don't exist yet.
	Tokens []string `yaml:"tokens"`
	// Bootcamps are only created together with the user.
	Bootcamps []SeedBootcamp `yaml:"bootcamps"`
}

type SeedBootcamp struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Load reads the config file at the given path. An empty path yields an
// empty config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading config %q", path)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing config %q", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Annotatef(err, "config %q", path)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	seen := map[string]bool{}
	for _, u := range c.Seed.Users {
		if u.Username == "" {
			return errors.Errorf("seed user without a username")
		}
		if seen[u.Username] {
			return errors.Errorf("seed user %q is given twice", u.Username)
		}
		seen[u.Username] = true

		switch u.Role {
		case "", storage.RoleUser, storage.RolePublisher, storage.RoleAdmin:
		default:
			return errors.Errorf("seed user %q: invalid role %q", u.Username, u.Role)
		}
	}

	return nil
}

// ListenAddr returns the address from the config, or def.
func (c *Config) ListenAddr(def string) string {
	return cptr.StringOr(c.Listen, def)
}

// StorageOptions overrides the given options with the ones from the config.
func (c *Config) StorageOptions(opts storagecommon.Options) storagecommon.Options {
	return storagecommon.Options{
		DBType:      cptr.StringOr(c.DB.Type, opts.DBType),
		PostgresURL: cptr.StringOr(c.DB.PostgresURL, opts.PostgresURL),
		MongoURL:    cptr.StringOr(c.DB.MongoURL, opts.MongoURL),
		MongoDBName: cptr.StringOr(c.DB.MongoDBName, opts.MongoDBName),
	}
}

// ApplySeed creates the seed users which don't exist yet, with their
// bootcamps, and makes sure all seed tokens exist.
func (c *Config) ApplySeed(ctx context.Context, si storage.Storage) error {
	for _, su := range c.Seed.Users {
		userID, err := seedUser(ctx, si, &su)
		if err != nil {
			return errors.Annotatef(err, "seeding user %q", su.Username)
		}

		for _, token := range su.Tokens {
			_, err := si.CreateAccessToken(ctx, userID, token)
			if err != nil && errors.Cause(err) != storage.ErrAccessTokenExists {
				return errors.Annotatef(err, "seeding token of user %q", su.Username)
			}
		}
	}

	return nil
}

func seedUser(ctx context.Context, si storage.Storage, su *SeedUser) (string, error) {
	ud, err := si.GetUser(ctx, &storage.GetUserArgs{Username: &su.Username})
	if err == nil {
		return ud.ID, nil
	}
	if errors.Cause(err) != storage.ErrUserDoesNotExist {
		return "", errors.Trace(err)
	}

	userID, err := si.CreateUser(ctx, &storage.UserData{
		Username: su.Username,
		Email:    su.Email,
		Role:     su.Role,
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	glog.Infof("Seeded user %q (%s), id %s", su.Username, su.Role, userID)

	for _, sb := range su.Bootcamps {
		bootcampID, err := si.CreateBootcamp(ctx, &storage.BootcampData{
			OwnerID:     userID,
			Name:        sb.Name,
			Description: sb.Description,
		})
		if err != nil {
			return "", errors.Annotatef(err, "bootcamp %q", sb.Name)
		}
		glog.Infof("Seeded bootcamp %q, id %s", sb.Name, bootcampID)
	}

	return userID, nil
}
