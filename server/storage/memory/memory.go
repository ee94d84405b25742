// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

// Package memory implements storage.Storage in process memory. Data is lost
// on restart; it's used by unit tests and for local experiments.
package memory // import "devcamper.io/devcamper/server/storage/memory"

import (
	"context"
	"sync"
	"time"

	"devcamper.io/devcamper/server/storage"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	accessTokenLen = 32
)

type bootcampRec struct {
	storage.BootcampData
	seq uint64
}

type courseRec struct {
	storage.CourseData
	seq uint64
}

type reviewRec struct {
	storage.ReviewData
	seq uint64
}

// Implements storage.Storage
type StorageMemory struct {
	mtx sync.RWMutex

	// seq is incremented on every insertion; it breaks ties between records
	// created at the same time.
	seq uint64

	users     map[string]*storage.UserData
	tokens    map[string]string
	bootcamps map[string]*bootcampRec
	courses   map[string]*courseRec
	reviews   map[string]*reviewRec

	now func() time.Time
}

func New() *StorageMemory {
	return &StorageMemory{
		users:     make(map[string]*storage.UserData),
		tokens:    make(map[string]string),
		bootcamps: make(map[string]*bootcampRec),
		courses:   make(map[string]*courseRec),
		reviews:   make(map[string]*reviewRec),
		now:       time.Now,
	}
}

func (s *StorageMemory) Connect(ctx context.Context) error {
	return nil
}

func (s *StorageMemory) ApplyMigrations(ctx context.Context) error {
	return nil
}

func (s *StorageMemory) Close() error {
	return nil
}

func (s *StorageMemory) nextSeq() uint64 {
	s.seq++
	return s.seq
}

//-- Users

func (s *StorageMemory) GetUser(
	ctx context.Context, args *storage.GetUserArgs,
) (*storage.UserData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	switch {
	case args.ID != nil:
		if ud, ok := s.users[*args.ID]; ok {
			ret := *ud
			return &ret, nil
		}
	case args.Username != nil:
		for _, ud := range s.users {
			if ud.Username == *args.Username {
				ret := *ud
				return &ret, nil
			}
		}
	default:
		return nil, errors.Errorf(
			"neither id nor username is given to storage.GetUser()",
		)
	}

	return nil, errors.Trace(storage.ErrUserDoesNotExist)
}

func (s *StorageMemory) CreateUser(
	ctx context.Context, ud *storage.UserData,
) (userID string, err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, cur := range s.users {
		if cur.Username == ud.Username {
			return "", errors.Errorf("user %q already exists", ud.Username)
		}
	}

	rec := *ud
	rec.ID = uuid.NewString()
	if rec.Role == "" {
		rec.Role = storage.RoleUser
	}
	s.users[rec.ID] = &rec

	return rec.ID, nil
}

func (s *StorageMemory) CreateAccessToken(
	ctx context.Context, userID string, token string,
) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[userID]; !ok {
		return "", errors.Trace(storage.ErrUserDoesNotExist)
	}

	if token == "" {
		token = uniuri.NewLen(accessTokenLen)
	}

	if _, ok := s.tokens[token]; ok {
		return "", errors.Trace(storage.ErrAccessTokenExists)
	}

	s.tokens[token] = userID
	return token, nil
}

func (s *StorageMemory) GetUserByAccessToken(
	ctx context.Context, token string,
) (*storage.UserData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	userID, ok := s.tokens[token]
	if !ok {
		return nil, errors.Trace(storage.ErrUserDoesNotExist)
	}

	ud, ok := s.users[userID]
	if !ok {
		return nil, errors.Trace(storage.ErrUserDoesNotExist)
	}

	ret := *ud
	return &ret, nil
}

//-- Bootcamps

func (s *StorageMemory) CreateBootcamp(
	ctx context.Context, bd *storage.BootcampData,
) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[bd.OwnerID]; !ok {
		return "", errors.Annotatef(
			storage.ErrUserDoesNotExist, "bootcamp owner %q", bd.OwnerID,
		)
	}

	rec := &bootcampRec{BootcampData: *bd, seq: s.nextSeq()}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	rec.AverageCost = nil
	rec.AverageRating = nil
	s.bootcamps[rec.ID] = rec

	return rec.ID, nil
}

func (s *StorageMemory) GetBootcamp(
	ctx context.Context, bootcampID string,
) (*storage.BootcampData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.bootcamps[bootcampID]
	if !ok {
		return nil, errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	ret := rec.BootcampData
	return &ret, nil
}

func (s *StorageMemory) UpdateBootcampStats(
	ctx context.Context, bootcampID string,
) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.bootcamps[bootcampID]
	if !ok {
		return errors.Trace(storage.ErrBootcampDoesNotExist)
	}

	rec.AverageCost, rec.AverageRating = s.computeStats(bootcampID)

	return nil
}

// computeStats returns the average tuition and rating of the bootcamp; nil
// means there are no courses (resp. reviews). Must be called with s.mtx held.
func (s *StorageMemory) computeStats(bootcampID string) (avgCost, avgRating *float64) {
	var tuitionSum float64
	var coursesCnt int
	for _, c := range s.courses {
		if c.BootcampID == bootcampID {
			tuitionSum += c.Tuition
			coursesCnt++
		}
	}

	var ratingSum, reviewsCnt int
	for _, r := range s.reviews {
		if r.BootcampID == bootcampID {
			ratingSum += r.Rating
			reviewsCnt++
		}
	}

	if coursesCnt > 0 {
		avg := tuitionSum / float64(coursesCnt)
		avgCost = &avg
	}

	if reviewsCnt > 0 {
		avg := float64(ratingSum) / float64(reviewsCnt)
		avgRating = &avg
	}

	return avgCost, avgRating
}

//-- Maintenance

func (s *StorageMemory) CheckIntegrity(ctx context.Context) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var mismatches []storage.StatsMismatch
	for id, rec := range s.bootcamps {
		cost, rating := s.computeStats(id)
		mismatches = storage.CompareStat(mismatches, id, "averageCost", rec.AverageCost, cost)
		mismatches = storage.CompareStat(mismatches, id, "averageRating", rec.AverageRating, rating)
	}

	return storage.IntegrityResult(mismatches)
}
