// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package storage // import "devcamper.io/devcamper/server/storage"

import (
	"context"
	"time"

	"github.com/juju/errors"
)

var (
	ErrUserDoesNotExist     = errors.New("user does not exist")
	ErrBootcampDoesNotExist = errors.New("bootcamp does not exist")
	ErrCourseDoesNotExist   = errors.New("course does not exist")
	ErrReviewDoesNotExist   = errors.New("review does not exist")
	ErrReviewAlreadyExists  = errors.New("review already exists")
	ErrAccessTokenExists    = errors.New("access token already exists")
)

type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

type MinimumSkill string

const (
	MinimumSkillBeginner     MinimumSkill = "beginner"
	MinimumSkillIntermediate MinimumSkill = "intermediate"
	MinimumSkillAdvanced     MinimumSkill = "advanced"
)

// Either ID or Username should be given.
type GetUserArgs struct {
	ID       *string
	Username *string
}

type UserData struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

type BootcampData struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	// Both averages are nil until the bootcamp has at least one course
	// (resp. review).
	AverageCost   *float64
	AverageRating *float64
	CreatedAt     time.Time
}

type CourseData struct {
	ID                   string
	BootcampID           string
	OwnerID              string
	Title                string
	Description          string
	Weeks                int
	Tuition              float64
	MinimumSkill         MinimumSkill
	ScholarshipAvailable bool
	CreatedAt            time.Time
}

type ReviewData struct {
	ID         string
	BootcampID string
	OwnerID    string
	Title      string
	Text       string
	Rating     int
	CreatedAt  time.Time
}

type Storage interface {
	//-- Common
	Connect(ctx context.Context) error
	ApplyMigrations(ctx context.Context) error
	Close() error

	//-- Users
	GetUser(ctx context.Context, args *GetUserArgs) (*UserData, error)
	CreateUser(ctx context.Context, ud *UserData) (userID string, err error)
	// Creates a new access token for a given user. If the given token is not
	// empty, use it; otherwise, a random string will be generated. In either
	// case, the effective token is returned.
	//
	// If the token is not unique, ErrAccessTokenExists is returned.
	CreateAccessToken(ctx context.Context, userID string, token string) (string, error)
	GetUserByAccessToken(ctx context.Context, token string) (*UserData, error)

	//-- Bootcamps
	CreateBootcamp(ctx context.Context, bd *BootcampData) (bootcampID string, err error)
	GetBootcamp(ctx context.Context, bootcampID string) (*BootcampData, error)
	// Recomputes AverageCost and AverageRating of the bootcamp from its
	// current courses and reviews.
	UpdateBootcampStats(ctx context.Context, bootcampID string) error

	//-- Courses
	CreateCourse(ctx context.Context, cd *CourseData) (courseID string, err error)
	GetCourse(ctx context.Context, courseID string) (*CourseData, error)
	// opts might be nil: in this case, all courses are returned, oldest first.
	GetCourses(ctx context.Context, opts *ListOpts) ([]CourseData, error)
	CountCourses(ctx context.Context, filters []Filter) (int, error)
	// Overwrites all mutable fields of the course cd.ID. BootcampID, OwnerID
	// and CreatedAt are never changed.
	UpdateCourse(ctx context.Context, cd *CourseData) error
	DeleteCourse(ctx context.Context, courseID string) error

	//-- Reviews
	// At most one review per (BootcampID, OwnerID) is allowed; otherwise,
	// ErrReviewAlreadyExists is returned.
	CreateReview(ctx context.Context, rd *ReviewData) (reviewID string, err error)
	GetReview(ctx context.Context, reviewID string) (*ReviewData, error)
	GetReviews(ctx context.Context, opts *ListOpts) ([]ReviewData, error)
	CountReviews(ctx context.Context, filters []Filter) (int, error)
	UpdateReview(ctx context.Context, rd *ReviewData) error
	DeleteReview(ctx context.Context, reviewID string) error

	//-- Maintenance
	// Returns *IntegrityError if stored bootcamp averages don't match the
	// current courses and reviews.
	CheckIntegrity(ctx context.Context) error
}
