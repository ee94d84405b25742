// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package mongo

import (
	"time"

	"devcamper.io/devcamper/server/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document field names of courses and reviews match storage.Field* constants,
// so that filters and sort fields map to bson keys directly.

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	Role     storage.Role       `bson:"role"`
}

type tokenDoc struct {
	Token  string             `bson:"_id"`
	UserID primitive.ObjectID `bson:"user"`
}

type bootcampDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	OwnerID       primitive.ObjectID `bson:"user"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description"`
	AverageCost   *float64           `bson:"averageCost,omitempty"`
	AverageRating *float64           `bson:"averageRating,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

type courseDoc struct {
	ID                   primitive.ObjectID   `bson:"_id"`
	BootcampID           primitive.ObjectID   `bson:"bootcamp"`
	OwnerID              primitive.ObjectID   `bson:"user"`
	Title                string               `bson:"title"`
	Description          string               `bson:"description"`
	Weeks                int                  `bson:"weeks"`
	Tuition              float64              `bson:"tuition"`
	MinimumSkill         storage.MinimumSkill `bson:"minimumSkill"`
	ScholarshipAvailable bool                 `bson:"scholarshipAvailable"`
	CreatedAt            time.Time            `bson:"createdAt"`
}

type reviewDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	BootcampID primitive.ObjectID `bson:"bootcamp"`
	OwnerID    primitive.ObjectID `bson:"user"`
	Title      string             `bson:"title"`
	Text       string             `bson:"text"`
	Rating     int                `bson:"rating"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d *userDoc) data() *storage.UserData {
	return &storage.UserData{
		ID:       d.ID.Hex(),
		Username: d.Username,
		Email:    d.Email,
		Role:     d.Role,
	}
}

func (d *bootcampDoc) data() *storage.BootcampData {
	return &storage.BootcampData{
		ID:            d.ID.Hex(),
		OwnerID:       d.OwnerID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		AverageCost:   d.AverageCost,
		AverageRating: d.AverageRating,
		CreatedAt:     d.CreatedAt,
	}
}

func (d *courseDoc) data() storage.CourseData {
	return storage.CourseData{
		ID:                   d.ID.Hex(),
		BootcampID:           d.BootcampID.Hex(),
		OwnerID:              d.OwnerID.Hex(),
		Title:                d.Title,
		Description:          d.Description,
		Weeks:                d.Weeks,
		Tuition:              d.Tuition,
		MinimumSkill:         d.MinimumSkill,
		ScholarshipAvailable: d.ScholarshipAvailable,
		CreatedAt:            d.CreatedAt,
	}
}

func (d *reviewDoc) data() storage.ReviewData {
	return storage.ReviewData{
		ID:         d.ID.Hex(),
		BootcampID: d.BootcampID.Hex(),
		OwnerID:    d.OwnerID.Hex(),
		Title:      d.Title,
		Text:       d.Text,
		Rating:     d.Rating,
		CreatedAt:  d.CreatedAt,
	}
}
