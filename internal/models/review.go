package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
)

// Review is a user's rating of a song. At most one review may exist
// per (user, song) pair; the database enforces this with a unique
// compound index since the application performs find-or-create
// without a transactional lock.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	SongID    primitive.ObjectID `bson:"song_id" json:"song_id"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewReview creates a review with timestamps set
func NewReview(userID, songID primitive.ObjectID, rating int, comment string) *Review {
	now := time.Now()
	return &Review{
		UserID:    userID,
		SongID:    songID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the rating range and comment length
func (r *Review) Validate() error {
	if r.UserID.IsZero() {
		return fmt.Errorf("review requires a user")
	}
	if r.SongID.IsZero() {
		return fmt.Errorf("review requires a song")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if len(strings.TrimSpace(r.Comment)) < MinCommentLength {
		return fmt.Errorf("comment must be at least %d characters", MinCommentLength)
	}
	return nil
}

// ReviewWithSong is a review joined with its song, as returned by the
// recent-reviews lookup.
type ReviewWithSong struct {
	Review `bson:",inline"`
	Song   *Song `bson:"song,omitempty" json:"song,omitempty"`
}
