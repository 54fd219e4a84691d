package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
)

// ErrDuplicateReview is returned when a user already reviewed a song
var ErrDuplicateReview = errors.New("user has already reviewed this song")

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	// Save validates and inserts a review; ErrDuplicateReview when the
	// (user, song) pair already exists
	Save(ctx context.Context, review *models.Review) error

	// RecentByUser returns the user's most recent reviews, newest first,
	// each joined with its song
	RecentByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.ReviewWithSong, error)

	// SongIDsByUser returns the ids of every song the user has reviewed
	SongIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}
