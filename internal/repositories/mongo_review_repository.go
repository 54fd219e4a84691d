package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"aura/internal/models"
)

// mongoReviewRepository implements ReviewRepository using MongoDB
type mongoReviewRepository struct {
	collection *mongo.Collection
}

// NewMongoReviewRepository creates a new MongoDB-backed review repository
func NewMongoReviewRepository(db *models.Database) ReviewRepository {
	return &mongoReviewRepository{
		collection: db.DB.Collection("reviews"),
	}
}

// Save validates and inserts a review. The unique (user_id, song_id)
// index turns a racing duplicate insert into ErrDuplicateReview.
func (r *mongoReviewRepository) Save(ctx context.Context, review *models.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	review.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// RecentByUser returns the user's newest reviews joined with songs
func (r *mongoReviewRepository) RecentByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.ReviewWithSong, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"user_id": userID}},
		{"$sort": bson.D{{Key: "created_at", Value: -1}}},
		{"$limit": int64(limit)},
		{"$lookup": bson.M{
			"from":         "songs",
			"localField":   "song_id",
			"foreignField": "_id",
			"as":           "song",
		}},
		{"$unwind": bson.M{
			"path":                       "$song",
			"preserveNullAndEmptyArrays": true,
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("recent reviews aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []*models.ReviewWithSong
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// SongIDsByUser returns the distinct song ids the user has reviewed
func (r *mongoReviewRepository) SongIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "song_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewed song ids: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
