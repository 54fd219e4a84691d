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

// UserRepository defines the user data operations the core needs:
// lookups for request handling and token persistence after a Spotify
// refresh. Account management lives outside this module.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	// UpdateSpotifyTokens persists a refreshed Spotify token pair
	UpdateSpotifyTokens(ctx context.Context, userID primitive.ObjectID, accessToken, refreshToken string, expiresAt time.Time) error
}

// mongoUserRepository implements UserRepository using MongoDB
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB-backed user repository
func NewMongoUserRepository(db *models.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.DB.Collection("users"),
	}
}

// FindByID finds a user by id; nil when absent
func (r *mongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

// UpdateSpotifyTokens persists a refreshed Spotify token pair
func (r *mongoUserRepository) UpdateSpotifyTokens(ctx context.Context, userID primitive.ObjectID, accessToken, refreshToken string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"spotify_access_token":     accessToken,
		"spotify_token_expires_at": expiresAt,
		"updated_at":               time.Now(),
	}}
	if refreshToken != "" {
		update["$set"].(bson.M)["spotify_refresh_token"] = refreshToken
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to update Spotify tokens: %w", err)
	}
	return nil
}
