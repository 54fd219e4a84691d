package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
)

// MatchMode selects the candidate-matching strategy for FindByCandidates
type MatchMode int

const (
	// MatchExact matches normalized title (and artist, when present) by equality
	MatchExact MatchMode = iota
	// MatchFuzzy matches by substring containment on the normalized fields
	MatchFuzzy
)

// CandidatePair is a normalized (name, artist) pair from an external
// source. Artist may be empty, in which case matching is by title alone.
type CandidatePair struct {
	Name   string
	Artist string
}

// SongRepository defines the interface for song data operations
type SongRepository interface {
	// FindOrCreate resolves a song by its normalized (title, artist)
	// identity, creating it on first reference
	FindOrCreate(ctx context.Context, title, artist string) (*models.Song, error)

	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Song, error)

	// FindByCandidates runs one OR-composed query across all candidate
	// pairs, excluding the given ids, joined with reviews and sorted by
	// average rating descending (ties by ascending id). Read-only.
	FindByCandidates(ctx context.Context, pairs []CandidatePair, excluded []primitive.ObjectID, mode MatchMode) ([]*models.RatedSong, error)

	// SongsByArtist returns rated songs sharing an artist, excluding one
	// id, best average rating first with unrated songs last
	SongsByArtist(ctx context.Context, artist string, exclude primitive.ObjectID, limit int) ([]*models.RatedSong, error)

	// TopRated returns reviewed songs ordered by average rating descending
	TopRated(ctx context.Context, limit int) ([]*models.RatedSong, error)

	// TopRatedByUser is TopRated restricted to one user's reviews
	TopRatedByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.RatedSong, error)

	// RecentlyReviewed returns reviewed songs ordered by most recent
	// review, the platform-wide fallback source
	RecentlyReviewed(ctx context.Context, limit int) ([]*models.RatedSong, error)
}
