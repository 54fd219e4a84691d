package services

import (
	"context"

	"aura/internal/models"
)

// Track is a loosely-formatted track reference from an external
// service. It is transient: either it resolves to a local Song during
// matching or it is surfaced as an external recommendation entry for
// the lifetime of one response.
type Track struct {
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	URL      string `json:"url,omitempty"`
	PlayedAt string `json:"played_at,omitempty"`
}

// ListeningHistoryClient is the boundary the recommendation
// orchestrator reads external listening signals through. All methods
// block on network I/O; implementations carry their own request
// timeouts, and callers treat an error as an empty result.
type ListeningHistoryClient interface {
	// RecentTracks fetches the user's most recent plays. Empty when the
	// user has no active connection.
	RecentTracks(ctx context.Context, user *models.User, limit int) ([]Track, error)

	// SimilarTracks fetches tracks similar to the given one. Empty when
	// either input is blank.
	SimilarTracks(ctx context.Context, artist, name string, limit int) ([]Track, error)

	// SearchTracks resolves a free-text query against the service
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
}
