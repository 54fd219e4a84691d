package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aura/internal/models"
	"aura/internal/repositories"
	"aura/internal/services"
)

// SpotifyHandler exposes a user's Spotify listening data
type SpotifyHandler struct {
	spotify *services.SpotifyService
	users   repositories.UserRepository
}

// NewSpotifyHandler creates a new Spotify handler
func NewSpotifyHandler(spotify *services.SpotifyService, users repositories.UserRepository) *SpotifyHandler {
	return &SpotifyHandler{
		spotify: spotify,
		users:   users,
	}
}

// GetRecentTracks handles GET /api/v1/users/:id/spotify/recent
func (h *SpotifyHandler) GetRecentTracks(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	tracks, err := h.spotify.RecentTracks(c.Request.Context(), user, limitQuery(c))
	if err != nil {
		slog.Warn("spotify recent tracks failed", "user_id", user.ID.Hex(), "error", err)
		tracks = nil
	}
	if tracks == nil {
		tracks = []services.Track{}
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// SearchTracks handles GET /api/v1/users/:id/spotify/search?q=
func (h *SpotifyHandler) SearchTracks(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	tracks, err := h.spotify.SearchTracks(c.Request.Context(), user, query, limitQuery(c))
	if err != nil {
		slog.Warn("spotify search failed", "user_id", user.ID.Hex(), "error", err)
		tracks = nil
	}
	if tracks == nil {
		tracks = []services.Track{}
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (h *SpotifyHandler) loadUser(c *gin.Context) (*models.User, bool) {
	return loadUserByParam(c, h.users)
}
