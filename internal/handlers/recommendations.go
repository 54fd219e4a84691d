package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
	"aura/internal/repositories"
	"aura/internal/services"
)

const defaultLimit = 5

// RecommendationHandler exposes the recommendation and aggregate
// operations as JSON endpoints. It is a thin adapter: bind, call the
// core, render.
type RecommendationHandler struct {
	analytics *services.AnalyticsService
	users     repositories.UserRepository
	songs     repositories.SongRepository
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(analytics *services.AnalyticsService, users repositories.UserRepository, songs repositories.SongRepository) *RecommendationHandler {
	return &RecommendationHandler{
		analytics: analytics,
		users:     users,
		songs:     songs,
	}
}

// GetUserRecommendations handles GET /api/v1/users/:id/recommendations
func (h *RecommendationHandler) GetUserRecommendations(c *gin.Context) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	limit := limitQuery(c)
	entries := h.analytics.RecommendationsForUser(c.Request.Context(), user, limit)
	c.JSON(http.StatusOK, gin.H{"recommendations": entries})
}

// GetSongRecommendations handles GET /api/v1/songs/:id/recommendations.
// An optional viewer_id enables the per-user fallback when the song
// has no same-artist siblings.
func (h *RecommendationHandler) GetSongRecommendations(c *gin.Context) {
	songID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	song, err := h.songs.FindByID(c.Request.Context(), songID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load song"})
		return
	}
	if song == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
		return
	}

	viewer, err := h.viewerFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewer_id"})
		return
	}

	limit := limitQuery(c)
	entries := h.analytics.RecommendationsForSong(c.Request.Context(), song, viewer, limit)
	c.JSON(http.StatusOK, gin.H{"recommendations": entries})
}

// GetTopRatedSongs handles GET /api/v1/songs/top-rated
func (h *RecommendationHandler) GetTopRatedSongs(c *gin.Context) {
	songs, err := h.analytics.TopRatedSongs(c.Request.Context(), limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load top rated songs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": songs})
}

// GetUserTopRatedSongs handles GET /api/v1/users/:id/top-rated
func (h *RecommendationHandler) GetUserTopRatedSongs(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	songs, err := h.analytics.UserTopRatedSongs(c.Request.Context(), user, limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load top rated songs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": songs})
}

// GetLastfmTopArtists handles GET /api/v1/users/:id/lastfm/top-artists
func (h *RecommendationHandler) GetLastfmTopArtists(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	artists := h.analytics.LastfmTopArtists(c.Request.Context(), user, limitQuery(c), lookbackQuery(c))
	c.JSON(http.StatusOK, gin.H{"artists": artists})
}

// GetLastfmTopTracks handles GET /api/v1/users/:id/lastfm/top-tracks
func (h *RecommendationHandler) GetLastfmTopTracks(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	tracks := h.analytics.LastfmTopTracks(c.Request.Context(), user, limitQuery(c), lookbackQuery(c))
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (h *RecommendationHandler) loadUser(c *gin.Context) (*models.User, bool) {
	return loadUserByParam(c, h.users)
}

// loadUserByParam resolves the :id route param to a user, writing the
// error response itself on failure
func loadUserByParam(c *gin.Context, users repositories.UserRepository) (*models.User, bool) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return nil, false
	}

	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return nil, false
	}
	return user, true
}

func (h *RecommendationHandler) viewerFromQuery(c *gin.Context) (*models.User, error) {
	raw := c.Query("viewer_id")
	if raw == "" {
		return nil, nil
	}

	viewerID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	// An unknown viewer just disables the per-user fallback
	return h.users.FindByID(c.Request.Context(), viewerID)
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > 50 {
		limit = 50
	}
	return limit
}

func lookbackQuery(c *gin.Context) int {
	lookback, err := strconv.Atoi(c.DefaultQuery("lookback", "100"))
	if err != nil || lookback <= 0 {
		return 100
	}
	if lookback > 500 {
		lookback = 500
	}
	return lookback
}
