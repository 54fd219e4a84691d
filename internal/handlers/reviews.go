package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
	"aura/internal/repositories"
)

// CreateReviewRequest carries a review for a song identified by
// (title, artist); the song is created on first reference.
type CreateReviewRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Artist  string `json:"artist" binding:"required"`
	Album   string `json:"album,omitempty"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// ReviewHandler handles review submission
type ReviewHandler struct {
	songs   repositories.SongRepository
	reviews repositories.ReviewRepository
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(songs repositories.SongRepository, reviews repositories.ReviewRepository) *ReviewHandler {
	return &ReviewHandler{
		songs:   songs,
		reviews: reviews,
	}
}

// CreateReview handles POST /api/v1/reviews: find-or-create the song
// by its (title, artist) identity, then insert the review. A second
// review for the same (user, song) pair is a conflict.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	song, err := h.songs.FindOrCreate(c.Request.Context(), req.Title, req.Artist)
	if err != nil {
		slog.Error("failed to resolve song for review", "title", req.Title, "artist", req.Artist, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve song"})
		return
	}

	review := models.NewReview(userID, song.ID, req.Rating, req.Comment)
	if err := review.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.reviews.Save(c.Request.Context(), review); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReview) {
			c.JSON(http.StatusConflict, gin.H{"error": "you have already reviewed this song"})
			return
		}
		slog.Error("failed to save review", "song_id", song.ID.Hex(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save review"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review, "song": song})
}
