package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aura/internal/services"
)

// RecordingSearcher is the catalog search surface the handler needs
type RecordingSearcher interface {
	SearchRecordings(ctx context.Context, query string, limit int) ([]services.Recording, error)
}

// SearchHandler proxies free-text recording searches to MusicBrainz
type SearchHandler struct {
	musicbrainz RecordingSearcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(musicbrainz RecordingSearcher) *SearchHandler {
	return &SearchHandler{musicbrainz: musicbrainz}
}

// SearchRecordings handles GET /api/v1/search/recordings?q=
func (h *SearchHandler) SearchRecordings(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, gin.H{"recordings": []services.Recording{}})
		return
	}

	recordings, err := h.musicbrainz.SearchRecordings(c.Request.Context(), query, limitQuery(c))
	if err != nil {
		slog.Warn("recording search failed", "query", query, "error", err)
		// Degrade to empty rather than surfacing upstream flakiness
		c.JSON(http.StatusOK, gin.H{"recordings": []services.Recording{}})
		return
	}
	if recordings == nil {
		recordings = []services.Recording{}
	}

	c.JSON(http.StatusOK, gin.H{"recordings": recordings})
}
