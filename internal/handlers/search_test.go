package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aura/internal/services"
)

type mockRecordingSearcher struct {
	mock.Mock
}

func (m *mockRecordingSearcher) SearchRecordings(ctx context.Context, query string, limit int) ([]services.Recording, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.Recording), args.Error(1)
}

func setupSearchRouter(searcher RecordingSearcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSearchHandler(searcher)
	router.GET("/api/v1/search/recordings", handler.SearchRecordings)
	return router
}

func TestSearchRecordings(t *testing.T) {
	searcher := &mockRecordingSearcher{}
	searcher.On("SearchRecordings", mock.Anything, "teardrop", 5).
		Return([]services.Recording{
			{ID: "rec-1", Title: "Teardrop", Artists: "Massive Attack"},
		}, nil).Once()

	router := setupSearchRouter(searcher)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recordings?q=teardrop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recordings []services.Recording `json:"recordings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recordings, 1)
	assert.Equal(t, "Teardrop", resp.Recordings[0].Title)
	assert.Equal(t, "Massive Attack", resp.Recordings[0].Artists)
	searcher.AssertExpectations(t)
}

func TestSearchRecordings_ShortQuery(t *testing.T) {
	searcher := &mockRecordingSearcher{}
	router := setupSearchRouter(searcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recordings?q=a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recordings": []}`, w.Body.String())
	searcher.AssertNotCalled(t, "SearchRecordings")
}

func TestSearchRecordings_UpstreamFailureDegrades(t *testing.T) {
	searcher := &mockRecordingSearcher{}
	searcher.On("SearchRecordings", mock.Anything, "teardrop", 5).
		Return(nil, errors.New("upstream down")).Once()

	router := setupSearchRouter(searcher)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recordings?q=teardrop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recordings": []}`, w.Body.String())
}
