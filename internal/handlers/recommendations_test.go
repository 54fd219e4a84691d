package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
	"aura/internal/services"
)

type recommendationFixture struct {
	router  *gin.Engine
	songs   *services.MockSongRepository
	reviews *services.MockReviewRepository
	lastfm  *services.MockHistoryClient
	users   *services.MockUserRepository
}

func setupRecommendationRouter() *recommendationFixture {
	gin.SetMode(gin.TestMode)

	f := &recommendationFixture{
		songs:   &services.MockSongRepository{},
		reviews: &services.MockReviewRepository{},
		lastfm:  &services.MockHistoryClient{},
		users:   &services.MockUserRepository{},
	}

	analytics := services.NewAnalyticsService(f.songs, f.reviews, f.lastfm, nil)
	handler := NewRecommendationHandler(analytics, f.users, f.songs)

	f.router = gin.New()
	api := f.router.Group("/api/v1")
	api.GET("/users/:id/recommendations", handler.GetUserRecommendations)
	api.GET("/users/:id/top-rated", handler.GetUserTopRatedSongs)
	api.GET("/users/:id/lastfm/top-artists", handler.GetLastfmTopArtists)
	api.GET("/songs/top-rated", handler.GetTopRatedSongs)
	api.GET("/songs/:id/recommendations", handler.GetSongRecommendations)
	return f
}

func (f *recommendationFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func testRatedSong(title, artist string, avg float64) *models.RatedSong {
	song := models.NewSong(title, artist)
	song.ID = primitive.NewObjectID()
	return &models.RatedSong{Song: *song, AvgRating: &avg}
}

func TestGetUserRecommendations(t *testing.T) {
	f := setupRecommendationRouter()

	user := &models.User{ID: primitive.NewObjectID(), Name: "Listener"}
	fallback := testRatedSong("Protection", "Massive Attack", 3.9)

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.reviews.On("SongIDsByUser", mock.Anything, user.ID).
		Return([]primitive.ObjectID{}, nil).Once()
	f.reviews.On("RecentByUser", mock.Anything, user.ID, mock.Anything).
		Return([]*models.ReviewWithSong{}, nil).Once()
	f.songs.On("RecentlyReviewed", mock.Anything, 5).
		Return([]*models.RatedSong{fallback}, nil).Once()

	w := f.get(t, "/api/v1/users/"+user.ID.Hex()+"/recommendations")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []services.RecommendationEntry `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, services.SourceLocal, resp.Recommendations[0].Source)
	assert.Equal(t, fallback.ID, resp.Recommendations[0].Song.ID)
}

func TestGetUserRecommendations_InvalidID(t *testing.T) {
	f := setupRecommendationRouter()

	w := f.get(t, "/api/v1/users/nope/recommendations")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserRecommendations_UserNotFound(t *testing.T) {
	f := setupRecommendationRouter()

	userID := primitive.NewObjectID()
	f.users.On("FindByID", mock.Anything, userID).Return(nil, nil).Once()

	w := f.get(t, "/api/v1/users/"+userID.Hex()+"/recommendations")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSongRecommendations(t *testing.T) {
	f := setupRecommendationRouter()

	song := models.NewSong("Karma Police", "Radiohead")
	song.ID = primitive.NewObjectID()
	sibling := testRatedSong("No Surprises", "Radiohead", 4.9)

	f.songs.On("FindByID", mock.Anything, song.ID).Return(song, nil).Once()
	f.songs.On("SongsByArtist", mock.Anything, "Radiohead", song.ID, 5).
		Return([]*models.RatedSong{sibling}, nil).Once()

	w := f.get(t, "/api/v1/songs/"+song.ID.Hex()+"/recommendations")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []services.RecommendationEntry `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, sibling.ID, resp.Recommendations[0].Song.ID)
}

func TestGetSongRecommendations_InvalidViewer(t *testing.T) {
	f := setupRecommendationRouter()

	song := models.NewSong("Karma Police", "Radiohead")
	song.ID = primitive.NewObjectID()
	f.songs.On("FindByID", mock.Anything, song.ID).Return(song, nil).Once()

	w := f.get(t, "/api/v1/songs/"+song.ID.Hex()+"/recommendations?viewer_id=bogus")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid viewer_id")
}

func TestGetTopRatedSongs(t *testing.T) {
	f := setupRecommendationRouter()

	top := testRatedSong("Unfinished Sympathy", "Massive Attack", 4.7)
	f.songs.On("TopRated", mock.Anything, 5).
		Return([]*models.RatedSong{top}, nil).Once()

	w := f.get(t, "/api/v1/songs/top-rated")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unfinished Sympathy")
}

func TestGetTopRatedSongs_LimitCapped(t *testing.T) {
	f := setupRecommendationRouter()

	f.songs.On("TopRated", mock.Anything, 50).
		Return([]*models.RatedSong{}, nil).Once()

	w := f.get(t, "/api/v1/songs/top-rated?limit=9999")

	assert.Equal(t, http.StatusOK, w.Code)
	f.songs.AssertExpectations(t)
}

func TestGetUserTopRatedSongs(t *testing.T) {
	f := setupRecommendationRouter()

	user := &models.User{ID: primitive.NewObjectID(), Name: "Listener"}
	top := testRatedSong("Glory Box", "Portishead", 5.0)

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.songs.On("TopRatedByUser", mock.Anything, user.ID, 5).
		Return([]*models.RatedSong{top}, nil).Once()

	w := f.get(t, "/api/v1/users/"+user.ID.Hex()+"/top-rated")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Glory Box")
}

func TestGetLastfmTopArtists(t *testing.T) {
	f := setupRecommendationRouter()

	user := &models.User{
		ID:               primitive.NewObjectID(),
		LastfmConnected:  true,
		LastfmUsername:   "listener",
		LastfmSessionKey: "session-key",
	}

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.lastfm.On("RecentTracks", mock.Anything, user, 100).
		Return([]services.Track{
			{Name: "t1", Artist: "Radiohead"},
			{Name: "t2", Artist: "Radiohead"},
		}, nil).Once()

	w := f.get(t, "/api/v1/users/"+user.ID.Hex()+"/lastfm/top-artists")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Artists []services.ArtistPlays `json:"artists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Artists, 1)
	assert.Equal(t, services.ArtistPlays{Artist: "Radiohead", Plays: 2}, resp.Artists[0])
}
