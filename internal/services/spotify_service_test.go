package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
)

func newSpotifyTestService(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewSpotifyService("client-id", "client-secret", nil)
	service.client.SetBaseURL(server.URL)
	return service
}

// newSpotifyTestUser has an unexpired access token, so no refresh
// round-trip happens during the test
func newSpotifyTestUser() *models.User {
	return &models.User{
		ID:                    primitive.NewObjectID(),
		Name:                  "Test Listener",
		Email:                 "listener@example.com",
		SpotifyConnected:      true,
		SpotifyAccessToken:    "access-token",
		SpotifyRefreshToken:   "refresh-token",
		SpotifyTokenExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestSpotifyService_RecentTracks(t *testing.T) {
	service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/player/recently-played", r.URL.Path)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"track": {
						"id": "t1",
						"name": "Teardrop",
						"artists": [{"name": "Massive Attack"}],
						"album": {"name": "Mezzanine"},
						"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
					},
					"played_at": "2026-09-01T10:00:00Z"
				}
			]
		}`))
	})

	tracks, err := service.RecentTracks(context.Background(), newSpotifyTestUser(), 5)

	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Teardrop", tracks[0].Name)
	assert.Equal(t, "Massive Attack", tracks[0].Artist)
	assert.Equal(t, "Mezzanine", tracks[0].Album)
	assert.Equal(t, "https://open.spotify.com/track/t1", tracks[0].URL)
	assert.Equal(t, "2026-09-01T10:00:00Z", tracks[0].PlayedAt)
}

func TestSpotifyService_RecentTracks_InactiveUser(t *testing.T) {
	service := NewSpotifyService("client-id", "client-secret", nil)

	tracks, err := service.RecentTracks(context.Background(), newTestUser(false), 5)

	require.NoError(t, err)
	assert.Nil(t, tracks)
}

func TestSpotifyService_SearchTracks(t *testing.T) {
	service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "glory box", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tracks": {
				"items": [
					{
						"id": "t2",
						"name": "Glory Box",
						"artists": [{"name": "Portishead"}, {"name": "Beth Gibbons"}],
						"album": {"name": "Dummy"}
					}
				]
			}
		}`))
	})

	tracks, err := service.SearchTracks(context.Background(), newSpotifyTestUser(), "glory box", 10)

	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Glory Box", tracks[0].Name)
	// Multiple credited artists join into one line
	assert.Equal(t, "Portishead, Beth Gibbons", tracks[0].Artist)
}

func TestSpotifyService_SearchTracks_BlankQuery(t *testing.T) {
	service := NewSpotifyService("client-id", "client-secret", nil)

	tracks, err := service.SearchTracks(context.Background(), newSpotifyTestUser(), "   ", 10)

	require.NoError(t, err)
	assert.Nil(t, tracks)
}

func TestSpotifyService_UpstreamError(t *testing.T) {
	service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	tracks, err := service.RecentTracks(context.Background(), newSpotifyTestUser(), 5)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Nil(t, tracks)
}
