package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"aura/internal/models"
	"aura/internal/repositories"
)

const (
	spotifyAPIURL   = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// SpotifyService reads a user's Spotify listening data with their
// stored OAuth tokens. Expired access tokens are refreshed through the
// oauth2 token source and the new pair is persisted so the next
// request starts warm.
type SpotifyService struct {
	client *resty.Client
	oauth  *oauth2.Config
	users  repositories.UserRepository
}

// NewSpotifyService creates a new Spotify client
func NewSpotifyService(clientID, clientSecret string, users repositories.UserRepository) *SpotifyService {
	client := resty.New().
		SetBaseURL(spotifyAPIURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &SpotifyService{
		client: client,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: spotifyTokenURL,
			},
		},
		users: users,
	}
}

// RecentTracks fetches the user's recently played tracks. Empty when
// the user has no active Spotify connection.
func (s *SpotifyService) RecentTracks(ctx context.Context, user *models.User, limit int) ([]Track, error) {
	if !user.SpotifyActive() {
		return nil, nil
	}

	token, err := s.userToken(ctx, user)
	if err != nil {
		return nil, err
	}

	var result spotifyRecentlyPlayed
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result).
		Get("/me/player/recently-played")
	if err != nil {
		return nil, fmt.Errorf("spotify request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("spotify API returned status %d", resp.StatusCode())
	}

	tracks := make([]Track, 0, len(result.Items))
	for _, item := range result.Items {
		t := item.Track.toTrack()
		t.PlayedAt = item.PlayedAt
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// SearchTracks searches the Spotify catalog on behalf of a user
func (s *SpotifyService) SearchTracks(ctx context.Context, user *models.User, query string, limit int) ([]Track, error) {
	if !user.SpotifyActive() || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	token, err := s.userToken(ctx, user)
	if err != nil {
		return nil, err
	}

	var result spotifySearchResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":     query,
			"type":  "track",
			"limit": strconv.Itoa(limit),
		}).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("spotify request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("spotify API returned status %d", resp.StatusCode())
	}

	tracks := make([]Track, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, nil
}

// userToken returns a valid access token for the user, refreshing and
// persisting it when expired.
func (s *SpotifyService) userToken(ctx context.Context, user *models.User) (string, error) {
	stored := &oauth2.Token{
		AccessToken:  user.SpotifyAccessToken,
		RefreshToken: user.SpotifyRefreshToken,
		Expiry:       user.SpotifyTokenExpiresAt,
		TokenType:    "Bearer",
	}

	current, err := s.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh Spotify token: %w", err)
	}

	if current.AccessToken != stored.AccessToken && s.users != nil {
		if err := s.users.UpdateSpotifyTokens(ctx, user.ID, current.AccessToken, current.RefreshToken, current.Expiry); err != nil {
			// Token still works for this request; the refresh just
			// repeats next time.
			slog.Warn("failed to persist refreshed Spotify token", "user_id", user.ID.Hex(), "error", err)
		}
		user.SpotifyAccessToken = current.AccessToken
		user.SpotifyTokenExpiresAt = current.Expiry
	}

	return current.AccessToken, nil
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (t *spotifyTrack) toTrack() Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return Track{
		Name:   t.Name,
		Artist: strings.Join(names, ", "),
		Album:  t.Album.Name,
		URL:    t.ExternalURLs.Spotify,
	}
}

type spotifyRecentlyPlayed struct {
	Items []struct {
		Track    spotifyTrack `json:"track"`
		PlayedAt string       `json:"played_at"`
	} `json:"items"`
}

type spotifySearchResult struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}
