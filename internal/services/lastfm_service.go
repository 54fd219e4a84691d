package services

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"aura/internal/models"
)

const lastfmAPIURL = "http://ws.audioscrobbler.com/2.0/"

// LastfmService implements ListeningHistoryClient against the Last.fm
// web API. Authenticated methods sign the request with the shared
// secret; read-only methods go out with the API key alone.
type LastfmService struct {
	client       *resty.Client
	apiKey       string
	sharedSecret string
}

// NewLastfmService creates a new Last.fm client
func NewLastfmService(apiKey, sharedSecret string) *LastfmService {
	client := resty.New().
		SetBaseURL(lastfmAPIURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	return &LastfmService{
		client:       client,
		apiKey:       apiKey,
		sharedSecret: sharedSecret,
	}
}

// RecentTracks fetches the user's most recent plays. Returns empty
// when the user has no active Last.fm connection.
func (s *LastfmService) RecentTracks(ctx context.Context, user *models.User, limit int) ([]Track, error) {
	if !user.LastfmActive() {
		return nil, nil
	}

	params := map[string]string{
		"method": "user.getRecentTracks",
		"user":   user.LastfmUsername,
		"limit":  strconv.Itoa(limit),
	}

	body, err := s.apiCall(ctx, params, user.LastfmSessionKey)
	if err != nil {
		return nil, err
	}

	var resp struct {
		RecentTracks struct {
			Track json.RawMessage `json:"track"`
		} `json:"recenttracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode recent tracks: %w", err)
	}

	return toTracks(decodeTrackList(resp.RecentTracks.Track)), nil
}

// SimilarTracks fetches tracks similar to the given one, bounded to
// limit results. Empty when either input is blank.
func (s *LastfmService) SimilarTracks(ctx context.Context, artist, name string, limit int) ([]Track, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(name) == "" {
		return nil, nil
	}

	params := map[string]string{
		"method":      "track.getSimilar",
		"artist":      artist,
		"track":       name,
		"limit":       strconv.Itoa(limit),
		"autocorrect": "1",
	}

	body, err := s.apiCall(ctx, params, "")
	if err != nil {
		return nil, err
	}

	var resp struct {
		SimilarTracks struct {
			Track json.RawMessage `json:"track"`
		} `json:"similartracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode similar tracks: %w", err)
	}

	return toTracks(decodeTrackList(resp.SimilarTracks.Track)), nil
}

// SearchTracks resolves a free-text query against the Last.fm catalog
func (s *LastfmService) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := map[string]string{
		"method": "track.search",
		"track":  query,
		"limit":  strconv.Itoa(limit),
	}

	body, err := s.apiCall(ctx, params, "")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results struct {
			TrackMatches struct {
				Track json.RawMessage `json:"track"`
			} `json:"trackmatches"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode track search: %w", err)
	}

	return toTracks(decodeTrackList(resp.Results.TrackMatches.Track)), nil
}

// apiCall performs one Last.fm request. A non-empty sessionKey makes
// the call authenticated and signed.
func (s *LastfmService) apiCall(ctx context.Context, params map[string]string, sessionKey string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("lastfm API key not configured")
	}

	params["api_key"] = s.apiKey
	params["format"] = "json"
	if sessionKey != "" {
		if s.sharedSecret == "" {
			return nil, fmt.Errorf("lastfm shared secret not configured")
		}
		params["sk"] = sessionKey
		params["api_sig"] = lastfmSignature(params, s.sharedSecret)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("lastfm request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("lastfm API returned status %d", resp.StatusCode())
	}

	var apiErr struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != 0 {
		return nil, fmt.Errorf("lastfm API error %d: %s", apiErr.Error, apiErr.Message)
	}

	return resp.Body(), nil
}

// lastfmSignature builds the MD5 API signature: parameters sorted by
// name, concatenated as <name><value>, followed by the shared secret.
// api_sig, format and callback are excluded per the signing rules.
func lastfmSignature(params map[string]string, sharedSecret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "api_sig" || k == "format" || k == "callback" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(sharedSecret)

	return fmt.Sprintf("%x", md5.Sum([]byte(b.String())))
}

// lastfmTrack covers the shapes Last.fm uses across its endpoints.
// Artist is a plain string in search results, an object with "#text"
// in recent tracks, and an object with "name" in similar tracks.
type lastfmTrack struct {
	Name   string          `json:"name"`
	URL    string          `json:"url"`
	Artist json.RawMessage `json:"artist"`
	Album  json.RawMessage `json:"album"`
	Date   json.RawMessage `json:"date"`
}

func (t *lastfmTrack) toTrack() Track {
	return Track{
		Name:     t.Name,
		Artist:   lastfmText(t.Artist),
		Album:    lastfmText(t.Album),
		URL:      t.URL,
		PlayedAt: lastfmText(t.Date),
	}
}

func toTracks(raw []lastfmTrack) []Track {
	tracks := make([]Track, 0, len(raw))
	for i := range raw {
		tracks = append(tracks, raw[i].toTrack())
	}
	return tracks
}

// decodeTrackList handles Last.fm returning a single object instead of
// a one-element array
func decodeTrackList(raw json.RawMessage) []lastfmTrack {
	if len(raw) == 0 {
		return nil
	}

	var list []lastfmTrack
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single lastfmTrack
	if err := json.Unmarshal(raw, &single); err == nil {
		return []lastfmTrack{single}
	}
	return nil
}

// lastfmText extracts a display string from a field that may be a
// plain string or an object carrying "#text" or "name"
func lastfmText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Text string `json:"#text"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Text != "" {
			return obj.Text
		}
		return obj.Name
	}
	return ""
}
