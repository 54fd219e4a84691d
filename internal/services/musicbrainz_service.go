package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"aura/internal/cache"
)

const (
	musicbrainzAPIURL   = "https://musicbrainz.org/ws/2"
	musicbrainzCacheTTL = 1 * time.Hour
)

// Recording is a MusicBrainz recording search hit. Artists is the
// joined artist-credit line; formatting is not guaranteed to match the
// local catalog, which is what the matching engine is for.
type Recording struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artists     string `json:"artists"`
	Release     string `json:"release,omitempty"`
	ReleaseID   string `json:"release_id,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// MusicbrainzService resolves free-text queries against the
// MusicBrainz recording database. MusicBrainz allows one request per
// second per client, so every call waits on a rate limiter; results
// are cached for an hour keyed by the lower-cased query.
type MusicbrainzService struct {
	client    *resty.Client
	limiter   *rate.Limiter
	cache     cache.Cache
	userAgent string
}

// NewMusicbrainzService creates a new MusicBrainz search client.
// userAgent must be descriptive per the MusicBrainz guidelines.
func NewMusicbrainzService(userAgent string, c cache.Cache) *MusicbrainzService {
	client := resty.New().
		SetBaseURL(musicbrainzAPIURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &MusicbrainzService{
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		cache:     c,
		userAgent: userAgent,
	}
}

// SearchRecordings searches recordings by free-text query. Queries
// shorter than 2 characters return empty without a request.
func (s *MusicbrainzService) SearchRecordings(ctx context.Context, query string, limit int) ([]Recording, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("musicbrainz:search:%s:limit:%d", strings.ToLower(query), limit)
	return cache.Fetch(ctx, s.cache, key, musicbrainzCacheTTL, func(ctx context.Context) ([]Recording, error) {
		return s.searchRecordings(ctx, query, limit)
	})
}

func (s *MusicbrainzService) searchRecordings(ctx context.Context, query string, limit int) ([]Recording, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("musicbrainz rate limit wait: %w", err)
	}

	var result mbSearchResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", s.userAgent).
		SetQueryParams(map[string]string{
			"query": query,
			"fmt":   "json",
			"limit": strconv.Itoa(limit),
		}).
		SetResult(&result).
		Get("/recording")
	if err != nil {
		return nil, fmt.Errorf("musicbrainz request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("musicbrainz API returned status %d", resp.StatusCode())
	}

	recordings := make([]Recording, 0, len(result.Recordings))
	for _, rec := range result.Recordings {
		r := Recording{
			ID:      rec.ID,
			Title:   rec.Title,
			Artists: joinArtistCredit(rec.ArtistCredit),
		}
		if len(rec.Releases) > 0 {
			r.Release = rec.Releases[0].Title
			r.ReleaseID = rec.Releases[0].ID
			r.ReleaseDate = rec.Releases[0].Date
		}
		recordings = append(recordings, r)
	}
	return recordings, nil
}

type mbSearchResult struct {
	Recordings []mbRecording `json:"recordings"`
}

type mbRecording struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Releases     []mbRelease      `json:"releases"`
}

type mbArtistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type mbRelease struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

func joinArtistCredit(credits []mbArtistCredit) string {
	names := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Artist.Name
		if name == "" {
			name = c.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
