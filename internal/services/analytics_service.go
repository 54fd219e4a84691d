package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/cache"
	"aura/internal/models"
	"aura/internal/repositories"
)

const (
	analyticsCacheTTL = 1 * time.Hour

	// Per-user recommendation bounds
	seedReviewLimit  = 5
	similarPerSeed   = 10
	recentPlaysLimit = 5
)

// Recommendation entry sources
const (
	SourceLocal  = "local"
	SourceLastfm = "lastfm"
)

// RecommendationEntry is one item of a recommendation result: either a
// persisted local song or a transient external reference that could
// not be resolved against the catalog. Source discriminates the two so
// consumers must handle both explicitly.
type RecommendationEntry struct {
	Source string            `json:"source"`
	Song   *models.RatedSong `json:"song,omitempty"`

	// External reference fields, set when Source != SourceLocal
	Name   string `json:"name,omitempty"`
	Artist string `json:"artist,omitempty"`
	URL    string `json:"url,omitempty"`
}

// IsLocal reports whether the entry is backed by a persisted song
func (e RecommendationEntry) IsLocal() bool {
	return e.Source == SourceLocal && e.Song != nil
}

func localEntry(song *models.RatedSong) RecommendationEntry {
	return RecommendationEntry{Source: SourceLocal, Song: song}
}

func externalEntry(t Track) RecommendationEntry {
	return RecommendationEntry{Source: SourceLastfm, Name: t.Name, Artist: t.Artist, URL: t.URL}
}

// ArtistPlays is a play-count aggregate grouped by artist
type ArtistPlays struct {
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

// TrackPlays is a play-count aggregate grouped by (name, artist)
type TrackPlays struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

// AnalyticsService composes local rating history with external
// listening signals into ranked recommendations. Failures in any
// collaborator degrade to smaller results, never to an error from the
// recommendation operations.
type AnalyticsService struct {
	songs   repositories.SongRepository
	reviews repositories.ReviewRepository
	lastfm  ListeningHistoryClient
	matcher *TrackMatcher
	cache   cache.Cache
}

// NewAnalyticsService creates the recommendation orchestrator. cache
// may be nil, in which case every call recomputes.
func NewAnalyticsService(songs repositories.SongRepository, reviews repositories.ReviewRepository, lastfm ListeningHistoryClient, c cache.Cache) *AnalyticsService {
	return &AnalyticsService{
		songs:   songs,
		reviews: reviews,
		lastfm:  lastfm,
		matcher: NewTrackMatcher(songs),
		cache:   c,
	}
}

// RecommendationsForUser returns up to limit entries for the user,
// computed through three tiers: similar tracks seeded from the user's
// recent reviews, then similar tracks seeded from their recent
// external plays, then the platform-wide recently-reviewed fallback.
// The whole computation is cached for an hour per (user, limit).
func (s *AnalyticsService) RecommendationsForUser(ctx context.Context, user *models.User, limit int) []RecommendationEntry {
	if limit <= 0 {
		return []RecommendationEntry{}
	}
	if user == nil {
		return s.fallbackRecommendations(ctx, limit)
	}

	key := fmt.Sprintf("analytics:recommendations:user:%s:limit:%d", user.ID.Hex(), limit)
	result, err := cache.Fetch(ctx, s.cache, key, analyticsCacheTTL, func(ctx context.Context) ([]RecommendationEntry, error) {
		return s.computeUserRecommendations(ctx, user, limit), nil
	})
	if err != nil {
		// compute never errors; this is unreachable but keeps the
		// contract of always returning a result
		return s.computeUserRecommendations(ctx, user, limit)
	}
	if result == nil {
		result = []RecommendationEntry{}
	}
	return result
}

func (s *AnalyticsService) computeUserRecommendations(ctx context.Context, user *models.User, limit int) []RecommendationEntry {
	suggestions := make([]RecommendationEntry, 0, limit)

	reviewedIDs, err := s.reviews.SongIDsByUser(ctx, user.ID)
	if err != nil {
		slog.Warn("failed to load reviewed song ids", "user_id", user.ID.Hex(), "error", err)
	}

	state := &recommendationState{
		limit:       limit,
		reviewedIDs: idSet(reviewedIDs),
		seenKeys:    make(map[CandidateKey]struct{}),
		selectedIDs: make(map[primitive.ObjectID]struct{}),
	}

	// Tier 1: seeds from the user's most recent reviews
	recent, err := s.reviews.RecentByUser(ctx, user.ID, seedReviewLimit)
	if err != nil {
		slog.Warn("failed to load recent reviews", "user_id", user.ID.Hex(), "error", err)
	}
	seeds := make([]Track, 0, len(recent))
	for _, r := range recent {
		if r.Song != nil {
			seeds = append(seeds, Track{Name: r.Song.Title, Artist: r.Song.Artist})
		}
	}
	if len(seeds) > 0 {
		suggestions = s.appendSimilar(ctx, seeds, state, suggestions)
	}

	// Tier 2: seeds from recent external plays, only when tier 1
	// under-filled and the user has an active connection
	if len(suggestions) < limit && user.LastfmActive() {
		plays, err := s.lastfm.RecentTracks(ctx, user, recentPlaysLimit)
		if err != nil {
			slog.Warn("failed to fetch recent plays", "user_id", user.ID.Hex(), "error", err)
		}
		if len(plays) > 0 {
			suggestions = s.appendSimilar(ctx, plays, state, suggestions)
		}
	}

	// Tier 3: platform-wide fallback when nothing else produced entries
	if len(suggestions) == 0 {
		recents, err := s.songs.RecentlyReviewed(ctx, limit)
		if err != nil {
			slog.Warn("failed to load recently reviewed songs", "error", err)
		}
		for _, song := range recents {
			suggestions = append(suggestions, localEntry(song))
		}
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// recommendationState tracks cross-tier dedup: songs the user already
// reviewed, songs already selected, and candidate keys already seen.
type recommendationState struct {
	limit       int
	reviewedIDs map[primitive.ObjectID]struct{}
	seenKeys    map[CandidateKey]struct{}
	selectedIDs map[primitive.ObjectID]struct{}
}

func (st *recommendationState) excludedIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(st.reviewedIDs)+len(st.selectedIDs))
	for id := range st.reviewedIDs {
		ids = append(ids, id)
	}
	for id := range st.selectedIDs {
		if _, dup := st.reviewedIDs[id]; !dup {
			ids = append(ids, id)
		}
	}
	return ids
}

// appendSimilar fetches similar tracks for every seed, batch-matches
// the combined candidate list against the catalog, and appends entries
// in fetch order until the limit is reached. A failed similarity fetch
// for one seed is logged and skipped.
func (s *AnalyticsService) appendSimilar(ctx context.Context, seeds []Track, state *recommendationState, suggestions []RecommendationEntry) []RecommendationEntry {
	var candidates []Track
	for _, seed := range seeds {
		similar, err := s.lastfm.SimilarTracks(ctx, seed.Artist, seed.Name, similarPerSeed)
		if err != nil {
			slog.Warn("similar tracks fetch failed", "artist", seed.Artist, "name", seed.Name, "error", err)
			continue
		}
		candidates = append(candidates, similar...)
	}
	if len(candidates) == 0 {
		return suggestions
	}

	// De-duplicate by normalized pair, preserving fetch order and
	// skipping anything selected in an earlier tier
	ordered := make([]Track, 0, len(candidates))
	for _, c := range candidates {
		key := NewCandidateKey(c.Name, c.Artist)
		if key.Name == "" {
			continue
		}
		if _, dup := state.seenKeys[key]; dup {
			continue
		}
		state.seenKeys[key] = struct{}{}
		ordered = append(ordered, c)
	}

	resolved, err := s.matcher.ResolveBatch(ctx, ordered, state.excludedIDs())
	if err != nil {
		slog.Warn("candidate batch match failed", "candidates", len(ordered), "error", err)
		resolved = nil
	}

	for _, c := range ordered {
		if len(suggestions) >= state.limit {
			break
		}
		key := NewCandidateKey(c.Name, c.Artist)
		if song, ok := resolved[key]; ok {
			if _, reviewed := state.reviewedIDs[song.ID]; reviewed {
				continue
			}
			if _, selected := state.selectedIDs[song.ID]; selected {
				continue
			}
			state.selectedIDs[song.ID] = struct{}{}
			suggestions = append(suggestions, localEntry(song))
		} else {
			suggestions = append(suggestions, externalEntry(c))
		}
	}
	return suggestions
}

// RecommendationsForSong recommends other songs by the same artist,
// best rated first. When the artist has no other cataloged songs and a
// viewing user is known, it falls back to the full per-user chain.
func (s *AnalyticsService) RecommendationsForSong(ctx context.Context, song *models.Song, viewer *models.User, limit int) []RecommendationEntry {
	if song == nil || limit <= 0 {
		return []RecommendationEntry{}
	}

	siblings, err := s.songs.SongsByArtist(ctx, song.Artist, song.ID, limit)
	if err != nil {
		slog.Warn("same-artist lookup failed", "song_id", song.ID.Hex(), "error", err)
	}
	if len(siblings) > 0 {
		entries := make([]RecommendationEntry, 0, len(siblings))
		for _, sib := range siblings {
			entries = append(entries, localEntry(sib))
		}
		return entries
	}

	if viewer != nil {
		return s.RecommendationsForUser(ctx, viewer, limit)
	}
	return []RecommendationEntry{}
}

// TopRatedSongs returns the platform's best-rated songs, cached for an
// hour per limit.
func (s *AnalyticsService) TopRatedSongs(ctx context.Context, limit int) ([]*models.RatedSong, error) {
	key := fmt.Sprintf("analytics:top_rated_songs:%d", limit)
	return cache.Fetch(ctx, s.cache, key, analyticsCacheTTL, func(ctx context.Context) ([]*models.RatedSong, error) {
		return s.songs.TopRated(ctx, limit)
	})
}

// UserTopRatedSongs returns the songs a user rated highest. Uncached:
// per-user cardinality is too high to cache globally.
func (s *AnalyticsService) UserTopRatedSongs(ctx context.Context, user *models.User, limit int) ([]*models.RatedSong, error) {
	if user == nil {
		return nil, nil
	}
	return s.songs.TopRatedByUser(ctx, user.ID, limit)
}

// fallbackRecommendations is the anonymous variant of tier 3, cached
// platform-wide.
func (s *AnalyticsService) fallbackRecommendations(ctx context.Context, limit int) []RecommendationEntry {
	key := fmt.Sprintf("analytics:most_recently_reviewed_songs:%d", limit)
	entries, err := cache.Fetch(ctx, s.cache, key, analyticsCacheTTL, func(ctx context.Context) ([]RecommendationEntry, error) {
		songs, err := s.songs.RecentlyReviewed(ctx, limit)
		if err != nil {
			slog.Warn("failed to load recently reviewed songs", "error", err)
			return []RecommendationEntry{}, nil
		}
		result := make([]RecommendationEntry, 0, len(songs))
		for _, song := range songs {
			result = append(result, localEntry(song))
		}
		return result, nil
	})
	if err != nil || entries == nil {
		return []RecommendationEntry{}
	}
	return entries
}

// LastfmTopArtists counts the user's recent external plays grouped by
// artist and returns the limit most played, ties broken by first-seen
// order. Empty when the user has no active connection.
func (s *AnalyticsService) LastfmTopArtists(ctx context.Context, user *models.User, limit, lookback int) []ArtistPlays {
	if !user.LastfmActive() {
		return []ArtistPlays{}
	}

	tracks, err := s.lastfm.RecentTracks(ctx, user, lookback)
	if err != nil {
		slog.Warn("failed to fetch listening history", "user_id", user.ID.Hex(), "error", err)
		return []ArtistPlays{}
	}

	counts := make(map[string]int)
	var order []string
	for _, t := range tracks {
		if t.Artist == "" {
			continue
		}
		if _, seen := counts[t.Artist]; !seen {
			order = append(order, t.Artist)
		}
		counts[t.Artist]++
	}

	// Stable sort keeps first-seen order among equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	top := make([]ArtistPlays, 0, len(order))
	for _, artist := range order {
		top = append(top, ArtistPlays{Artist: artist, Plays: counts[artist]})
	}
	return top
}

// LastfmTopTracks is LastfmTopArtists grouped by (name, artist)
func (s *AnalyticsService) LastfmTopTracks(ctx context.Context, user *models.User, limit, lookback int) []TrackPlays {
	if !user.LastfmActive() {
		return []TrackPlays{}
	}

	tracks, err := s.lastfm.RecentTracks(ctx, user, lookback)
	if err != nil {
		slog.Warn("failed to fetch listening history", "user_id", user.ID.Hex(), "error", err)
		return []TrackPlays{}
	}

	type trackKey struct{ name, artist string }
	counts := make(map[trackKey]int)
	var order []trackKey
	for _, t := range tracks {
		if t.Name == "" {
			continue
		}
		key := trackKey{name: t.Name, artist: t.Artist}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	top := make([]TrackPlays, 0, len(order))
	for _, key := range order {
		top = append(top, TrackPlays{Name: key.name, Artist: key.artist, Plays: counts[key]})
	}
	return top
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
