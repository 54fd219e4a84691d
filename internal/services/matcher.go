package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
	"aura/internal/repositories"
)

// CandidateKey identifies an external candidate by its normalized
// (name, artist) pair.
type CandidateKey struct {
	Name   string
	Artist string
}

// NewCandidateKey normalizes a raw (name, artist) pair
func NewCandidateKey(name, artist string) CandidateKey {
	return CandidateKey{
		Name:   models.NormalizeField(name),
		Artist: models.NormalizeField(artist),
	}
}

// TrackMatcher resolves batches of externally-sourced (name, artist)
// candidates to local songs in at most two catalog queries regardless
// of batch size: one exact pass over all candidates, and one fuzzy
// substring pass only if the exact pass matched nothing at all.
type TrackMatcher struct {
	songs repositories.SongRepository
}

// NewTrackMatcher creates a matcher over the given catalog
func NewTrackMatcher(songs repositories.SongRepository) *TrackMatcher {
	return &TrackMatcher{songs: songs}
}

// ResolveBatch maps each candidate to at most one local song, keyed by
// the candidate's normalized pair. Candidates with a blank name are
// skipped; candidates without an artist match on title alone; a
// candidate matching nothing is absent from the map. When several
// songs match one candidate the best average rating wins, ties broken
// by lowest id. Read-only: unmatched candidates are the caller's
// problem.
func (m *TrackMatcher) ResolveBatch(ctx context.Context, candidates []Track, excluded []primitive.ObjectID) (map[CandidateKey]*models.RatedSong, error) {
	keys := dedupeCandidates(candidates)
	if len(keys) == 0 {
		return map[CandidateKey]*models.RatedSong{}, nil
	}

	pairs := make([]repositories.CandidatePair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, repositories.CandidatePair{Name: k.Name, Artist: k.Artist})
	}

	found, err := m.songs.FindByCandidates(ctx, pairs, excluded, repositories.MatchExact)
	if err != nil {
		return nil, err
	}

	mode := repositories.MatchExact
	if len(found) == 0 {
		// All-or-nothing fallback: the fuzzy pass runs only when the
		// exact pass matched nothing.
		mode = repositories.MatchFuzzy
		found, err = m.songs.FindByCandidates(ctx, pairs, excluded, repositories.MatchFuzzy)
		if err != nil {
			return nil, err
		}
	}

	// Results arrive best-rated first, so the first song satisfying a
	// candidate is the one to keep.
	resolved := make(map[CandidateKey]*models.RatedSong, len(keys))
	for _, key := range keys {
		for _, song := range found {
			if candidateMatches(key, song, mode) {
				resolved[key] = song
				break
			}
		}
	}
	return resolved, nil
}

// dedupeCandidates normalizes candidates, drops blank names, and
// removes duplicates while preserving first-seen order
func dedupeCandidates(candidates []Track) []CandidateKey {
	seen := make(map[CandidateKey]struct{}, len(candidates))
	keys := make([]CandidateKey, 0, len(candidates))
	for _, c := range candidates {
		key := NewCandidateKey(c.Name, c.Artist)
		if key.Name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func candidateMatches(key CandidateKey, song *models.RatedSong, mode repositories.MatchMode) bool {
	if mode == repositories.MatchFuzzy {
		if !strings.Contains(song.TitleNorm, key.Name) {
			return false
		}
		return key.Artist == "" || strings.Contains(song.ArtistNorm, key.Artist)
	}

	if song.TitleNorm != key.Name {
		return false
	}
	return key.Artist == "" || song.ArtistNorm == key.Artist
}
