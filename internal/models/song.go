package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Song represents a catalog entry. Identity is the normalized
// (title, artist) pair; TitleNorm and ArtistNorm are maintained on
// every save so matching queries never need to lower-case at query time.
type Song struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title"`
	Artist     string             `bson:"artist" json:"artist"`
	TitleNorm  string             `bson:"title_norm" json:"-"`
	ArtistNorm string             `bson:"artist_norm" json:"-"`
	Album      string             `bson:"album,omitempty" json:"album,omitempty"`

	// MusicBrainz recording id, when the song was created from a
	// catalog search hit.
	MBID string `bson:"mbid,omitempty" json:"mbid,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewSong creates a new Song with normalized fields populated
func NewSong(title, artist string) *Song {
	now := time.Now()
	s := &Song{
		Title:     strings.TrimSpace(title),
		Artist:    strings.TrimSpace(artist),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Normalize()
	return s
}

// Normalize refreshes the derived matching fields from Title and Artist
func (s *Song) Normalize() {
	s.TitleNorm = NormalizeField(s.Title)
	s.ArtistNorm = NormalizeField(s.Artist)
}

// NormalizeField lower-cases and trims a metadata field for matching
func NormalizeField(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// RatedSong is the read model produced by the grouped review
// aggregations. AvgRating is nil when the song has no reviews.
type RatedSong struct {
	Song           `bson:",inline"`
	AvgRating      *float64   `bson:"avg_rating,omitempty" json:"avg_rating,omitempty"`
	LastReviewedAt *time.Time `bson:"last_reviewed_at,omitempty" json:"last_reviewed_at,omitempty"`
}
