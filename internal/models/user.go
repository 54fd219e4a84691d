package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds account data plus the external-service connection state
// the recommendation core reads. Token exchange happens elsewhere;
// this model only stores the resulting credentials.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`

	LastfmUsername   string `bson:"lastfm_username,omitempty" json:"lastfm_username,omitempty"`
	LastfmSessionKey string `bson:"lastfm_session_key,omitempty" json:"-"`
	LastfmConnected  bool   `bson:"lastfm_connected" json:"lastfm_connected"`

	SpotifyUID            string    `bson:"spotify_uid,omitempty" json:"-"`
	SpotifyAccessToken    string    `bson:"spotify_access_token,omitempty" json:"-"`
	SpotifyRefreshToken   string    `bson:"spotify_refresh_token,omitempty" json:"-"`
	SpotifyTokenExpiresAt time.Time `bson:"spotify_token_expires_at,omitempty" json:"-"`
	SpotifyConnected      bool      `bson:"spotify_connected" json:"spotify_connected"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LastfmActive reports whether authenticated Last.fm calls can be made
// for this user.
func (u *User) LastfmActive() bool {
	return u != nil && u.LastfmConnected && u.LastfmSessionKey != "" && u.LastfmUsername != ""
}

// SpotifyActive reports whether the user has a usable Spotify connection
func (u *User) SpotifyActive() bool {
	return u != nil && u.SpotifyConnected && u.SpotifyAccessToken != ""
}
