package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port       string `envconfig:"PORT" default:"8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"debug"`
	MongodbURL string `envconfig:"MONGODB_URL" required:"true"`
	MongodbDB  string `envconfig:"MONGODB_DB" default:"aura"`

	// Cache backend; empty falls back to the in-process cache
	ValkeyURL string `envconfig:"VALKEY_URL"`

	// Last.fm credentials
	LastfmAPIKey       string `envconfig:"LASTFM_API_KEY"`
	LastfmSharedSecret string `envconfig:"LASTFM_SHARED_SECRET"`

	// Spotify credentials
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`

	// MusicBrainz requires a descriptive User-Agent with contact info
	MusicbrainzUserAgent string `envconfig:"MUSICBRAINZ_USER_AGENT" default:"AuraApp/1.0 (aura@example.com)"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// LastfmEnabled reports whether Last.fm calls can be made
func (c *Config) LastfmEnabled() bool {
	return c.LastfmAPIKey != ""
}

// SpotifyEnabled reports whether Spotify calls can be made
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
