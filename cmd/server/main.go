package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"aura/internal/cache"
	"aura/internal/config"
	"aura/internal/handlers"
	"aura/internal/models"
	"aura/internal/repositories"
	"aura/internal/services"
)

func main() {
	// Load .env if present; real deployments configure the environment
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDB)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	if err := db.CreateIndexes(ctx); err != nil {
		slog.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	appCache := buildCache(cfg)
	defer appCache.Close()

	songRepo := repositories.NewMongoSongRepository(db)
	reviewRepo := repositories.NewMongoReviewRepository(db)
	userRepo := repositories.NewMongoUserRepository(db)

	lastfm := services.NewLastfmService(cfg.LastfmAPIKey, cfg.LastfmSharedSecret)
	musicbrainz := services.NewMusicbrainzService(cfg.MusicbrainzUserAgent, appCache)
	analytics := services.NewAnalyticsService(songRepo, reviewRepo, lastfm, appCache)

	spotify := services.NewSpotifyService(cfg.SpotifyClientID, cfg.SpotifyClientSecret, userRepo)

	recommendationHandler := handlers.NewRecommendationHandler(analytics, userRepo, songRepo)
	reviewHandler := handlers.NewReviewHandler(songRepo, reviewRepo)
	searchHandler := handlers.NewSearchHandler(musicbrainz)
	spotifyHandler := handlers.NewSpotifyHandler(spotify, userRepo)

	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.GET("/users/:id/recommendations", recommendationHandler.GetUserRecommendations)
		api.GET("/users/:id/top-rated", recommendationHandler.GetUserTopRatedSongs)
		api.GET("/users/:id/lastfm/top-artists", recommendationHandler.GetLastfmTopArtists)
		api.GET("/users/:id/lastfm/top-tracks", recommendationHandler.GetLastfmTopTracks)
		api.GET("/songs/top-rated", recommendationHandler.GetTopRatedSongs)
		api.GET("/songs/:id/recommendations", recommendationHandler.GetSongRecommendations)
		api.GET("/users/:id/spotify/recent", spotifyHandler.GetRecentTracks)
		api.GET("/users/:id/spotify/search", spotifyHandler.SearchTracks)
		api.GET("/search/recordings", searchHandler.SearchRecordings)
		api.POST("/reviews", reviewHandler.CreateReview)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	slog.Info("starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// buildCache prefers Valkey and falls back to the in-process backend
// when no URL is configured or the connection fails; a cache outage
// must never keep the service from starting.
func buildCache(cfg *config.Config) cache.Cache {
	if cfg.ValkeyURL == "" {
		slog.Info("no Valkey URL configured, using in-memory cache")
		return cache.NewMemoryCache()
	}

	c, err := cache.NewValkeyCache(cfg.ValkeyURL)
	if err != nil {
		slog.Warn("failed to connect to Valkey, using in-memory cache", "error", err)
		return cache.NewMemoryCache()
	}
	return c
}
