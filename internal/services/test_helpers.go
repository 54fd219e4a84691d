package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aura/internal/models"
	"aura/internal/repositories"
)

// MockSongRepository is a mock implementation of repositories.SongRepository
type MockSongRepository struct {
	mock.Mock
}

func (m *MockSongRepository) FindOrCreate(ctx context.Context, title, artist string) (*models.Song, error) {
	args := m.Called(ctx, title, artist)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Song), args.Error(1)
}

func (m *MockSongRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Song, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Song), args.Error(1)
}

func (m *MockSongRepository) FindByCandidates(ctx context.Context, pairs []repositories.CandidatePair, excluded []primitive.ObjectID, mode repositories.MatchMode) ([]*models.RatedSong, error) {
	args := m.Called(ctx, pairs, excluded, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatedSong), args.Error(1)
}

func (m *MockSongRepository) SongsByArtist(ctx context.Context, artist string, exclude primitive.ObjectID, limit int) ([]*models.RatedSong, error) {
	args := m.Called(ctx, artist, exclude, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatedSong), args.Error(1)
}

func (m *MockSongRepository) TopRated(ctx context.Context, limit int) ([]*models.RatedSong, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatedSong), args.Error(1)
}

func (m *MockSongRepository) TopRatedByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.RatedSong, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatedSong), args.Error(1)
}

func (m *MockSongRepository) RecentlyReviewed(ctx context.Context, limit int) ([]*models.RatedSong, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatedSong), args.Error(1)
}

// MockReviewRepository is a mock implementation of repositories.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Save(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) RecentByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.ReviewWithSong, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReviewWithSong), args.Error(1)
}

func (m *MockReviewRepository) SongIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateSpotifyTokens(ctx context.Context, userID primitive.ObjectID, accessToken, refreshToken string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

// MockHistoryClient is a mock implementation of ListeningHistoryClient
type MockHistoryClient struct {
	mock.Mock
}

func (m *MockHistoryClient) RecentTracks(ctx context.Context, user *models.User, limit int) ([]Track, error) {
	args := m.Called(ctx, user, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Track), args.Error(1)
}

func (m *MockHistoryClient) SimilarTracks(ctx context.Context, artist, name string, limit int) ([]Track, error) {
	args := m.Called(ctx, artist, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Track), args.Error(1)
}

func (m *MockHistoryClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Track), args.Error(1)
}

// newTestRatedSong builds a persisted-looking rated song for tests
func newTestRatedSong(title, artist string, avgRating float64) *models.RatedSong {
	song := models.NewSong(title, artist)
	song.ID = primitive.NewObjectID()
	rated := &models.RatedSong{Song: *song}
	if avgRating > 0 {
		rated.AvgRating = &avgRating
		now := time.Now()
		rated.LastReviewedAt = &now
	}
	return rated
}

// newTestUser builds a user with an active Last.fm connection
func newTestUser(lastfmConnected bool) *models.User {
	user := &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Test Listener",
		Email: "listener@example.com",
	}
	if lastfmConnected {
		user.LastfmConnected = true
		user.LastfmUsername = "listener"
		user.LastfmSessionKey = "session-key"
	}
	return user
}
