package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aura/internal/models"
)

// mongoSongRepository implements SongRepository using MongoDB
type mongoSongRepository struct {
	collection *mongo.Collection
}

// NewMongoSongRepository creates a new MongoDB-backed song repository
func NewMongoSongRepository(db *models.Database) SongRepository {
	return &mongoSongRepository{
		collection: db.DB.Collection("songs"),
	}
}

// FindOrCreate resolves a song by normalized identity, inserting it on
// first reference. The upsert keeps concurrent find-or-create calls
// from racing into duplicates.
func (r *mongoSongRepository) FindOrCreate(ctx context.Context, title, artist string) (*models.Song, error) {
	song := models.NewSong(title, artist)
	if song.TitleNorm == "" {
		return nil, fmt.Errorf("song title is required")
	}

	filter := bson.M{"title_norm": song.TitleNorm, "artist_norm": song.ArtistNorm}
	update := bson.M{"$setOnInsert": bson.M{
		"title":       song.Title,
		"artist":      song.Artist,
		"title_norm":  song.TitleNorm,
		"artist_norm": song.ArtistNorm,
		"created_at":  song.CreatedAt,
		"updated_at":  song.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var found models.Song
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&found); err != nil {
		return nil, fmt.Errorf("failed to find or create song: %w", err)
	}
	return &found, nil
}

// FindByID finds a song by its ObjectID; nil when absent
func (r *mongoSongRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Song, error) {
	var song models.Song
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&song)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find song by ID: %w", err)
	}
	return &song, nil
}

// FindByCandidates runs a single OR-composed aggregation across all
// candidate pairs. Fuzzy mode builds substring regexes from the
// normalized values with regexp.QuoteMeta; raw candidate text is never
// interpolated into a pattern.
func (r *mongoSongRepository) FindByCandidates(ctx context.Context, pairs []CandidatePair, excluded []primitive.ObjectID, mode MatchMode) ([]*models.RatedSong, error) {
	ors := make([]bson.M, 0, len(pairs))
	for _, p := range pairs {
		if p.Name == "" {
			continue
		}
		switch mode {
		case MatchFuzzy:
			clause := bson.M{"title_norm": primitive.Regex{Pattern: regexp.QuoteMeta(p.Name)}}
			if p.Artist != "" {
				clause["artist_norm"] = primitive.Regex{Pattern: regexp.QuoteMeta(p.Artist)}
			}
			ors = append(ors, clause)
		default:
			clause := bson.M{"title_norm": p.Name}
			if p.Artist != "" {
				clause["artist_norm"] = p.Artist
			}
			ors = append(ors, clause)
		}
	}
	if len(ors) == 0 {
		return nil, nil
	}

	match := bson.M{"$or": ors}
	if len(excluded) > 0 {
		match["_id"] = bson.M{"$nin": excluded}
	}

	pipeline := []bson.M{{"$match": match}}
	pipeline = append(pipeline, ratedLookupStages()...)
	pipeline = append(pipeline, bson.M{"$sort": bson.D{
		{Key: "avg_rating", Value: -1},
		{Key: "_id", Value: 1},
	}})

	return r.aggregateRated(ctx, pipeline)
}

// SongsByArtist returns rated songs sharing an artist, best average
// rating first. Descending sort places unrated (null) songs last.
func (r *mongoSongRepository) SongsByArtist(ctx context.Context, artist string, exclude primitive.ObjectID, limit int) ([]*models.RatedSong, error) {
	match := bson.M{"artist_norm": models.NormalizeField(artist)}
	if !exclude.IsZero() {
		match["_id"] = bson.M{"$ne": exclude}
	}

	pipeline := []bson.M{{"$match": match}}
	pipeline = append(pipeline, ratedLookupStages()...)
	pipeline = append(pipeline,
		bson.M{"$sort": bson.D{
			{Key: "avg_rating", Value: -1},
			{Key: "_id", Value: 1},
		}},
		bson.M{"$limit": int64(limit)},
	)

	return r.aggregateRated(ctx, pipeline)
}

// TopRated returns reviewed songs ordered by average rating descending
func (r *mongoSongRepository) TopRated(ctx context.Context, limit int) ([]*models.RatedSong, error) {
	pipeline := ratedLookupStages()
	pipeline = append(pipeline,
		bson.M{"$match": bson.M{"avg_rating": bson.M{"$ne": nil}}},
		bson.M{"$sort": bson.D{
			{Key: "avg_rating", Value: -1},
			{Key: "_id", Value: 1},
		}},
		bson.M{"$limit": int64(limit)},
	)

	return r.aggregateRated(ctx, pipeline)
}

// TopRatedByUser restricts the review join to a single user's reviews
func (r *mongoSongRepository) TopRatedByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.RatedSong, error) {
	pipeline := []bson.M{
		{"$lookup": bson.M{
			"from": "reviews",
			"let":  bson.M{"songId": "$_id"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$song_id", "$$songId"}},
					{"$eq": []interface{}{"$user_id", userID}},
				}}}},
			},
			"as": "reviews",
		}},
		{"$addFields": bson.M{
			"avg_rating":       bson.M{"$avg": "$reviews.rating"},
			"last_reviewed_at": bson.M{"$max": "$reviews.created_at"},
		}},
		{"$project": bson.M{"reviews": 0}},
		{"$match": bson.M{"avg_rating": bson.M{"$ne": nil}}},
		{"$sort": bson.D{
			{Key: "avg_rating", Value: -1},
			{Key: "_id", Value: 1},
		}},
		{"$limit": int64(limit)},
	}

	return r.aggregateRated(ctx, pipeline)
}

// RecentlyReviewed returns reviewed songs by most recent review first
func (r *mongoSongRepository) RecentlyReviewed(ctx context.Context, limit int) ([]*models.RatedSong, error) {
	pipeline := ratedLookupStages()
	pipeline = append(pipeline,
		bson.M{"$match": bson.M{"avg_rating": bson.M{"$ne": nil}}},
		bson.M{"$sort": bson.D{
			{Key: "last_reviewed_at", Value: -1},
			{Key: "_id", Value: 1},
		}},
		bson.M{"$limit": int64(limit)},
	)

	return r.aggregateRated(ctx, pipeline)
}

// ratedLookupStages joins songs with their reviews and derives the
// aggregate fields of the RatedSong read model.
func ratedLookupStages() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         "reviews",
			"localField":   "_id",
			"foreignField": "song_id",
			"as":           "reviews",
		}},
		{"$addFields": bson.M{
			"avg_rating":       bson.M{"$avg": "$reviews.rating"},
			"last_reviewed_at": bson.M{"$max": "$reviews.created_at"},
		}},
		{"$project": bson.M{"reviews": 0}},
	}
}

func (r *mongoSongRepository) aggregateRated(ctx context.Context, pipeline []bson.M) ([]*models.RatedSong, error) {
	opts := options.Aggregate().SetMaxTime(10 * time.Second)
	cursor, err := r.collection.Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("song aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var songs []*models.RatedSong
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode rated songs: %w", err)
	}
	return songs, nil
}
