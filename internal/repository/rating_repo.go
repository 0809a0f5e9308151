package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cinerec/internal/models"
)

type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection("ratings")}
}

func (r *RatingRepository) Upsert(ctx context.Context, userID, movieID int, rating float64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID, "movieId": movieID},
		bson.M{"$set": bson.M{
			"rating": rating,
			// epoch en segundos, igual que el dataset original
			"timestamp": time.Now().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// helpers de casteo seguro: el NDJSON del ETL puede traer int32/int64/double
func asInt(v any) int {
	switch x := v.(type) {
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func decodeRatings(ctx context.Context, cur *mongo.Cursor) ([]models.RatingDoc, error) {
	var out []models.RatingDoc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, models.RatingDoc{
			UserID:    asInt(raw["userId"]),
			MovieID:   asInt(raw["movieId"]),
			Rating:    asFloat64(raw["rating"]),
			Timestamp: asInt64(raw["timestamp"]),
		})
	}
	return out, cur.Err()
}

func (r *RatingRepository) GetByUser(ctx context.Context, userID, limit, offset int) ([]models.RatingDoc, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeRatings(ctx, cur)
}

func (r *RatingRepository) GetAllByUser(ctx context.Context, userID int) ([]models.RatingDoc, error) {
	return r.GetByUser(ctx, userID, 10000, 0)
}

func (r *RatingRepository) GetByMovie(ctx context.Context, movieID int) ([]models.RatingDoc, error) {
	cur, err := r.col.Find(ctx, bson.M{"movieId": movieID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeRatings(ctx, cur)
}

// All trae todos los ratings (lo usa el trainer; con MovieLens small
// entran en memoria sin problema).
func (r *RatingRepository) All(ctx context.Context) ([]models.RatingDoc, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeRatings(ctx, cur)
}

func (r *RatingRepository) InsertMany(ctx context.Context, ratings []models.RatingDoc) error {
	if len(ratings) == 0 {
		return nil
	}
	docs := make([]any, len(ratings))
	for i := range ratings {
		docs[i] = ratings[i]
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *RatingRepository) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
