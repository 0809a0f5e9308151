package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cinerec/internal/models"
)

type MovieRepository struct {
	col *mongo.Collection
}

func NewMovieRepository(db *mongo.Database) *MovieRepository {
	return &MovieRepository{col: db.Collection("movies")}
}

func (r *MovieRepository) GetByID(ctx context.Context, movieID int) (*models.MovieDoc, error) {
	var m models.MovieDoc
	err := r.col.FindOne(ctx, bson.M{"movieId": movieID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &m, err
}

// All trae el catálogo completo (lo usa el trainer).
func (r *MovieRepository) All(ctx context.Context) ([]models.MovieDoc, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "movieId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeMovies(ctx, cur)
}

func (r *MovieRepository) Search(ctx context.Context, q, genre string, limit, offset int) ([]models.MovieDoc, error) {
	filter := bson.M{}
	if q != "" {
		filter["title"] = bson.M{"$regex": q, "$options": "i"}
	}
	if genre != "" {
		// genres es un array; esto busca que lo contenga
		filter["genres"] = genre
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeMovies(ctx, cur)
}

// Top por popularidad (count) o rating promedio.
func (r *MovieRepository) Top(ctx context.Context, metric string, limit int) ([]models.MovieDoc, error) {
	sortField := "ratingStats.count"
	if metric == "rating" {
		sortField = "ratingStats.average"
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeMovies(ctx, cur)
}

func (r *MovieRepository) InsertMany(ctx context.Context, movies []models.MovieDoc) error {
	if len(movies) == 0 {
		return nil
	}
	docs := make([]any, len(movies))
	for i := range movies {
		docs[i] = movies[i]
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *MovieRepository) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}

// UpdateRatingStats refresca las stats agregadas después de un rating nuevo.
func (r *MovieRepository) UpdateRatingStats(ctx context.Context, movieID int, stats models.RatingStats, updatedAt string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"movieId": movieID},
		bson.M{"$set": bson.M{"ratingStats": stats, "updatedAt": updatedAt}},
	)
	return err
}

func decodeMovies(ctx context.Context, cur *mongo.Cursor) ([]models.MovieDoc, error) {
	var out []models.MovieDoc
	for cur.Next(ctx) {
		var m models.MovieDoc
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}
