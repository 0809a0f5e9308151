package service

import (
	"context"
	"fmt"
	"time"

	"cinerec/internal/ingest"
	"cinerec/internal/models"
	"cinerec/internal/repository"
)

type RatingService struct {
	ratings *repository.RatingRepository
	movies  *repository.MovieRepository
}

func NewRatingService(ratings *repository.RatingRepository, movies *repository.MovieRepository) *RatingService {
	return &RatingService{ratings: ratings, movies: movies}
}

// Rate registra (o actualiza) el rating de un usuario y refresca las
// stats agregadas de la película. Las stats alimentan al próximo
// entrenamiento; los modelos ya servidos no se tocan.
func (s *RatingService) Rate(ctx context.Context, userID int, req models.RateRequest) error {
	if req.Rating < 0.5 || req.Rating > 5.0 {
		return fmt.Errorf("rating %.1f fuera de la escala 0.5-5.0", req.Rating)
	}

	movie, err := s.movies.GetByID(ctx, req.MovieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return fmt.Errorf("movieId %d no existe", req.MovieID)
	}

	if err := s.ratings.Upsert(ctx, userID, req.MovieID, req.Rating); err != nil {
		return err
	}

	all, err := s.ratings.GetByMovie(ctx, req.MovieID)
	if err != nil {
		return err
	}
	values := make([]float64, len(all))
	for i, r := range all {
		values[i] = r.Rating
	}
	stats := ingest.Stats(values)
	return s.movies.UpdateRatingStats(ctx, req.MovieID, stats, time.Now().UTC().Format(time.RFC3339))
}

func (s *RatingService) GetByUser(ctx context.Context, userID, limit, offset int) ([]models.RatingDoc, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.ratings.GetByUser(ctx, userID, limit, offset)
}
