package ingest

import (
	"math"
	"sort"
	"time"

	"cinerec/internal/models"
)

// Stats agrega los ratings de una película: promedio, conteo y
// desviación estándar (poblacional, igual que el pipeline original).
func Stats(ratings []float64) models.RatingStats {
	n := float64(len(ratings))
	if n == 0 {
		return models.RatingStats{}
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	mean := sum / n

	var sq float64
	for _, r := range ratings {
		d := r - mean
		sq += d * d
	}
	return models.RatingStats{
		Average: mean,
		Count:   len(ratings),
		Std:     math.Sqrt(sq / n),
	}
}

// BuildMovieDocs junta películas + ratings + tags en los documentos
// finales de la colección movies. Ratings duplicados (user,movie) se
// deduplican quedándose con el más reciente.
func BuildMovieDocs(movies []RawMovie, ratings []RawRating, tags []RawTag) []models.MovieDoc {
	byMovie := make(map[int][]float64)
	for _, r := range DedupRatings(ratings) {
		byMovie[r.MovieID] = append(byMovie[r.MovieID], r.Rating)
	}

	tagsByMovie := make(map[int][]string)
	for _, t := range tags {
		tagsByMovie[t.MovieID] = append(tagsByMovie[t.MovieID], t.Tag)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	docs := make([]models.MovieDoc, 0, len(movies))
	for _, m := range movies {
		title, year := ParseTitleYear(m.Title)
		doc := models.MovieDoc{
			MovieID:   m.MovieID,
			Title:     title,
			Year:      year,
			Genres:    m.Genres,
			UserTags:  tagsByMovie[m.MovieID],
			CreatedAt: now,
			UpdatedAt: now,
		}
		if rs, ok := byMovie[m.MovieID]; ok {
			stats := Stats(rs)
			doc.RatingStats = &stats
		}
		docs = append(docs, doc)
	}
	return docs
}

// DedupRatings deja un rating por par (user, movie), el de timestamp
// más alto.
func DedupRatings(ratings []RawRating) []RawRating {
	type key struct{ u, m int }
	best := make(map[key]RawRating, len(ratings))
	order := make([]key, 0, len(ratings))
	for _, r := range ratings {
		k := key{r.UserID, r.MovieID}
		prev, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = r
			continue
		}
		if r.Timestamp >= prev.Timestamp {
			best[k] = r
		}
	}
	out := make([]RawRating, 0, len(best))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// ToRatingDocs convierte las filas crudas al documento de Mongo.
func ToRatingDocs(ratings []RawRating) []models.RatingDoc {
	out := make([]models.RatingDoc, len(ratings))
	for i, r := range ratings {
		out[i] = models.RatingDoc{
			UserID:    r.UserID,
			MovieID:   r.MovieID,
			Rating:    r.Rating,
			Timestamp: r.Timestamp,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].MovieID < out[j].MovieID
	})
	return out
}
