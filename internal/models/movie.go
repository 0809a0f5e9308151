package models

import "math"

// Estadísticas agregadas de ratings por película (las calcula el ETL
// y las mantiene el servicio de ratings).
type RatingStats struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
	Std     float64 `json:"std" bson:"std"`
}

// MovieDoc es el documento de la colección movies (igual al NDJSON del ETL).
type MovieDoc struct {
	MovieID     int          `json:"movieId" bson:"movieId"`
	Title       string       `json:"title" bson:"title"`
	Year        *int         `json:"year,omitempty" bson:"year,omitempty"`
	Genres      []string     `json:"genres" bson:"genres"`
	UserTags    []string     `json:"userTags,omitempty" bson:"userTags,omitempty"`
	RatingStats *RatingStats `json:"ratingStats,omitempty" bson:"ratingStats,omitempty"`
	CreatedAt   string       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   string       `json:"updatedAt" bson:"updatedAt"`
}

// Item es la fila plana del catálogo que consumen los modelos:
// texto (título, géneros, tags) + estadísticas numéricas agregadas.
// Una película sin ratings lleva AvgRating/RatingStd = NaN; cada modelo
// decide cómo degradar (mediana del catálogo, cero en features, etc.).
type Item struct {
	MovieID     int      `json:"movieId" bson:"movieId"`
	Title       string   `json:"title" bson:"title"`
	Genres      []string `json:"genres" bson:"genres"`
	TagText     string   `json:"tagText" bson:"tagText"`
	AvgRating   float64  `json:"avgRating" bson:"avgRating"`
	RatingCount float64  `json:"ratingCount" bson:"ratingCount"`
	RatingStd   float64  `json:"ratingStd" bson:"ratingStd"`
	Year        *int     `json:"year,omitempty" bson:"year,omitempty"`
}

// ToItem aplana el documento de Mongo a la fila que usan los modelos.
func (m *MovieDoc) ToItem() Item {
	it := Item{
		MovieID:   m.MovieID,
		Title:     m.Title,
		Genres:    m.Genres,
		Year:      m.Year,
		AvgRating: math.NaN(),
		RatingStd: math.NaN(),
	}
	for i, tag := range m.UserTags {
		if i > 0 {
			it.TagText += " "
		}
		it.TagText += tag
	}
	if m.RatingStats != nil {
		it.AvgRating = m.RatingStats.Average
		it.RatingCount = float64(m.RatingStats.Count)
		it.RatingStd = m.RatingStats.Std
	}
	return it
}
