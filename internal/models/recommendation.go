package models

import "time"

// RankedItem es una fila del resultado de cualquier modelo. Score está en
// la escala propia del modelo que la produjo (similitud, rating estimado,
// score híbrido...); solo es comparable dentro de una misma corrida.
type RankedItem struct {
	MovieID     int      `json:"movieId" bson:"movieId"`
	Title       string   `json:"title" bson:"title"`
	Genres      []string `json:"genres" bson:"genres"`
	AvgRating   float64  `json:"avgRating" bson:"avgRating"`
	RatingCount float64  `json:"ratingCount" bson:"ratingCount"`
	Score       float64  `json:"score" bson:"score"`
}

// Recommendation es el historial de lo que se sirvió (colección
// recommendations). Se guarda después de responder, no rompe el request.
type Recommendation struct {
	ID        string       `bson:"_id,omitempty" json:"id"`
	UserID    int          `bson:"userId" json:"userId"`
	Model     string       `bson:"model" json:"model"`
	Params    any          `bson:"params" json:"params"`
	Items     []RankedItem `bson:"items" json:"items"`
	CreatedAt time.Time    `bson:"createdAt" json:"createdAt"`
}
