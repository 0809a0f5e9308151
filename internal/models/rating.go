package models

// RatingDoc es lo que está en Mongo (y lo que consumen los modelos como
// historial de un usuario). Timestamp es epoch en segundos; 0 = sin fecha.
type RatingDoc struct {
	UserID    int     `json:"userId" bson:"userId"`
	MovieID   int     `json:"movieId" bson:"movieId"`
	Rating    float64 `json:"rating" bson:"rating"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// Body para registrar/actualizar un rating por API.
type RateRequest struct {
	MovieID int     `json:"movieId"`
	Rating  float64 `json:"rating"` // escala 0.5 - 5.0
}
