// Package recommender contiene los modelos de recomendación: basado en
// contenido (TF-IDF), factores latentes (SVD), híbrido, embeddings con
// diversidad (MMR) y el re-ranker contextual. Todos trabajan sobre estado
// ajustado inmutable, así que son seguros de compartir entre requests.
package recommender

import (
	"math"
	"sort"

	"cinerec/internal/models"
)

// scored vincula una fila del catálogo con el score de un modelo.
type scored struct {
	idx   int
	score float64
}

// sortScoredDesc ordena descendente por score; es estable, los empates
// conservan el orden de entrada.
func sortScoredDesc(ss []scored) {
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].score > ss[j].score })
}

// toRanked arma la fila de salida. El catálogo marca las películas sin
// ratings con stats NaN; hacia afuera esos valores salen como 0: los
// encoders JSON no aceptan NaN y romperían la respuesta y el cache.
func toRanked(it models.Item, score float64) models.RankedItem {
	return models.RankedItem{
		MovieID:     it.MovieID,
		Title:       it.Title,
		Genres:      it.Genres,
		AvgRating:   nanToZero(it.AvgRating),
		RatingCount: nanToZero(it.RatingCount),
		Score:       score,
	}
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// seenSet junta los movieIds que aparecen en el historial.
func seenSet(history []models.RatingDoc) map[int]bool {
	seen := make(map[int]bool, len(history))
	for _, r := range history {
		seen[r.MovieID] = true
	}
	return seen
}

// BaseRecommender es el contrato mínimo que necesita el re-ranker
// contextual: cualquier modelo que devuelva una lista puntuada.
type BaseRecommender interface {
	Recommend(history []models.RatingDoc, topK int) ([]models.RankedItem, error)
}

// BaseFunc adapta un closure al contrato BaseRecommender (útil para
// envolver modelos cuya firma pide más argumentos, como el SVD o el híbrido).
type BaseFunc func(history []models.RatingDoc, topK int) ([]models.RankedItem, error)

func (f BaseFunc) Recommend(history []models.RatingDoc, topK int) ([]models.RankedItem, error) {
	return f(history, topK)
}
