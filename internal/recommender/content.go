package recommender

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cinerec/internal/models"
)

const (
	// cuántos ítems del historial (los mejor puntuados) entran al perfil
	profileHistorySize = 20

	// pesos del score de respaldo cuando el score primario es NaN
	fallbackAvgWeight   = 0.7
	fallbackCountWeight = 0.3

	// topK por defecto cuando el caller no pide nada
	defaultTopK = 10
)

// ContentRecommender puntúa el catálogo contra un perfil de gusto del
// usuario construido en el espacio de features TF-IDF + stats.
type ContentRecommender struct {
	Items    []models.Item
	Features *mat.Dense // una fila por ítem, alineada con Items

	index    map[int]int // movieId -> fila
	medAvg   float64     // medianas del catálogo para el score de respaldo
	medCount float64
}

// NewContent arma el modelo sobre una matriz ya ajustada. Valida que la
// matriz esté alineada 1:1 con el catálogo.
func NewContent(items []models.Item, features *mat.Dense) (*ContentRecommender, error) {
	if features == nil {
		return nil, fmt.Errorf("content: matriz de features nil (falta Fit del feature store)")
	}
	rows, _ := features.Dims()
	if rows != len(items) {
		return nil, fmt.Errorf("content: %d filas de features para %d ítems", rows, len(items))
	}

	r := &ContentRecommender{
		Items:    items,
		Features: features,
		index:    make(map[int]int, len(items)),
	}
	for i, it := range items {
		r.index[it.MovieID] = i
	}

	avgs := make([]float64, 0, len(items))
	counts := make([]float64, 0, len(items))
	for _, it := range items {
		if !math.IsNaN(it.AvgRating) {
			avgs = append(avgs, it.AvgRating)
		}
		if !math.IsNaN(it.RatingCount) {
			counts = append(counts, it.RatingCount)
		}
	}
	r.medAvg = median(avgs)
	r.medCount = median(counts)
	return r, nil
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// columnMeans es el perfil de arranque en frío: "el ítem promedio".
func (r *ContentRecommender) columnMeans() []float64 {
	rows, cols := r.Features.Dims()
	mean := make([]float64, cols)
	for i := 0; i < rows; i++ {
		floats.Add(mean, r.Features.RawRowView(i))
	}
	floats.Scale(1/float64(rows), mean)
	return mean
}

// buildUserProfile construye el vector de gusto: los (hasta) 20 ratings
// más altos del historial, cada fila de features multiplicada por su
// rating y SUMADA. Ojo: a propósito no se divide por la suma de pesos;
// la variante de embeddings sí promedia, y las dos conductas se
// mantienen tal cual (no son equivalentes).
func (r *ContentRecommender) buildUserProfile(history []models.RatingDoc) []float64 {
	if len(history) == 0 {
		return r.columnMeans()
	}

	top := append([]models.RatingDoc(nil), history...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Rating > top[j].Rating })
	if len(top) > profileHistorySize {
		top = top[:profileHistorySize]
	}

	_, cols := r.Features.Dims()
	profile := make([]float64, cols)
	matched := 0
	for _, h := range top {
		row, ok := r.index[h.MovieID]
		if !ok {
			continue
		}
		floats.AddScaled(profile, h.Rating, r.Features.RawRowView(row))
		matched++
	}
	if matched == 0 {
		return r.columnMeans()
	}
	return profile
}

// fallbackScore reemplaza scores NaN: mezcla de rating promedio y
// popularidad, con medianas del catálogo para stats ausentes.
func (r *ContentRecommender) fallbackScore(it models.Item) float64 {
	avg := it.AvgRating
	if math.IsNaN(avg) {
		avg = r.medAvg
	}
	count := it.RatingCount
	if math.IsNaN(count) {
		count = r.medCount
	}
	return fallbackAvgWeight*avg + fallbackCountWeight*count
}

// Recommend puntúa todo el catálogo contra el perfil del usuario y
// devuelve los topK no vistos, orden descendente estable.
func (r *ContentRecommender) Recommend(history []models.RatingDoc, topK int) ([]models.RankedItem, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	profile := r.buildUserProfile(history)
	seen := seenSet(history)

	candidates := make([]scored, 0, len(r.Items))
	for i, it := range r.Items {
		if seen[it.MovieID] {
			continue
		}
		score := floats.Dot(r.Features.RawRowView(i), profile)
		if math.IsNaN(score) {
			score = r.fallbackScore(it)
		}
		candidates = append(candidates, scored{idx: i, score: score})
	}

	sortScoredDesc(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]models.RankedItem, len(candidates))
	for i, c := range candidates {
		out[i] = toRanked(r.Items[c.idx], c.score)
	}
	return out, nil
}
