package recommender

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cinerec/internal/models"
)

// Franjas horarias y sus géneros preferidos (patrones de visionado
// comunes: documentales de mañana, terror de noche...).
var timePreferences = map[string][]string{
	"morning":   {"documentary", "family", "animation", "children"},
	"afternoon": {"action", "adventure", "comedy"},
	"evening":   {"drama", "romance", "comedy", "musical"},
	"night":     {"horror", "thriller", "mystery", "sci-fi", "fantasy"},
}

const (
	timeBoostPerGenre = 0.1
	timeBoostCap      = 0.5
	seqBoostPerGenre  = 0.1
	recencyWindow     = 30 * 24 * time.Hour
	sequentialWindow  = 3 // últimos N ítems del historial
)

// ContextOptions son los parámetros del re-ranker. TimeOfDay vacío =
// detectar por reloj.
type ContextOptions struct {
	TimeOfDay      string
	RecencyWeight  float64
	TrendingWeight float64
}

func DefaultContextOptions() ContextOptions {
	return ContextOptions{RecencyWeight: 0.2, TrendingWeight: 0.1}
}

// ContextRecommender envuelve cualquier modelo base y re-puntúa sus
// candidatos con señales de contexto: afinidad género-horario, recencia
// del historial y patrón secuencial. El reloj es un campo para poder
// fijar la hora en tests.
type ContextRecommender struct {
	base   BaseRecommender
	genres map[int][]string // movieId -> géneros (para el historial)
	now    func() time.Time
}

func NewContext(base BaseRecommender, items []models.Item) *ContextRecommender {
	genres := make(map[int][]string, len(items))
	for _, it := range items {
		genres[it.MovieID] = it.Genres
	}
	return &ContextRecommender{base: base, genres: genres, now: time.Now}
}

// DetectTimeOfDay mapea una hora a su franja: 6-11 morning, 12-17
// afternoon, 18-21 evening, resto night.
func DetectTimeOfDay(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// timeBoost: +0.1 por género preferido de la franja presente en el
// candidato, con tope 0.5.
func timeBoost(genres []string, timeOfDay string) float64 {
	if len(genres) == 0 {
		return 0
	}
	joined := strings.ToLower(strings.Join(genres, "|"))
	boost := 0.0
	for _, pref := range timePreferences[timeOfDay] {
		if strings.Contains(joined, pref) {
			boost += timeBoostPerGenre
		}
	}
	return math.Min(boost, timeBoostCap)
}

// recencyScores: cuántos ratings de los últimos 30 días tiene cada
// candidato en el historial, normalizado por el máximo observado.
func (r *ContextRecommender) recencyScores(candidates []models.RankedItem, history []models.RatingDoc) []float64 {
	scores := make([]float64, len(candidates))
	cutoff := r.now().Add(-recencyWindow).Unix()

	counts := make(map[int]float64)
	var maxCount float64
	for _, h := range history {
		if h.Timestamp <= 0 || h.Timestamp < cutoff {
			continue
		}
		counts[h.MovieID]++
		if counts[h.MovieID] > maxCount {
			maxCount = counts[h.MovieID]
		}
	}
	if maxCount == 0 {
		return scores
	}
	for i, c := range candidates {
		scores[i] = counts[c.MovieID] / maxCount
	}
	return scores
}

// trendingScore es un placeholder deliberado: sin datos globales de
// velocidad siempre vale 0. Es un punto de extensión, no un bug.
func trendingScore() float64 {
	return 0.0
}

// sequentialBoost: géneros de los 3 ítems más recientes del historial;
// +0.1 por género compartido con el candidato.
func (r *ContextRecommender) sequentialBoost(candidates []models.RankedItem, history []models.RatingDoc) []float64 {
	scores := make([]float64, len(candidates))
	if len(history) == 0 {
		return scores
	}

	recent := append([]models.RatingDoc(nil), history...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Timestamp > recent[j].Timestamp })
	if len(recent) > sequentialWindow {
		recent = recent[:sequentialWindow]
	}

	recentGenres := make(map[string]bool)
	for _, h := range recent {
		for _, g := range r.genres[h.MovieID] {
			recentGenres[g] = true
		}
	}

	for i, c := range candidates {
		overlap := 0
		for _, g := range c.Genres {
			if recentGenres[g] {
				overlap++
			}
		}
		scores[i] = float64(overlap) * seqBoostPerGenre
	}
	return scores
}

// Recommend pide 2×topK candidatos al modelo base, normaliza sus scores
// a [0,1] y los re-ordena con la mezcla de señales contextuales. El
// Score reportado es el score combinado.
func (r *ContextRecommender) Recommend(history []models.RatingDoc, userID int, topK int, opts ContextOptions) ([]models.RankedItem, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	if opts.RecencyWeight+opts.TrendingWeight > 1 {
		return nil, fmt.Errorf("context: recencyWeight+trendingWeight=%.3f > 1", opts.RecencyWeight+opts.TrendingWeight)
	}

	candidates, err := r.base.Recommend(history, topK*2)
	if err != nil {
		return nil, fmt.Errorf("context: modelo base: %w", err)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	// min-max sobre los scores base, con guardia epsilon
	minS, maxS := math.Inf(1), math.Inf(-1)
	for _, c := range candidates {
		minS = math.Min(minS, c.Score)
		maxS = math.Max(maxS, c.Score)
	}
	span := maxS - minS + normEpsilon

	timeOfDay := opts.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = DetectTimeOfDay(r.now())
	}

	recency := r.recencyScores(candidates, history)
	sequential := r.sequentialBoost(candidates, history)
	baseWeight := 1 - opts.RecencyWeight - opts.TrendingWeight

	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		baseNorm := (c.Score - minS) / span
		combined := baseWeight*baseNorm +
			opts.RecencyWeight*recency[i] +
			opts.TrendingWeight*trendingScore() +
			0.1*timeBoost(c.Genres, timeOfDay) +
			0.1*sequential[i]
		ranked[i] = scored{idx: i, score: combined}
	}

	sortScoredDesc(ranked)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]models.RankedItem, len(ranked))
	for i, c := range ranked {
		rec := candidates[c.idx]
		rec.Score = c.score
		out[i] = rec
	}
	return out, nil
}
