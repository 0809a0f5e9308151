package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"cinerec/internal/eval"
	"cinerec/internal/models"
	"cinerec/internal/recommender"
)

// EvalReport es la salida de /admin/evaluate.
type EvalReport struct {
	Users       int     `json:"users"`
	TrainSize   int     `json:"trainSize"`
	TestSize    int     `json:"testSize"`
	RMSE        float64 `json:"rmse"`
	MAE         float64 `json:"mae"`
	PrecisionAt float64 `json:"precisionAtK"`
	RecallAt    float64 `json:"recallAtK"`
	K           int     `json:"k"`
	ElapsedMS   int64   `json:"elapsedMs"`
}

// umbral de relevancia para las métricas top-K (rating >= 4 cuenta como hit)
const relevanceThreshold = 4.0

// Evaluate corre una evaluación hold-out por usuario: separa testRatio
// de los ratings de cada usuario, entrena un SVD con el resto, predice
// el test (RMSE/MAE) y compara el top-K recomendado contra los ítems
// relevantes del test (precision/recall). Semilla fija: reproducible.
func (s *TrainService) Evaluate(ctx context.Context, testRatio float64, k, nFactors int) (*EvalReport, error) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	if k <= 0 {
		k = 10
	}
	start := time.Now()

	movieDocs, err := s.movies.All(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, fmt.Errorf("no hay ratings para evaluar")
	}

	items := make([]models.Item, len(movieDocs))
	for i := range movieDocs {
		items[i] = movieDocs[i].ToItem()
	}

	train, test := holdoutSplit(ratings, testRatio)
	if len(test) == 0 {
		return nil, fmt.Errorf("el split de test quedó vacío (ratings=%d testRatio=%.2f)", len(ratings), testRatio)
	}

	svd, err := recommender.TrainSVD(train, nFactors)
	if err != nil {
		return nil, err
	}

	// error de predicción sobre el test
	actual := make([]float64, len(test))
	ids := make(map[int][]int) // userId -> movieIds del test, en orden
	for i, r := range test {
		actual[i] = r.Rating
		ids[r.UserID] = append(ids[r.UserID], r.MovieID)
	}
	predicted := make([]float64, 0, len(test))
	for _, r := range test {
		p := svd.PredictForUser(r.UserID, []int{r.MovieID})
		predicted = append(predicted, p[0])
	}

	rmse, err := eval.RMSE(actual, predicted)
	if err != nil {
		return nil, err
	}
	mae, err := eval.MAE(actual, predicted)
	if err != nil {
		return nil, err
	}

	// top-K por usuario vs ítems relevantes del test
	recs := make(map[int][]int)
	truth := make(map[int][]int)
	for userID := range ids {
		recList, err := svd.Recommend(userID, items, k)
		if err != nil {
			return nil, err
		}
		for _, rec := range recList {
			recs[userID] = append(recs[userID], rec.MovieID)
		}
	}
	for _, r := range test {
		if r.Rating >= relevanceThreshold {
			truth[r.UserID] = append(truth[r.UserID], r.MovieID)
		}
	}

	return &EvalReport{
		Users:       len(ids),
		TrainSize:   len(train),
		TestSize:    len(test),
		RMSE:        rmse,
		MAE:         mae,
		PrecisionAt: eval.PrecisionAtK(recs, truth, k),
		RecallAt:    eval.RecallAtK(recs, truth, k),
		K:           k,
		ElapsedMS:   time.Since(start).Milliseconds(),
	}, nil
}

// holdoutSplit separa testRatio de los ratings de CADA usuario (mínimo
// 2 ratings para entrar al split; si no, todo va a train).
func holdoutSplit(ratings []models.RatingDoc, testRatio float64) (train, test []models.RatingDoc) {
	byUser := make(map[int][]models.RatingDoc)
	for _, r := range ratings {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	userIDs := make([]int, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Ints(userIDs)

	rng := rand.New(rand.NewSource(42))
	for _, id := range userIDs {
		rs := byUser[id]
		if len(rs) < 2 {
			train = append(train, rs...)
			continue
		}
		rng.Shuffle(len(rs), func(i, j int) { rs[i], rs[j] = rs[j], rs[i] })
		cut := int(float64(len(rs)) * testRatio)
		if cut == 0 {
			cut = 1
		}
		test = append(test, rs[:cut]...)
		train = append(train, rs[cut:]...)
	}
	return train, test
}
