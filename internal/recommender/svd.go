package recommender

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cinerec/internal/models"
)

const DefaultFactors = 50

// SVDRecommender son los factores latentes de una corrida de SVD truncado
// sobre la matriz usuario×ítem. Usuarios/ítems no vistos en el
// entrenamiento degradan a la media global, nunca a un error.
type SVDRecommender struct {
	UserFactors *mat.Dense // filas = usuarios conocidos (U·Σ truncado)
	ItemFactors *mat.Dense // filas = ítems conocidos (V truncado)
	UserIndex   map[int]int
	ItemIndex   map[int]int
	Seen        map[int]map[int]bool // userId -> movieIds ya calificados
	GlobalMean  float64
}

// TrainSVD factoriza la matriz densa de ratings (ceros donde no hubo
// rating). Rango efectivo = min(nFactors, max(2, min(#users,#items)-1)).
func TrainSVD(ratings []models.RatingDoc, nFactors int) (*SVDRecommender, error) {
	if len(ratings) == 0 {
		return nil, fmt.Errorf("svd: no hay ratings para entrenar")
	}
	if nFactors <= 0 {
		nFactors = DefaultFactors
	}

	userSet := make(map[int]bool)
	itemSet := make(map[int]bool)
	for _, r := range ratings {
		userSet[r.UserID] = true
		itemSet[r.MovieID] = true
	}
	userIDs := sortedKeys(userSet)
	itemIDs := sortedKeys(itemSet)

	userIndex := make(map[int]int, len(userIDs))
	for i, id := range userIDs {
		userIndex[id] = i
	}
	itemIndex := make(map[int]int, len(itemIDs))
	for i, id := range itemIDs {
		itemIndex[id] = i
	}

	m := mat.NewDense(len(userIDs), len(itemIDs), nil)
	seen := make(map[int]map[int]bool, len(userIDs))
	var sum float64
	for _, r := range ratings {
		m.Set(userIndex[r.UserID], itemIndex[r.MovieID], r.Rating)
		if seen[r.UserID] == nil {
			seen[r.UserID] = make(map[int]bool)
		}
		seen[r.UserID][r.MovieID] = true
		sum += r.Rating
	}
	globalMean := sum / float64(len(ratings))

	minDim := len(userIDs)
	if len(itemIDs) < minDim {
		minDim = len(itemIDs)
	}
	maxRank := minDim - 1
	if maxRank < 2 {
		maxRank = 2
	}
	rank := nFactors
	if rank > maxRank {
		rank = maxRank
	}
	// el SVD thin solo da min(#users,#items) valores singulares
	if rank > minDim {
		rank = minDim
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd: la factorización no convergió")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// user factors = U·Σ truncado; item factors = V truncado
	uf := mat.NewDense(len(userIDs), rank, nil)
	for i := 0; i < len(userIDs); i++ {
		for k := 0; k < rank; k++ {
			uf.Set(i, k, u.At(i, k)*sigma[k])
		}
	}
	vf := mat.NewDense(len(itemIDs), rank, nil)
	for i := 0; i < len(itemIDs); i++ {
		for k := 0; k < rank; k++ {
			vf.Set(i, k, v.At(i, k))
		}
	}

	return &SVDRecommender{
		UserFactors: uf,
		ItemFactors: vf,
		UserIndex:   userIndex,
		ItemIndex:   itemIndex,
		Seen:        seen,
		GlobalMean:  globalMean,
	}, nil
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Rank es el número de factores latentes efectivo de esta corrida.
func (r *SVDRecommender) Rank() int {
	_, cols := r.UserFactors.Dims()
	return cols
}

// PredictForUser devuelve un score por candidato, alineado con
// candidateIDs. Usuario o ítem desconocido -> media global; las
// predicciones siempre son finitas.
func (r *SVDRecommender) PredictForUser(userID int, candidateIDs []int) []float64 {
	preds := make([]float64, len(candidateIDs))

	uIdx, known := r.UserIndex[userID]
	for i, movieID := range candidateIDs {
		preds[i] = r.GlobalMean
		if !known {
			continue
		}
		iIdx, ok := r.ItemIndex[movieID]
		if !ok {
			continue
		}
		p := floats.Dot(r.UserFactors.RawRowView(uIdx), r.ItemFactors.RawRowView(iIdx))
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			preds[i] = p
		}
	}
	return preds
}

// Recommend puntúa el catálogo para un usuario, excluyendo lo que ya
// calificó, orden descendente estable, truncado a topK.
func (r *SVDRecommender) Recommend(userID int, items []models.Item, topK int) ([]models.RankedItem, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	rated := r.Seen[userID]
	candidates := make([]models.Item, 0, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		if rated[it.MovieID] {
			continue
		}
		candidates = append(candidates, it)
		ids = append(ids, it.MovieID)
	}

	preds := r.PredictForUser(userID, ids)
	ranked := make([]scored, len(candidates))
	for i := range candidates {
		ranked[i] = scored{idx: i, score: preds[i]}
	}
	sortScoredDesc(ranked)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]models.RankedItem, len(ranked))
	for i, c := range ranked {
		out[i] = toRanked(candidates[c.idx], c.score)
	}
	return out, nil
}
