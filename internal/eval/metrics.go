// Package eval: métricas offline de predicción y de ranking top-K.
package eval

import (
	"fmt"
	"math"
)

// RMSE: raíz del error cuadrático medio, con la raíz calculada a mano
// (no dependemos de ningún flag de librería).
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}

// MAE: error absoluto medio.
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual)), nil
}

func checkPairs(actual, predicted []float64) error {
	if len(actual) == 0 {
		return fmt.Errorf("eval: secuencias vacías")
	}
	if len(actual) != len(predicted) {
		return fmt.Errorf("eval: %d valores reales vs %d predichos", len(actual), len(predicted))
	}
	return nil
}

// PrecisionAtK: por usuario con al menos una predicción, overlap de las
// primeras k predicciones con el ground truth dividido por min(k, #preds);
// promedio entre usuarios. Usuarios sin predicciones se saltan, no
// aportan cero.
func PrecisionAtK(recs map[int][]int, truth map[int][]int, k int) float64 {
	var sum float64
	users := 0
	for user, preds := range recs {
		if len(preds) == 0 {
			continue
		}
		hits := hitCount(preds, truth[user], k)
		den := k
		if len(preds) < den {
			den = len(preds)
		}
		sum += float64(hits) / float64(den)
		users++
	}
	if users == 0 {
		return 0.0
	}
	return sum / float64(users)
}

// RecallAtK: igual que precision pero dividiendo por el tamaño del
// ground truth; usuarios con ground truth vacío se saltan.
func RecallAtK(recs map[int][]int, truth map[int][]int, k int) float64 {
	var sum float64
	users := 0
	for user, preds := range recs {
		relevant := truth[user]
		if len(relevant) == 0 {
			continue
		}
		hits := hitCount(preds, relevant, k)
		sum += float64(hits) / float64(len(relevant))
		users++
	}
	if users == 0 {
		return 0.0
	}
	return sum / float64(users)
}

func hitCount(preds, relevant []int, k int) int {
	rel := make(map[int]bool, len(relevant))
	for _, id := range relevant {
		rel[id] = true
	}
	if len(preds) > k {
		preds = preds[:k]
	}
	hits := 0
	for _, id := range preds {
		if rel[id] {
			hits++
		}
	}
	return hits
}
