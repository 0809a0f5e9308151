package recommender

import (
	"math"
	"testing"

	"cinerec/internal/models"
)

// matriz 3x4 de rango 2 exacto: la fila del usuario 3 es el promedio de
// las otras dos, así que la reconstrucción truncada a rango 2 debe
// devolver los ratings originales casi sin error.
func rank2Ratings() []models.RatingDoc {
	rows := map[int][]float64{
		1: {5, 3, 4, 1},
		2: {1, 2, 2, 3},
		3: {3, 2.5, 3, 2},
	}
	items := []int{10, 20, 30, 40}
	var out []models.RatingDoc
	for userID, vals := range rows {
		for j, v := range vals {
			out = append(out, models.RatingDoc{UserID: userID, MovieID: items[j], Rating: v})
		}
	}
	return out
}

func TestSVDExactReconstructionRank2(t *testing.T) {
	ratings := rank2Ratings()
	svd, err := TrainSVD(ratings, 50)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	// 3 usuarios x 4 ítems: el rango efectivo se recorta a min-1 = 2
	if svd.Rank() != 2 {
		t.Fatalf("Rank = %d, esperaba 2", svd.Rank())
	}
	for _, r := range ratings {
		got := svd.PredictForUser(r.UserID, []int{r.MovieID})[0]
		if math.Abs(got-r.Rating) > 1e-8 {
			t.Errorf("predicción (user=%d movie=%d) = %f, esperaba %f", r.UserID, r.MovieID, got, r.Rating)
		}
	}
}

func TestSVDUnknownUserFallsBackToGlobalMean(t *testing.T) {
	ratings := rank2Ratings()
	svd, err := TrainSVD(ratings, 2)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Rating
	}
	mean := sum / float64(len(ratings))

	preds := svd.PredictForUser(999, []int{10, 20, 77})
	for i, p := range preds {
		if math.Abs(p-mean) > 1e-12 {
			t.Errorf("pred[%d] = %f para usuario desconocido, esperaba la media global %f", i, p, mean)
		}
	}
}

func TestSVDUnknownItemFallsBackToGlobalMean(t *testing.T) {
	svd, err := TrainSVD(rank2Ratings(), 2)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	p := svd.PredictForUser(1, []int{12345})[0]
	if math.Abs(p-svd.GlobalMean) > 1e-12 {
		t.Errorf("ítem desconocido: pred = %f, esperaba %f", p, svd.GlobalMean)
	}
}

func TestSVDPredictionsAlwaysFinite(t *testing.T) {
	svd, err := TrainSVD(rank2Ratings(), 2)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	preds := svd.PredictForUser(1, []int{10, 20, 30, 40, 999})
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Errorf("pred[%d] = %f no es finita", i, p)
		}
	}
}

func TestSVDRecommendExcludesRated(t *testing.T) {
	svd, err := TrainSVD(rank2Ratings(), 2)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	items := []models.Item{
		{MovieID: 10}, {MovieID: 20}, {MovieID: 30}, {MovieID: 40}, {MovieID: 50},
	}
	// el usuario 1 calificó 10,20,30,40: solo queda el 50
	out, err := svd.Recommend(1, items, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 1 || out[0].MovieID != 50 {
		t.Fatalf("esperaba solo el ítem 50, llegó %v", out)
	}
}

func TestSVDNoRatingsErrors(t *testing.T) {
	if _, err := TrainSVD(nil, 10); err == nil {
		t.Fatal("entrenar sin ratings debería fallar")
	}
}

func TestSVDDefaultFactors(t *testing.T) {
	// nFactors <= 0 usa el default, recortado por el tamaño de la matriz
	svd, err := TrainSVD(rank2Ratings(), 0)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	if svd.Rank() != 2 {
		t.Errorf("Rank = %d, esperaba el recorte a 2", svd.Rank())
	}
}
