package recommender

import (
	"math"
	"testing"

	"cinerec/internal/feature"
	"cinerec/internal/models"
)

func newHybridForTest(t *testing.T) (*HybridRecommender, []models.RatingDoc) {
	t.Helper()
	content := newContentForTest(t)

	// ratings de varios usuarios sobre el mismo catálogo
	ratings := []models.RatingDoc{
		{UserID: 1, MovieID: 1, Rating: 5.0},
		{UserID: 1, MovieID: 2, Rating: 4.5},
		{UserID: 1, MovieID: 3, Rating: 1.0},
		{UserID: 2, MovieID: 1, Rating: 4.0},
		{UserID: 2, MovieID: 4, Rating: 5.0},
		{UserID: 2, MovieID: 5, Rating: 2.0},
		{UserID: 3, MovieID: 2, Rating: 3.0},
		{UserID: 3, MovieID: 3, Rating: 4.5},
		{UserID: 3, MovieID: 5, Rating: 5.0},
	}
	svd, err := TrainSVD(ratings, 2)
	if err != nil {
		t.Fatalf("TrainSVD: %v", err)
	}
	h, err := NewHybrid(content, svd)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	return h, ratings
}

func userHistory(ratings []models.RatingDoc, userID int) []models.RatingDoc {
	var out []models.RatingDoc
	for _, r := range ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func TestHybridAlphaOneMatchesContent(t *testing.T) {
	h, ratings := newHybridForTest(t)
	history := userHistory(ratings, 1)

	// con alpha=1 el lado colaborativo no pesa: el orden debe ser el
	// del modelo de contenido (ambos lados ven el catálogo completo)
	want, err := h.Content.Recommend(history, 10)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	got, err := h.Recommend(1, history, 10, 1.0)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, esperaba %d", len(got), len(want))
	}
	for i := range got {
		if got[i].MovieID != want[i].MovieID {
			t.Errorf("posición %d: %d vs %d del modelo de contenido", i, got[i].MovieID, want[i].MovieID)
		}
		if math.Abs(got[i].Score-want[i].Score) > 1e-12 {
			t.Errorf("posición %d: score %f, contenido puro da %f", i, got[i].Score, want[i].Score)
		}
	}
}

func TestHybridAlphaZeroMatchesCollab(t *testing.T) {
	h, ratings := newHybridForTest(t)
	history := userHistory(ratings, 1)

	want, err := h.Collab.Recommend(1, h.Content.Items, 10)
	if err != nil {
		t.Fatalf("svd: %v", err)
	}
	got, err := h.Recommend(1, history, 10, 0.0)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, esperaba %d", len(got), len(want))
	}
	for i := range got {
		if got[i].MovieID != want[i].MovieID {
			t.Errorf("posición %d: %d vs %d del SVD puro", i, got[i].MovieID, want[i].MovieID)
		}
	}
}

func TestHybridAlphaOutOfRange(t *testing.T) {
	h, ratings := newHybridForTest(t)
	history := userHistory(ratings, 1)
	for _, alpha := range []float64{-0.1, 1.5} {
		if _, err := h.Recommend(1, history, 5, alpha); err == nil {
			t.Errorf("alpha=%.2f debería fallar", alpha)
		}
	}
}

func TestHybridExcludesSeen(t *testing.T) {
	h, ratings := newHybridForTest(t)
	history := userHistory(ratings, 1)
	out, err := h.Recommend(1, history, 10, 0.5)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	seen := seenSet(history)
	for _, it := range out {
		if seen[it.MovieID] {
			t.Errorf("película vista %d no debería recomendarse", it.MovieID)
		}
	}
}

func TestHybridScoresDescending(t *testing.T) {
	h, ratings := newHybridForTest(t)
	out, err := h.Recommend(2, userHistory(ratings, 2), 10, 0.5)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("scores fuera de orden en posición %d", i)
		}
	}
}

func TestNewHybridNilModels(t *testing.T) {
	content := newContentForTest(t)
	if _, err := NewHybrid(content, nil); err == nil {
		t.Fatal("colaborativo nil debería fallar")
	}
	if _, err := NewHybrid(nil, &SVDRecommender{}); err == nil {
		t.Fatal("contenido nil debería fallar")
	}
}

// con ratings duplicados a escala doble el perfil TF-IDF (suma ponderada)
// cambia de magnitud pero el de embeddings (promedio) no: ambas variantes
// son deliberadamente distintas y no deben converger.
func TestContentProfileIsSumNotAverage(t *testing.T) {
	items := testCatalog()
	store := feature.NewStore()
	fm, err := store.Fit(items)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	rec, err := NewContent(items, fm)
	if err != nil {
		t.Fatalf("NewContent: %v", err)
	}

	h1 := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 2.0}}
	p1 := rec.buildUserProfile(h1)
	h2 := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 4.0}}
	p2 := rec.buildUserProfile(h2)

	// la suma ponderada escala linealmente con el rating
	for i := range p1 {
		if math.Abs(p2[i]-2*p1[i]) > 1e-12 {
			t.Fatalf("columna %d: el perfil no escala con el rating (%f vs %f)", i, p1[i], p2[i])
		}
	}
}
