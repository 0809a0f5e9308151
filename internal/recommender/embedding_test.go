package recommender

import (
	"math"
	"testing"

	"cinerec/internal/models"
)

func embedCatalog() []models.Item {
	return []models.Item{
		{MovieID: 1, Title: "Star Voyage", Genres: []string{"Sci-Fi"}, TagText: "space ship stars", RatingCount: 500},
		{MovieID: 2, Title: "Star Voyage", Genres: []string{"Sci-Fi"}, TagText: "space ship stars", RatingCount: 300}, // gemela de la 1
		{MovieID: 3, Title: "Love in Paris", Genres: []string{"Romance"}, TagText: "romantic paris", RatingCount: 200},
		{MovieID: 4, Title: "Star Voyage Returns", Genres: []string{"Sci-Fi"}, TagText: "space ship stars again", RatingCount: 100},
	}
}

func TestEmbeddingRowsNormalized(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	if rec.Dim != DefaultEmbeddingDim {
		t.Fatalf("Dim = %d, esperaba %d", rec.Dim, DefaultEmbeddingDim)
	}
	rows, _ := rec.Embeddings.Dims()
	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < rec.Dim; j++ {
			v := rec.Embeddings.At(i, j)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("fila %d con norma %f, esperaba 1", i, norm)
		}
	}
}

func TestEmbeddingIdenticalTextIdenticalVector(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	// las películas 1 y 2 tienen el mismo texto: mismo embedding
	for j := 0; j < rec.Dim; j++ {
		if rec.Embeddings.At(0, j) != rec.Embeddings.At(1, j) {
			t.Fatalf("columna %d difiere entre textos idénticos", j)
		}
	}
}

func TestEmbeddingUnfittedErrors(t *testing.T) {
	rec := NewEmbeddingRecommender(0)
	if _, err := rec.Recommend(nil, 5, 0); err == nil {
		t.Fatal("Recommend sin Fit debería fallar")
	}
	if _, err := rec.SimilarItems(1, 5); err == nil {
		t.Fatal("SimilarItems sin Fit debería fallar")
	}
}

func TestEmbeddingColdStartByPopularity(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	out, err := rec.Recommend(nil, 4, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []int{1, 2, 3, 4} // orden por RatingCount descendente
	if len(out) != len(want) {
		t.Fatalf("len = %d, esperaba %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].MovieID != id {
			t.Errorf("posición %d: %d, esperaba %d (popularidad)", i, out[i].MovieID, id)
		}
	}
}

func TestEmbeddingExcludesWatched(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	history := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 5.0}}
	out, err := rec.Recommend(history, 10, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, it := range out {
		if it.MovieID == 1 {
			t.Error("película vista recomendada")
		}
	}
	if len(out) != 3 {
		t.Errorf("len = %d, esperaba 3", len(out))
	}
}

func TestEmbeddingUniformRatingsNoNaN(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	// todos los ratings iguales: el rango min-max es cero y el perfil
	// degrada a promedio simple, nunca NaN
	history := []models.RatingDoc{
		{UserID: 1, MovieID: 1, Rating: 4.0},
		{UserID: 1, MovieID: 3, Rating: 4.0},
	}
	out, err := rec.Recommend(history, 5, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, it := range out {
		if math.IsNaN(it.Score) {
			t.Errorf("score NaN para %d", it.MovieID)
		}
	}
}

func TestEmbeddingDiversityOutOfRange(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	history := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 5.0}}
	for _, d := range []float64{-0.5, 1.2} {
		if _, err := rec.Recommend(history, 5, d); err == nil {
			t.Errorf("diversityFactor=%.2f debería fallar", d)
		}
	}
}

func TestMMRPenalizesRedundancy(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	history := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 5.0}}

	// sin diversidad: la gemela (2) y la secuela (4) dominan el top-2
	plain, err := rec.Recommend(history, 2, 0)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	if plain[0].MovieID != 2 {
		t.Fatalf("top-1 sin diversidad = %d, esperaba la gemela 2", plain[0].MovieID)
	}
	if plain[1].MovieID == 3 {
		t.Fatalf("sin diversidad la romántica no debería estar en el top-2")
	}

	// con diversidad alta el segundo lugar salta a la romántica, que es
	// lo más distinto de lo ya seleccionado
	diverse, err := rec.Recommend(history, 2, 0.9)
	if err != nil {
		t.Fatalf("diverse: %v", err)
	}
	if diverse[0].MovieID != 2 {
		t.Errorf("la primera elección MMR es pura similitud, esperaba 2, llegó %d", diverse[0].MovieID)
	}
	if diverse[1].MovieID != 3 {
		t.Errorf("segunda elección con d=0.9 = %d, esperaba la romántica 3", diverse[1].MovieID)
	}
}

func TestMMRZeroDiversityEqualsPlainRanking(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	history := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 5.0}}

	plain, err := rec.Recommend(history, 3, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// con d=0 el término de penalización desaparece y la selección greedy
	// debe reproducir el ranking plano por similitud, mismo orden
	watched := seenSet(history)
	var candidates []int
	for i, it := range rec.Items {
		if !watched[it.MovieID] {
			candidates = append(candidates, i)
		}
	}
	sims := rec.similarities(rec.Embeddings.RawRowView(0))
	selected := rec.mmrSelect(candidates, sims, 3, 0)

	if len(selected) != len(plain) {
		t.Fatalf("largos distintos: %d vs %d", len(selected), len(plain))
	}
	for i, idx := range selected {
		if rec.Items[idx].MovieID != plain[i].MovieID {
			t.Errorf("posición %d: MMR d=0 da %d, el ranking plano da %d",
				i, rec.Items[idx].MovieID, plain[i].MovieID)
		}
	}
}

func TestMMRScoreIsSimilarityNotMMRValue(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	history := []models.RatingDoc{{UserID: 1, MovieID: 1, Rating: 5.0}}

	out, err := rec.Recommend(history, 3, 0.9)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// el score reportado es la similitud al perfil: siempre en [-1, 1]
	for _, it := range out {
		if it.Score < -1-1e-9 || it.Score > 1+1e-9 {
			t.Errorf("score %f fuera del rango coseno", it.Score)
		}
	}
}

func TestSimilarItems(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	out, err := rec.SimilarItems(1, 2)
	if err != nil {
		t.Fatalf("SimilarItems: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, esperaba 2", len(out))
	}
	// el vecino más cercano es la gemela de texto idéntico, coseno 1
	if out[0].MovieID != 2 {
		t.Errorf("vecino top = %d, esperaba 2", out[0].MovieID)
	}
	if math.Abs(out[0].Score-1) > 1e-9 {
		t.Errorf("coseno con texto idéntico = %f, esperaba 1", out[0].Score)
	}
	for _, it := range out {
		if it.MovieID == 1 {
			t.Error("la película consultada no debe aparecer entre sus vecinos")
		}
	}
}

func TestSimilarItemsUnknownID(t *testing.T) {
	rec := NewEmbeddingRecommender(0).Fit(embedCatalog())
	if _, err := rec.SimilarItems(999, 5); err == nil {
		t.Fatal("id desconocido debería fallar")
	}
}
