package feature

import (
	"math"
	"testing"

	"cinerec/internal/models"
)

func catalog() []models.Item {
	return []models.Item{
		{MovieID: 1, Title: "Galaxy Quest", Genres: []string{"Comedy", "Sci-Fi"}, TagText: "parody spaceship", AvgRating: 3.5, RatingCount: 100, RatingStd: 0.8},
		{MovieID: 2, Title: "Galaxy Wars", Genres: []string{"Sci-Fi", "Action"}, TagText: "spaceship battles", AvgRating: 4.2, RatingCount: 500, RatingStd: 0.5},
		{MovieID: 3, Title: "Quiet Drama", Genres: []string{"Drama"}, TagText: "spaceship", AvgRating: 2.8, RatingCount: 20, RatingStd: 1.1},
	}
}

func TestFitMatrixShape(t *testing.T) {
	s := NewStore()
	m, err := s.Fit(catalog())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	rows, cols := m.Dims()
	if rows != 3 {
		t.Fatalf("rows = %d, esperaba 3", rows)
	}
	if cols != s.NumCols() {
		t.Fatalf("cols = %d, NumCols = %d", cols, s.NumCols())
	}
}

func TestVocabMinDocFreq(t *testing.T) {
	s := NewStore()
	if _, err := s.Fit(catalog()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	// "spaceship" y "galaxy" aparecen en 2+ documentos: entran
	if _, ok := s.Vocab["spaceship"]; !ok {
		t.Errorf("spaceship (df=3) debería estar en el vocabulario")
	}
	if _, ok := s.Vocab["galaxy"]; !ok {
		t.Errorf("galaxy (df=2) debería estar en el vocabulario")
	}
	// "parody" aparece una sola vez: queda fuera
	if _, ok := s.Vocab["parody"]; ok {
		t.Errorf("parody (df=1) no debería estar en el vocabulario")
	}
}

func TestVocabColumnsAlphabetical(t *testing.T) {
	s := NewStore()
	if _, err := s.Fit(catalog()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	prev := ""
	cols := make([]string, len(s.Vocab))
	for term, col := range s.Vocab {
		cols[col] = term
	}
	for _, term := range cols {
		if term <= prev {
			t.Fatalf("columnas fuera de orden alfabético: %q después de %q", term, prev)
		}
		prev = term
	}
}

func TestStatsScaledToUnitRange(t *testing.T) {
	s := NewStore()
	m, err := s.Fit(catalog())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	base := len(s.Vocab)
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < numStats; j++ {
			v := m.At(i, base+j)
			if v < 0 || v > 1 {
				t.Errorf("stat[%d][%d] = %f fuera de [0,1]", i, j, v)
			}
		}
	}
	// el mínimo y el máximo de avg_rating deben mapear a 0 y 1 exactos
	if got := m.At(2, base); got != 0 {
		t.Errorf("avg mínimo escalado = %f, esperaba 0", got)
	}
	if got := m.At(1, base); got != 1 {
		t.Errorf("avg máximo escalado = %f, esperaba 1", got)
	}
}

func TestTransformStableColumns(t *testing.T) {
	items := catalog()
	s := NewStore()
	fitted, err := s.Fit(items)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	again, err := s.Transform(items)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	rows, cols := fitted.Dims()
	r2, c2 := again.Dims()
	if rows != r2 || cols != c2 {
		t.Fatalf("dims cambian entre Fit (%dx%d) y Transform (%dx%d)", rows, cols, r2, c2)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(fitted.At(i, j)-again.At(i, j)) > 1e-12 {
				t.Fatalf("celda [%d][%d] difiere: %f vs %f", i, j, fitted.At(i, j), again.At(i, j))
			}
		}
	}
}

func TestTransformUnseenTermsIgnored(t *testing.T) {
	s := NewStore()
	if _, err := s.Fit(catalog()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	// términos nunca vistos: toda la parte TF-IDF queda en cero
	m, err := s.Transform([]models.Item{
		{MovieID: 99, Title: "Zanzibar Xylophone", AvgRating: 3.0, RatingCount: 10, RatingStd: 0.2},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for j := 0; j < len(s.Vocab); j++ {
		if m.At(0, j) != 0 {
			t.Errorf("columna tf-idf %d = %f, esperaba 0 para términos desconocidos", j, m.At(0, j))
		}
	}
}

func TestTransformWithoutFitErrors(t *testing.T) {
	s := NewStore()
	if _, err := s.Transform(catalog()); err == nil {
		t.Fatal("Transform sin Fit debería fallar")
	}
}

func TestFitEmptyCatalogErrors(t *testing.T) {
	s := NewStore()
	if _, err := s.Fit(nil); err == nil {
		t.Fatal("Fit con catálogo vacío debería fallar")
	}
}

func TestNaNStatsTreatedAsZero(t *testing.T) {
	items := catalog()
	items = append(items, models.Item{
		MovieID: 4, Title: "Galaxy Nobody Rated", Genres: []string{"Sci-Fi"},
		AvgRating: math.NaN(), RatingCount: 0, RatingStd: math.NaN(),
	})
	s := NewStore()
	m, err := s.Fit(items)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(m.At(i, j)) {
				t.Fatalf("NaN en la matriz de features, celda [%d][%d]", i, j)
			}
		}
	}
}

func TestTokenizeDropsStopWordsAndPunctuation(t *testing.T) {
	got := Tokenize("The Matrix: a sci-fi classic!")
	for _, tok := range got {
		if tok == "the" || tok == "a" {
			t.Errorf("stop word %q no fue filtrada", tok)
		}
	}
	want := map[string]bool{"matrix": true, "sci": true, "fi": true, "classic": true}
	for _, tok := range got {
		if !want[tok] {
			t.Errorf("token inesperado %q en %v", tok, got)
		}
	}
}
