package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"cinerec/internal/models"
)

// numStats: columnas numéricas que acompañan al TF-IDF, en este orden.
const numStats = 3 // avg_rating, rating_count, rating_std

const minDocFreq = 2

// Store aprende un vocabulario TF-IDF y un escalador min-max sobre el
// catálogo. Después de Fit todo el estado es de solo lectura, así que se
// puede compartir entre requests sin locks.
type Store struct {
	Vocab map[string]int // término -> columna en la parte TF-IDF
	IDF   []float64      // alineado con las columnas del vocabulario
	Mins  []float64      // min/max por columna numérica, fijados en Fit
	Maxs  []float64
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) fitted() bool {
	return s.Mins != nil
}

// NumCols es el ancho de la matriz de features (estable entre Fit y Transform).
func (s *Store) NumCols() int {
	return len(s.Vocab) + numStats
}

// textBlob concatena título + géneros (| reemplazado por espacio) + tags.
func textBlob(it models.Item) string {
	genres := strings.Join(it.Genres, " ")
	return it.Title + " " + genres + " " + it.TagText
}

// statsRow devuelve las columnas numéricas de un ítem; NaN se trata como 0
// en esta capa (el que necesite otra cosa debe pre-llenar).
func statsRow(it models.Item) [numStats]float64 {
	row := [numStats]float64{it.AvgRating, it.RatingCount, it.RatingStd}
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			row[i] = 0
		}
	}
	return row
}

// Fit aprende vocabulario, IDF y rangos min-max sobre el catálogo y
// devuelve la matriz densa de features: [TF-IDF | stats escaladas],
// una fila por ítem en el orden de entrada.
func (s *Store) Fit(items []models.Item) (*mat.Dense, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("feature store: catálogo vacío")
	}

	docs := make([][]string, len(items))
	docFreq := make(map[string]int)
	for i, it := range items {
		docs[i] = Tokenize(textBlob(it))
		seen := make(map[string]bool)
		for _, tok := range docs[i] {
			if !seen[tok] {
				docFreq[tok]++
				seen[tok] = true
			}
		}
	}

	// vocabulario: términos con df >= 2, columnas en orden alfabético
	// para que la matriz sea determinista
	terms := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDocFreq {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	s.Vocab = make(map[string]int, len(terms))
	s.IDF = make([]float64, len(terms))
	n := float64(len(items))
	for col, term := range terms {
		s.Vocab[term] = col
		s.IDF[col] = math.Log(1 + n/(1+float64(docFreq[term])))
	}

	// rangos min-max de las columnas numéricas
	s.Mins = make([]float64, numStats)
	s.Maxs = make([]float64, numStats)
	for j := 0; j < numStats; j++ {
		s.Mins[j] = math.Inf(1)
		s.Maxs[j] = math.Inf(-1)
	}
	for _, it := range items {
		row := statsRow(it)
		for j, v := range row {
			if v < s.Mins[j] {
				s.Mins[j] = v
			}
			if v > s.Maxs[j] {
				s.Maxs[j] = v
			}
		}
	}

	return s.buildMatrix(items, docs), nil
}

// Transform aplica el vocabulario y el escalador ya ajustados a ítems
// (posiblemente nuevos) sin re-ajustar nada. Valores numéricos fuera del
// rango visto en Fit NO se recortan: pueden salir de [0,1].
func (s *Store) Transform(items []models.Item) (*mat.Dense, error) {
	if !s.fitted() {
		return nil, fmt.Errorf("feature store: Transform sin Fit previo")
	}
	docs := make([][]string, len(items))
	for i, it := range items {
		docs[i] = Tokenize(textBlob(it))
	}
	return s.buildMatrix(items, docs), nil
}

func (s *Store) buildMatrix(items []models.Item, docs [][]string) *mat.Dense {
	cols := s.NumCols()
	m := mat.NewDense(len(items), cols, nil)

	for i, doc := range docs {
		// TF = count/len(doc); términos fuera del vocabulario se descartan
		if len(doc) > 0 {
			counts := make(map[int]float64)
			for _, tok := range doc {
				if col, ok := s.Vocab[tok]; ok {
					counts[col]++
				}
			}
			invLen := 1 / float64(len(doc))
			for col, c := range counts {
				m.Set(i, col, c*invLen*s.IDF[col])
			}
		}

		row := statsRow(items[i])
		for j, v := range row {
			span := s.Maxs[j] - s.Mins[j]
			scaled := 0.0
			if span > 0 {
				scaled = (v - s.Mins[j]) / span
			}
			m.Set(i, len(s.Vocab)+j, scaled)
		}
	}
	return m
}
