package recommender

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cinerec/internal/models"
)

// Dimensión por defecto del embedding denso por ítem. El contrato solo
// pide un encoder de texto de dimensión fija; acá es un bag-of-tokens
// hasheado (FNV) con signo, normalizado L2.
const DefaultEmbeddingDim = 64

const normEpsilon = 1e-8

// EmbeddingRecommender es la variante semántica del modelo de contenido:
// opera sobre embeddings densos en vez de TF-IDF y agrega la selección
// greedy MMR para balancear relevancia contra redundancia.
type EmbeddingRecommender struct {
	Items      []models.Item
	Embeddings *mat.Dense // una fila L2-normalizada por ítem
	Dim        int

	index map[int]int // movieId -> fila
}

func NewEmbeddingRecommender(dim int) *EmbeddingRecommender {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &EmbeddingRecommender{Dim: dim}
}

// NewEmbeddingFromParts rearma un modelo ya ajustado (carga de artefactos).
func NewEmbeddingFromParts(items []models.Item, embeddings *mat.Dense) (*EmbeddingRecommender, error) {
	if embeddings == nil {
		return nil, fmt.Errorf("embedding: matriz nil")
	}
	rows, cols := embeddings.Dims()
	if rows != len(items) {
		return nil, fmt.Errorf("embedding: %d filas para %d ítems", rows, len(items))
	}
	r := &EmbeddingRecommender{Items: items, Embeddings: embeddings, Dim: cols}
	r.buildIndex()
	return r, nil
}

func (r *EmbeddingRecommender) buildIndex() {
	r.index = make(map[int]int, len(r.Items))
	for i, it := range r.Items {
		r.index[it.MovieID] = i
	}
}

func (r *EmbeddingRecommender) fitted() bool {
	return r.Embeddings != nil
}

// embed codifica un texto en un vector de dimensión fija: cada token cae
// en la columna hash(token) % dim con signo según otro bit del hash,
// y el vector final se normaliza L2.
func (r *EmbeddingRecommender) embed(text string) []float64 {
	vec := make([]float64, r.Dim)
	h := fnv.New32a()
	for _, tok := range tokenizeEmbed(text) {
		h.Reset()
		h.Write([]byte(tok))
		sum := h.Sum32()
		col := int(sum % uint32(r.Dim))
		sign := 1.0
		if sum&0x80000000 != 0 {
			sign = -1.0
		}
		vec[col] += sign
	}
	norm := floats.Norm(vec, 2)
	if norm > normEpsilon {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Fit genera un embedding por ítem del catálogo. Devuelve el receptor
// para poder encadenar.
func (r *EmbeddingRecommender) Fit(items []models.Item) *EmbeddingRecommender {
	r.Items = items
	rows := len(items)
	if rows == 0 {
		rows = 1 // mat.NewDense no acepta 0 filas
	}
	r.Embeddings = mat.NewDense(rows, r.Dim, nil)
	for i, it := range items {
		text := it.Title + " " + strings.Join(it.Genres, " ") + " " + it.TagText
		r.Embeddings.SetRow(i, r.embed(text))
	}
	r.buildIndex()
	return r
}

// cosine entre un vector cualquiera y la fila i (las filas ya están
// normalizadas, solo hay que normalizar el lado izquierdo una vez).
func (r *EmbeddingRecommender) similarities(vec []float64) []float64 {
	v := append([]float64(nil), vec...)
	norm := floats.Norm(v, 2)
	if norm > normEpsilon {
		floats.Scale(1/norm, v)
	}
	rows, _ := r.Embeddings.Dims()
	sims := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sims[i] = floats.Dot(v, r.Embeddings.RawRowView(i))
	}
	return sims
}

// Recommend arma el perfil como PROMEDIO ponderado de los embeddings
// vistos (pesos = ratings min-max normalizados) y selecciona con MMR si
// diversityFactor > 0. A diferencia del modelo TF-IDF, acá sí se divide
// por la suma de pesos.
func (r *EmbeddingRecommender) Recommend(history []models.RatingDoc, topK int, diversityFactor float64) ([]models.RankedItem, error) {
	if !r.fitted() {
		return nil, fmt.Errorf("embedding: modelo sin ajustar, llama Fit primero")
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if diversityFactor < 0 || diversityFactor > 1 {
		return nil, fmt.Errorf("embedding: diversityFactor=%.3f fuera de [0,1]", diversityFactor)
	}

	watched := seenSet(history)
	ratingOf := make(map[int]float64, len(history))
	for _, h := range history {
		ratingOf[h.MovieID] = h.Rating
	}

	// índices del catálogo que el usuario sí vio, en orden de catálogo
	watchedIdx := make([]int, 0, len(watched))
	for i, it := range r.Items {
		if watched[it.MovieID] {
			watchedIdx = append(watchedIdx, i)
		}
	}

	// arranque en frío: popularidad global
	if len(watchedIdx) == 0 {
		pop := make([]scored, len(r.Items))
		for i, it := range r.Items {
			pop[i] = scored{idx: i, score: it.RatingCount}
		}
		sortScoredDesc(pop)
		if len(pop) > topK {
			pop = pop[:topK]
		}
		out := make([]models.RankedItem, len(pop))
		for i, c := range pop {
			out[i] = toRanked(r.Items[c.idx], c.score)
		}
		return out, nil
	}

	// pesos = ratings min-max normalizados (guardia epsilon); si el rango
	// es cero todos los pesos quedan iguales, no NaN
	minR, maxR := math.Inf(1), math.Inf(-1)
	for _, idx := range watchedIdx {
		rt := ratingOf[r.Items[idx].MovieID]
		minR = math.Min(minR, rt)
		maxR = math.Max(maxR, rt)
	}
	profile := make([]float64, r.Dim)
	var weightSum float64
	for _, idx := range watchedIdx {
		w := (ratingOf[r.Items[idx].MovieID] - minR) / (maxR - minR + normEpsilon)
		floats.AddScaled(profile, w, r.Embeddings.RawRowView(idx))
		weightSum += w
	}
	if weightSum <= normEpsilon {
		// todos los ratings iguales: promedio simple
		for i := range profile {
			profile[i] = 0
		}
		for _, idx := range watchedIdx {
			floats.Add(profile, r.Embeddings.RawRowView(idx))
		}
		weightSum = float64(len(watchedIdx))
	}
	floats.Scale(1/weightSum, profile)

	sims := r.similarities(profile)

	candidates := make([]int, 0, len(r.Items))
	for i, it := range r.Items {
		if !watched[it.MovieID] {
			candidates = append(candidates, i)
		}
	}

	var selected []int
	if diversityFactor > 0 {
		selected = r.mmrSelect(candidates, sims, topK, diversityFactor)
	} else {
		ranked := make([]scored, len(candidates))
		for i, idx := range candidates {
			ranked[i] = scored{idx: idx, score: sims[idx]}
		}
		sortScoredDesc(ranked)
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}
		selected = make([]int, len(ranked))
		for i, c := range ranked {
			selected[i] = c.idx
		}
	}

	// el score reportado es la similitud al perfil, en orden de selección
	out := make([]models.RankedItem, len(selected))
	for i, idx := range selected {
		out[i] = toRanked(r.Items[idx], sims[idx])
	}
	return out, nil
}

// mmrSelect: selección greedy Maximal Marginal Relevance. Escaneo lineal
// sobre el set restante en cada iteración (O(topK × candidatos)); en
// empates gana el primer candidato en orden de catálogo.
func (r *EmbeddingRecommender) mmrSelect(candidates []int, sims []float64, topK int, d float64) []int {
	remaining := append([]int(nil), candidates...)
	selected := make([]int, 0, topK)

	for len(selected) < topK && len(remaining) > 0 {
		bestPos := -1
		bestScore := math.Inf(-1)
		for pos, idx := range remaining {
			var score float64
			if len(selected) == 0 {
				// primera elección: pura similitud, sin penalización
				score = sims[idx]
			} else {
				maxSim := math.Inf(-1)
				for _, sel := range selected {
					s := floats.Dot(r.Embeddings.RawRowView(idx), r.Embeddings.RawRowView(sel))
					if s > maxSim {
						maxSim = s
					}
				}
				score = (1-d)*sims[idx] - d*maxSim
			}
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

// SimilarItems devuelve los topK vecinos por coseno de una película,
// excluyéndola a sí misma. Acá un id desconocido sí es error: es un
// lookup directo, no un camino de serving con fallback.
func (r *EmbeddingRecommender) SimilarItems(movieID int, topK int) ([]models.RankedItem, error) {
	if !r.fitted() {
		return nil, fmt.Errorf("embedding: modelo sin ajustar, llama Fit primero")
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	idx, ok := r.index[movieID]
	if !ok {
		return nil, fmt.Errorf("embedding: movieId %d no está en el catálogo", movieID)
	}

	sims := r.similarities(r.Embeddings.RawRowView(idx))
	ranked := make([]scored, 0, len(r.Items)-1)
	for i := range r.Items {
		if i == idx {
			continue
		}
		ranked = append(ranked, scored{idx: i, score: sims[i]})
	}
	sortScoredDesc(ranked)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]models.RankedItem, len(ranked))
	for i, c := range ranked {
		out[i] = toRanked(r.Items[c.idx], c.score)
	}
	return out, nil
}

// tokenizeEmbed corta el texto igual que el tokenizador del feature
// store pero sin filtrar stop words: en un espacio hasheado de dimensión
// fija no pesan lo suficiente como para filtrarlas.
func tokenizeEmbed(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(c rune) bool {
		return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
	})
}
