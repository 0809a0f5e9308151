package recommender

import (
	"fmt"

	"cinerec/internal/models"
)

// cuántos candidatos pide el híbrido a cada lado antes de mezclar
// (más ancho que topK para que la unión cubra bien ambos rankings)
const hybridCandidates = 200

// HybridRecommender mezcla linealmente el score de contenido y el de
// factores latentes: alpha en [0,1] es la fracción del lado contenido.
type HybridRecommender struct {
	Content *ContentRecommender
	Collab  *SVDRecommender
}

func NewHybrid(content *ContentRecommender, collab *SVDRecommender) (*HybridRecommender, error) {
	if content == nil || collab == nil {
		return nil, fmt.Errorf("hybrid: faltan modelos base (content=%v collab=%v)", content != nil, collab != nil)
	}
	return &HybridRecommender{Content: content, Collab: collab}, nil
}

func (h *HybridRecommender) Recommend(userID int, history []models.RatingDoc, topK int, alpha float64) ([]models.RankedItem, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("hybrid: alpha=%.3f fuera de [0,1]", alpha)
	}

	contentRecs, err := h.Content.Recommend(history, hybridCandidates)
	if err != nil {
		return nil, err
	}
	collabRecs, err := h.Collab.Recommend(userID, h.Content.Items, hybridCandidates)
	if err != nil {
		return nil, err
	}

	// outer join por movieId; el lado ausente se imputa con la MEDIANA
	// de los scores presentes de ese lado (ni cero ni media)
	type pair struct {
		item          models.RankedItem
		content       float64
		collab        float64
		hasContent    bool
		hasCollab     bool
		originalOrder int
	}

	merged := make(map[int]*pair)
	order := make([]int, 0, len(contentRecs)+len(collabRecs))
	contentScores := make([]float64, 0, len(contentRecs))
	collabScores := make([]float64, 0, len(collabRecs))

	for _, rec := range contentRecs {
		merged[rec.MovieID] = &pair{item: rec, content: rec.Score, hasContent: true, originalOrder: len(order)}
		order = append(order, rec.MovieID)
		contentScores = append(contentScores, rec.Score)
	}
	for _, rec := range collabRecs {
		collabScores = append(collabScores, rec.Score)
		if p, ok := merged[rec.MovieID]; ok {
			p.collab = rec.Score
			p.hasCollab = true
			continue
		}
		merged[rec.MovieID] = &pair{item: rec, collab: rec.Score, hasCollab: true, originalOrder: len(order)}
		order = append(order, rec.MovieID)
	}

	medContent := median(contentScores)
	medCollab := median(collabScores)

	candidates := make([]scored, 0, len(order))
	items := make([]models.RankedItem, len(order))
	for _, movieID := range order {
		p := merged[movieID]
		c := p.content
		if !p.hasContent {
			c = medContent
		}
		s := p.collab
		if !p.hasCollab {
			s = medCollab
		}
		combined := alpha*c + (1-alpha)*s
		items[p.originalOrder] = p.item
		candidates = append(candidates, scored{idx: p.originalOrder, score: combined})
	}

	sortScoredDesc(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]models.RankedItem, len(candidates))
	for i, c := range candidates {
		rec := items[c.idx]
		rec.Score = c.score
		out[i] = rec
	}
	return out, nil
}
