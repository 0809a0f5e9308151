package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cinerec/internal/cache"
	"cinerec/internal/feature"
	"cinerec/internal/models"
	"cinerec/internal/recommender"
	"cinerec/internal/repository"
)

const (
	DefaultK = 20
	MaxK     = 50 // por seguridad, no deja pedir 1000 ítems

	DefaultAlpha     = 0.5
	DefaultDiversity = 0.3

	cacheTTL = time.Hour
)

// Nombres de modelo aceptados en el parámetro ?model=
const (
	ModelContent   = "content"
	ModelSVD       = "svd"
	ModelHybrid    = "hybrid"
	ModelEmbedding = "embedding"
)

// ModelSet es el juego completo de modelos ajustados de una corrida de
// entrenamiento. Inmutable después de construirse; se reemplaza entero
// en un retrain (hot swap), nunca se muta.
type ModelSet struct {
	Items     []models.Item
	Store     *feature.Store // vectorizador/escalador ajustados (Transform de ítems nuevos)
	Content   *recommender.ContentRecommender
	SVD       *recommender.SVDRecommender
	Embedding *recommender.EmbeddingRecommender
	TrainedAt time.Time
}

type RecommendService struct {
	mu  sync.RWMutex
	set *ModelSet

	ratings *repository.RatingRepository
	recRepo *repository.RecommendationRepository
	cache   *cache.Cache
}

func NewRecommendService(
	set *ModelSet,
	ratings *repository.RatingRepository,
	recRepo *repository.RecommendationRepository,
	c *cache.Cache,
) *RecommendService {
	return &RecommendService{
		set:     set,
		ratings: ratings,
		recRepo: recRepo,
		cache:   c,
	}
}

// Swap reemplaza el juego de modelos servido (lo usa el retrain admin).
func (s *RecommendService) Swap(set *ModelSet) {
	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
}

func (s *RecommendService) models() (*ModelSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return nil, fmt.Errorf("no hay modelos cargados: corre cmd/trainer y reinicia la API")
	}
	return s.set, nil
}

// RecRequest: solo los parámetros que sí cambian por request.
type RecRequest struct {
	UserID    int
	K         int
	Model     string  // content | svd | hybrid | embedding
	Alpha     float64 // híbrido: fracción del lado contenido
	Diversity float64 // embedding: factor MMR
	Context   bool    // aplicar re-ranker contextual
	TimeOfDay string  // vacío = detectar por reloj
	Refresh   bool    // true = ignorar cache Redis
}

func (req *RecRequest) normalize() {
	if req.K <= 0 {
		req.K = DefaultK
	} else if req.K > MaxK {
		req.K = MaxK
	}
	if req.Model == "" {
		req.Model = ModelHybrid
	}
}

// resolveTimeOfDay fija la franja horaria ANTES de armar la key de
// cache: si quedara vacía, una lista "evening" cacheada a las 21:59 se
// serviría como "night" hasta expirar el TTL.
func (req *RecRequest) resolveTimeOfDay(now time.Time) {
	if req.Context && req.TimeOfDay == "" {
		req.TimeOfDay = recommender.DetectTimeOfDay(now)
	}
}

func cacheKey(req RecRequest) string {
	// no incluye Refresh: refresh solo decide si se usa el cache
	return fmt.Sprintf("rec:user:%d:model:%s:k:%d:a:%.2f:d:%.2f:ctx:%t:tod:%s",
		req.UserID, req.Model, req.K, req.Alpha, req.Diversity, req.Context, req.TimeOfDay)
}

// Recommend despacha al modelo pedido sobre el historial del usuario,
// cachea en Redis y guarda el historial servido en Mongo.
func (s *RecommendService) Recommend(ctx context.Context, req RecRequest) ([]models.RankedItem, error) {
	req.normalize()
	req.resolveTimeOfDay(time.Now())

	var cached []models.RankedItem
	if !req.Refresh {
		if ok, err := s.cache.GetJSON(ctx, cacheKey(req), &cached); err == nil && ok {
			return cached, nil
		}
	}

	set, err := s.models()
	if err != nil {
		return nil, err
	}

	history, err := s.ratings.GetAllByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	items, err := s.dispatch(set, req, history)
	if err != nil {
		return nil, err
	}

	// historial en Mongo (no rompemos la respuesta si falla)
	if s.recRepo != nil {
		hist := &models.Recommendation{
			UserID: req.UserID,
			Model:  req.Model,
			Params: map[string]any{
				"k":         req.K,
				"alpha":     req.Alpha,
				"diversity": req.Diversity,
				"context":   req.Context,
				"refresh":   req.Refresh,
			},
			Items:     items,
			CreatedAt: time.Now(),
		}
		if err := s.recRepo.Insert(ctx, hist); err != nil {
			log.Printf("[rec] error guardando historial en Mongo: %v", err)
		}
	}

	if err := s.cache.SetJSON(ctx, cacheKey(req), items, cacheTTL); err != nil {
		log.Printf("[rec] error cacheando en Redis: %v", err)
	}
	return items, nil
}

// dispatch resuelve el modelo base y, si se pidió, lo envuelve con el
// re-ranker contextual.
func (s *RecommendService) dispatch(set *ModelSet, req RecRequest, history []models.RatingDoc) ([]models.RankedItem, error) {
	base, err := s.baseFor(set, req)
	if err != nil {
		return nil, err
	}

	if !req.Context {
		return base.Recommend(history, req.K)
	}

	ctxRec := recommender.NewContext(base, set.Items)
	opts := recommender.DefaultContextOptions()
	opts.TimeOfDay = req.TimeOfDay
	return ctxRec.Recommend(history, req.UserID, req.K, opts)
}

func (s *RecommendService) baseFor(set *ModelSet, req RecRequest) (recommender.BaseRecommender, error) {
	switch req.Model {
	case ModelContent:
		return set.Content, nil

	case ModelSVD:
		return recommender.BaseFunc(func(h []models.RatingDoc, k int) ([]models.RankedItem, error) {
			return set.SVD.Recommend(req.UserID, set.Items, k)
		}), nil

	case ModelHybrid:
		hybrid, err := recommender.NewHybrid(set.Content, set.SVD)
		if err != nil {
			return nil, err
		}
		// alpha=0.0 explícito es válido (colaborativo puro); el default
		// 0.5 lo pone el handler cuando el query param no viene
		alpha := req.Alpha
		return recommender.BaseFunc(func(h []models.RatingDoc, k int) ([]models.RankedItem, error) {
			return hybrid.Recommend(req.UserID, h, k, alpha)
		}), nil

	case ModelEmbedding:
		div := req.Diversity
		return recommender.BaseFunc(func(h []models.RatingDoc, k int) ([]models.RankedItem, error) {
			return set.Embedding.Recommend(h, k, div)
		}), nil
	}
	return nil, fmt.Errorf("modelo desconocido %q (content|svd|hybrid|embedding)", req.Model)
}

// SimilarMovies expone los vecinos por embedding de una película.
func (s *RecommendService) SimilarMovies(ctx context.Context, movieID, k int) ([]models.RankedItem, error) {
	if k <= 0 {
		k = DefaultK
	} else if k > MaxK {
		k = MaxK
	}
	set, err := s.models()
	if err != nil {
		return nil, err
	}
	return set.Embedding.SimilarItems(movieID, k)
}

// History lista las recomendaciones servidas a un usuario.
func (s *RecommendService) History(ctx context.Context, userID int, limit int64) ([]models.Recommendation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.recRepo.FindByUser(ctx, userID, limit)
}
