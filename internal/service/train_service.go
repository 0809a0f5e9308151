package service

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"time"

	"gonum.org/v1/gonum/mat"

	"cinerec/internal/feature"
	"cinerec/internal/models"
	"cinerec/internal/recommender"
	"cinerec/internal/repository"
)

const artifactName = "modelset-v1"

// TrainService entrena los modelos en batch desde las tablas de Mongo y
// los persiste como artefacto gob. El entrenamiento vive fuera del camino
// de un request: cmd/trainer lo corre offline y /admin/retrain lo corre
// in-process con hot swap.
type TrainService struct {
	movies    *repository.MovieRepository
	ratings   *repository.RatingRepository
	artifacts *repository.ArtifactRepository
}

func NewTrainService(
	movies *repository.MovieRepository,
	ratings *repository.RatingRepository,
	artifacts *repository.ArtifactRepository,
) *TrainService {
	return &TrainService{movies: movies, ratings: ratings, artifacts: artifacts}
}

// ===== DTOs serializables (gob no sabe de mat.Dense) =====

type matrixState struct {
	Rows, Cols int
	Data       []float64
}

func toMatrixState(m *mat.Dense) matrixState {
	raw := m.RawMatrix()
	return matrixState{Rows: raw.Rows, Cols: raw.Cols, Data: raw.Data}
}

func (ms matrixState) toDense() *mat.Dense {
	return mat.NewDense(ms.Rows, ms.Cols, ms.Data)
}

type modelArtifact struct {
	Items    []models.Item
	Store    feature.Store
	Features matrixState

	SVDUserFactors matrixState
	SVDItemFactors matrixState
	SVDUserIndex   map[int]int
	SVDItemIndex   map[int]int
	SVDSeen        map[int]map[int]bool
	SVDGlobalMean  float64

	Embeddings matrixState
	EmbedDim   int

	TrainedAt time.Time
}

// Train carga las tablas y ajusta los cuatro modelos.
func (s *TrainService) Train(ctx context.Context, nFactors int) (*ModelSet, error) {
	start := time.Now()

	movieDocs, err := s.movies.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargando movies: %w", err)
	}
	if len(movieDocs) == 0 {
		return nil, fmt.Errorf("la colección movies está vacía: corre cmd/etl primero")
	}
	ratings, err := s.ratings.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargando ratings: %w", err)
	}

	items := make([]models.Item, len(movieDocs))
	for i := range movieDocs {
		items[i] = movieDocs[i].ToItem()
	}

	set, err := buildModelSet(items, ratings, nFactors, 0)
	if err != nil {
		return nil, err
	}

	log.Printf("[train] listo: movies=%d ratings=%d factores=%d tiempo=%s",
		len(items), len(ratings), set.SVD.Rank(), time.Since(start))
	return set, nil
}

// buildModelSet ajusta feature store + contenido + SVD + embeddings sobre
// tablas ya en memoria. embedDim<=0 usa la dimensión por defecto.
func buildModelSet(items []models.Item, ratings []models.RatingDoc, nFactors, embedDim int) (*ModelSet, error) {
	store := feature.NewStore()
	fm, err := store.Fit(items)
	if err != nil {
		return nil, err
	}

	content, err := recommender.NewContent(items, fm)
	if err != nil {
		return nil, err
	}

	svd, err := recommender.TrainSVD(ratings, nFactors)
	if err != nil {
		return nil, err
	}

	embedding := recommender.NewEmbeddingRecommender(embedDim).Fit(items)

	return &ModelSet{
		Items:     items,
		Store:     store,
		Content:   content,
		SVD:       svd,
		Embedding: embedding,
		TrainedAt: time.Now(),
	}, nil
}

// Retrain: entrenamiento batch completo + persistencia + hot swap del
// juego servido. Los requests en vuelo siguen leyendo el set viejo.
func (s *TrainService) Retrain(ctx context.Context, nFactors int, rec *RecommendService) error {
	set, err := s.Train(ctx, nFactors)
	if err != nil {
		return err
	}
	if err := s.Persist(ctx, set); err != nil {
		return err
	}
	if rec != nil {
		rec.Swap(set)
	}
	return nil
}

// Persist serializa el ModelSet y lo sube a model_artifacts.
func (s *TrainService) Persist(ctx context.Context, set *ModelSet) error {
	art := modelArtifact{
		Items:          set.Items,
		Store:          *set.Store,
		Features:       toMatrixState(set.Content.Features),
		SVDUserFactors: toMatrixState(set.SVD.UserFactors),
		SVDItemFactors: toMatrixState(set.SVD.ItemFactors),
		SVDUserIndex:   set.SVD.UserIndex,
		SVDItemIndex:   set.SVD.ItemIndex,
		SVDSeen:        set.SVD.Seen,
		SVDGlobalMean:  set.SVD.GlobalMean,
		Embeddings:     toMatrixState(set.Embedding.Embeddings),
		EmbedDim:       set.Embedding.Dim,
		TrainedAt:      set.TrainedAt,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&art); err != nil {
		return fmt.Errorf("serializando artefacto: %w", err)
	}
	if err := s.artifacts.Save(ctx, artifactName, buf.Bytes()); err != nil {
		return fmt.Errorf("guardando artefacto: %w", err)
	}
	log.Printf("[train] artefacto %s guardado (%d KB)", artifactName, buf.Len()/1024)
	return nil
}

// Load rearma un ModelSet desde el artefacto persistido; queda listo
// para servir sin re-ajustar nada. (false, nil) = no hay artefacto.
func (s *TrainService) Load(ctx context.Context) (*ModelSet, bool, error) {
	payload, ok, err := s.artifacts.Load(ctx, artifactName)
	if err != nil || !ok {
		return nil, false, err
	}

	var art modelArtifact
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&art); err != nil {
		return nil, false, fmt.Errorf("decodificando artefacto: %w", err)
	}

	content, err := recommender.NewContent(art.Items, art.Features.toDense())
	if err != nil {
		return nil, false, err
	}

	svd := &recommender.SVDRecommender{
		UserFactors: art.SVDUserFactors.toDense(),
		ItemFactors: art.SVDItemFactors.toDense(),
		UserIndex:   art.SVDUserIndex,
		ItemIndex:   art.SVDItemIndex,
		Seen:        art.SVDSeen,
		GlobalMean:  art.SVDGlobalMean,
	}

	embedding, err := recommender.NewEmbeddingFromParts(art.Items, art.Embeddings.toDense())
	if err != nil {
		return nil, false, err
	}

	store := art.Store
	return &ModelSet{
		Items:     art.Items,
		Store:     &store,
		Content:   content,
		SVD:       svd,
		Embedding: embedding,
		TrainedAt: art.TrainedAt,
	}, true, nil
}
