package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cinerec/internal/repository"
	"cinerec/internal/service"
)

type MovieHandler struct {
	movies *repository.MovieRepository
	recSvc *service.RecommendService
}

func NewMovieHandler(movies *repository.MovieRepository, recSvc *service.RecommendService) *MovieHandler {
	return &MovieHandler{movies: movies, recSvc: recSvc}
}

// @Summary Detalle de una película
// @Tags movies
// @Produce json
// @Param id path int true "movieId"
// @Success 200 {object} models.MovieDoc
// @Router /movies/{id} [get]
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	movieID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	m, err := h.movies.GetByID(r.Context(), movieID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "movie not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(m)
}

// @Summary Búsqueda de películas por título y/o género
// @Tags movies
// @Produce json
// @Param q query string false "texto en el título"
// @Param genre query string false "género exacto"
// @Param limit query int false "máximo de filas (default 20)"
// @Param offset query int false "offset de paginación"
// @Success 200 {array} models.MovieDoc
// @Router /movies/search [get]
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	q := r.URL.Query().Get("q")
	genre := r.URL.Query().Get("genre")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	out, err := h.movies.Search(r.Context(), q, genre, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// @Summary Top de películas por popularidad o rating
// @Tags movies
// @Produce json
// @Param metric query string false "popular (default) | rating"
// @Param limit query int false "máximo de filas (default 20)"
// @Success 200 {array} models.MovieDoc
// @Router /movies/top [get]
func (h *MovieHandler) Top(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	metric := r.URL.Query().Get("metric")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	out, err := h.movies.Top(r.Context(), metric, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// @Summary Películas similares (vecinos por embedding)
// @Tags movies
// @Produce json
// @Param id path int true "movieId"
// @Param k query int false "cantidad de vecinos (máx 50)"
// @Success 200 {array} models.RankedItem
// @Router /movies/{id}/similar [get]
func (h *MovieHandler) Similar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	movieID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))

	out, err := h.recSvc.SimilarMovies(r.Context(), movieID, k)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}
