package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cinerec/internal/models"
	"cinerec/internal/service"
)

type RatingHandler struct {
	svc *service.RatingService
}

func NewRatingHandler(s *service.RatingService) *RatingHandler {
	return &RatingHandler{svc: s}
}

// @Summary Ratings de un usuario (admin)
// @Tags ratings
// @Produce json
// @Param id path int true "userId"
// @Param limit query int false "máximo de filas"
// @Param offset query int false "offset"
// @Success 200 {array} models.RatingDoc
// @Router /users/{id}/ratings [get]
func (h *RatingHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	h.listRatings(w, r, userID)
}

// @Summary Mis ratings
// @Tags ratings
// @Produce json
// @Param limit query int false "máximo de filas"
// @Param offset query int false "offset"
// @Success 200 {array} models.RatingDoc
// @Router /me/ratings [get]
func (h *RatingHandler) GetMyRatings(w http.ResponseWriter, r *http.Request) {
	h.listRatings(w, r, UserIDFromContext(r.Context()))
}

func (h *RatingHandler) listRatings(w http.ResponseWriter, r *http.Request, userID int) {
	w.Header().Set("Content-Type", "application/json")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	out, err := h.svc.GetByUser(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// @Summary Registrar rating de un usuario (admin)
// @Tags ratings
// @Accept json
// @Param id path int true "userId"
// @Param body body models.RateRequest true "movieId + rating"
// @Success 204
// @Router /users/{id}/ratings [post]
func (h *RatingHandler) PostRating(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	h.postRating(w, r, userID)
}

// @Summary Registrar mi rating
// @Tags ratings
// @Accept json
// @Param body body models.RateRequest true "movieId + rating"
// @Success 204
// @Router /me/ratings [post]
func (h *RatingHandler) PostMyRating(w http.ResponseWriter, r *http.Request) {
	h.postRating(w, r, UserIDFromContext(r.Context()))
}

func (h *RatingHandler) postRating(w http.ResponseWriter, r *http.Request, userID int) {
	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.svc.Rate(r.Context(), userID, req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
