package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cinerec/internal/service"
)

type AdminHandler struct {
	train *service.TrainService
	rec   *service.RecommendService
}

func NewAdminHandler(train *service.TrainService, rec *service.RecommendService) *AdminHandler {
	return &AdminHandler{train: train, rec: rec}
}

// @Summary Reentrenar y hot-swapear los modelos (solo admin)
// @Tags admin
// @Produce json
// @Param factors query int false "factores latentes del SVD (default 50)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/retrain [post]
func (h *AdminHandler) Retrain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	factors, _ := strconv.Atoi(r.URL.Query().Get("factors"))

	if err := h.train.Retrain(r.Context(), factors, h.rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"msg":    "modelos reentrenados y activos",
	})
}

// @Summary Evaluación hold-out del modelo SVD (solo admin)
// @Tags admin
// @Produce json
// @Param testRatio query number false "fracción de test por usuario (default 0.2)"
// @Param k query int false "k para precision/recall (default 10)"
// @Param factors query int false "factores latentes del SVD (default 50)"
// @Success 200 {object} service.EvalReport
// @Router /admin/evaluate [post]
func (h *AdminHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	testRatio, _ := strconv.ParseFloat(r.URL.Query().Get("testRatio"), 64)
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	factors, _ := strconv.Atoi(r.URL.Query().Get("factors"))

	report, err := h.train.Evaluate(r.Context(), testRatio, k, factors)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(report)
}
