package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"cinerec/internal/service"
)

type RecommendHandler struct {
	svc *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{svc: s}
}

// parseRecRequest lee los query params comunes a HTTP y WS.
// alpha y diversity tienen default solo si el param no viene:
// alpha=0 explícito es válido (híbrido 100% colaborativo).
func parseRecRequest(r *http.Request, userID int) service.RecRequest {
	q := r.URL.Query()

	k, _ := strconv.Atoi(q.Get("k"))

	alpha := service.DefaultAlpha
	if v := q.Get("alpha"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			alpha = f
		}
	}
	diversity := service.DefaultDiversity
	if v := q.Get("diversity"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			diversity = f
		}
	}

	return service.RecRequest{
		UserID:    userID,
		K:         k,
		Model:     q.Get("model"),
		Alpha:     alpha,
		Diversity: diversity,
		Context:   q.Get("context") == "true",
		TimeOfDay: q.Get("timeOfDay"),
		Refresh:   q.Get("refresh") == "true",
	}
}

// @Summary Recomendaciones para un usuario
// @Tags recommend
// @Produce json
// @Param id path int true "userId"
// @Param k query int false "cantidad de recomendaciones (máx 50)"
// @Param model query string false "content | svd | hybrid | embedding"
// @Param alpha query number false "híbrido: fracción del lado contenido [0,1]"
// @Param diversity query number false "embedding: factor de diversidad MMR [0,1]"
// @Param context query bool false "si true, aplica re-ranking contextual"
// @Param timeOfDay query string false "morning | afternoon | evening | night"
// @Param refresh query bool false "si true, ignora cache Redis"
// @Success 200 {array} models.RankedItem
// @Router /users/{id}/recommendations [get]
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	items, err := h.svc.Recommend(r.Context(), parseRecRequest(r, userID))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(items)
}

// @Summary Mis recomendaciones
// @Tags recommend
// @Produce json
// @Param k query int false "cantidad de recomendaciones (máx 50)"
// @Param model query string false "content | svd | hybrid | embedding"
// @Success 200 {array} models.RankedItem
// @Router /me/recommendations [get]
func (h *RecommendHandler) GetMyRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID := UserIDFromContext(r.Context())
	items, err := h.svc.Recommend(r.Context(), parseRecRequest(r, userID))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(items)
}

// upgrader global (no afecta a swagger)
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Recomendaciones en tiempo real (WebSocket)
// @Tags recommend
// @Produce json
// @Param id path int true "userId"
// @Param k query int false "cantidad de recomendaciones (máx 50)"
// @Param model query string false "content | svd | hybrid | embedding"
// @Success 200 {object} map[string]interface{}
// @Router /users/{id}/ws/recommendations [get]
func (h *RecommendHandler) GetRecommendationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "No se pudo abrir WebSocket", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	req := parseRecRequest(r, userID)

	conn.WriteJSON(map[string]any{
		"type": "start",
		"msg":  "Conexión WS abierta, iniciando cálculo…",
	})

	// Un mensaje de progreso por cada etapa que va a correr.
	var stages []string
	if req.Model == "" || req.Model == service.ModelHybrid {
		stages = []string{service.ModelContent, service.ModelSVD, service.ModelHybrid}
	} else {
		stages = []string{req.Model}
	}
	if req.Context {
		stages = append(stages, "context")
	}
	for i, stage := range stages {
		conn.WriteJSON(map[string]any{
			"type":  "progress",
			"stage": i + 1,
			"model": stage,
			"msg":   "Evaluando modelo " + stage,
		})
	}

	items, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		conn.WriteJSON(map[string]any{
			"type":  "error",
			"error": err.Error(),
		})
		return
	}

	conn.WriteJSON(map[string]any{
		"type":        "recommendations",
		"userId":      userID,
		"model":       req.Model,
		"items":       items,
		"generatedAt": time.Now(),
	})
}

// @Summary Historial de recomendaciones servidas (admin)
// @Tags recommend
// @Produce json
// @Param id path int true "userId"
// @Param limit query int false "máximo de corridas (default 20)"
// @Success 200 {array} models.Recommendation
// @Router /users/{id}/recommendations/history [get]
func (h *RecommendHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	h.listHistory(w, r, userID)
}

// @Summary Mi historial de recomendaciones
// @Tags recommend
// @Produce json
// @Param limit query int false "máximo de corridas (default 20)"
// @Success 200 {array} models.Recommendation
// @Router /me/recommendations/history [get]
func (h *RecommendHandler) GetMyHistory(w http.ResponseWriter, r *http.Request) {
	h.listHistory(w, r, UserIDFromContext(r.Context()))
}

func (h *RecommendHandler) listHistory(w http.ResponseWriter, r *http.Request, userID int) {
	w.Header().Set("Content-Type", "application/json")

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	out, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}
