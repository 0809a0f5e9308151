package handler

import (
	"encoding/json"
	"net/http"

	"cinerec/internal/models"
	"cinerec/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(s *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: s}
}

type registerRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Role            string   `json:"role"`
	PreferredGenres []string `json:"preferredGenres"`
}

type userResponse struct {
	UserID          int      `json:"userId"`
	Email           string   `json:"email"`
	Role            string   `json:"role"`
	PreferredGenres []string `json:"preferredGenres,omitempty"`
	CreatedAt       string   `json:"createdAt"`
}

func toUserResponse(u *models.UserDoc) userResponse {
	return userResponse{
		UserID:          u.UserID,
		Email:           u.Email,
		Role:            u.Role,
		PreferredGenres: u.PreferredGenres,
		CreatedAt:       u.CreatedAt,
	}
}

// @Summary Registro de usuario
// @Tags auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "datos de registro"
// @Success 201 {object} userResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Register(r.Context(), service.RegisterUserData{
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		PreferredGenres: req.PreferredGenres,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toUserResponse(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Login (devuelve JWT)
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credenciales"
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user":  toUserResponse(u),
	})
}
