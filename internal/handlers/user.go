package handlers

import (
	"net/http"

	"github.com/aawaaz/civic-portal/internal/middleware"
	"github.com/aawaaz/civic-portal/internal/services"
	"go.uber.org/zap"
)

// UserHandler handles citizen account endpoints
type UserHandler struct {
	authSvc *services.AuthService
	logger  *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(as *services.AuthService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{authSvc: as, logger: logger}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

func respondSession(w http.ResponseWriter, status int, s *services.Session) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"token":   s.Token,
		"user":    s.User.View(),
	})
}

// Signup handles POST /user/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.authSvc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSession(w, http.StatusCreated, session)
}

// Login handles POST /user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSession(w, http.StatusOK, session)
}

// GoogleLogin handles POST /user/google-login
func (h *UserHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.authSvc.GoogleLogin(r.Context(), req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSession(w, http.StatusOK, session)
}

// Profile handles GET /user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.Profile(r.Context(), middleware.Citizen(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user.View()})
}
