package handlers

import (
	"net/http"

	"github.com/aawaaz/civic-portal/internal/middleware"
	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GovernmentHandler serves the official login flow and triage endpoints
type GovernmentHandler struct {
	govSvc       *services.GovernmentService
	complaintSvc *services.ComplaintService
	logger       *zap.SugaredLogger
}

// NewGovernmentHandler creates a new government handler
func NewGovernmentHandler(gs *services.GovernmentService, cs *services.ComplaintService, logger *zap.SugaredLogger) *GovernmentHandler {
	return &GovernmentHandler{govSvc: gs, complaintSvc: cs, logger: logger}
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// RequestOTP handles POST /api/government/request-otp
func (h *GovernmentHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.govSvc.RequestOTP(r.Context(), req.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "OTP sent to your email"})
}

// VerifyOTP handles POST /api/government/verify-otp
func (h *GovernmentHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, official, err := h.govSvc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Login successful",
		"token":    token,
		"official": official,
	})
}

// ListComplaints handles GET /api/government/complaints
func (h *GovernmentHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := h.complaintSvc.ListAll(r.Context(), middleware.Official(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": list})
}

// UpdateStatus handles PUT /api/government/complaints/{id}/status
func (h *GovernmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.complaintSvc.UpdateStatus(r.Context(), middleware.Official(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": view})
}

// Stats handles GET /api/government/complaints/stats
func (h *GovernmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.complaintSvc.Stats(r.Context(), middleware.Official(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": stats})
}
