package handlers

import (
	"net/http"

	"github.com/aawaaz/civic-portal/internal/middleware"
	"github.com/aawaaz/civic-portal/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	commentSvc *services.CommentService
	logger     *zap.SugaredLogger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(cs *services.CommentService, logger *zap.SugaredLogger) *CommentHandler {
	return &CommentHandler{commentSvc: cs, logger: logger}
}

type commentRequest struct {
	Text string `json:"text"`
}

// List handles GET /comments/{id} where id is the complaint
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentSvc.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(comments),
		"comments": comments,
	})
}

// Add handles POST /comments/{id} where id is the complaint.
// Authentication is optional.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.commentSvc.Add(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// Update handles PUT /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.commentSvc.Update(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// Delete handles DELETE /comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.commentSvc.Delete(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Comment deleted successfully"})
}
