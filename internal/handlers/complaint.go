package handlers

import (
	"net/http"

	"github.com/aawaaz/civic-portal/internal/middleware"
	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	complaintSvc *services.ComplaintService
	maxUpload    int64
	logger       *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler. maxUpload bounds the
// whole request body in bytes.
func NewComplaintHandler(cs *services.ComplaintService, maxUpload int64, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: cs, maxUpload: maxUpload, logger: logger}
}

func viewerID(r *http.Request) string {
	if c := middleware.Citizen(r.Context()); c != nil {
		return c.ID
	}
	return ""
}

// List handles GET /complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.complaintSvc.List(r.Context(), viewerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": list})
}

// Mine handles GET /complaints/my
func (h *ComplaintHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.complaintSvc.ListMine(r.Context(), middleware.Citizen(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": list})
}

// Get handles GET /complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.complaintSvc.Get(r.Context(), chi.URLParam(r, "id"), viewerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": view})
}

// Create handles POST /complaints (multipart, field "media" for files)
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseComplaintForm(w, r, h.maxUpload)
	if err != nil {
		respondFormError(w, err)
		return
	}
	defer form.cleanup()

	req := models.CreateComplaintRequest{
		Title:       form.get("title"),
		Description: form.get("description"),
		Category:    form.get("category"),
		Location:    form.get("location"),
		Urgency:     form.get("urgency"),
		Contact:     form.get("contact"),
	}
	if req.Contact == "" {
		req.Contact = form.get("contactInfo")
	}

	view, err := h.complaintSvc.Create(r.Context(), middleware.Citizen(r.Context()), req, form.files)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Complaint registered successfully!",
		"complaint": view,
	})
}

// Update handles PUT /complaints/{id}. Owners cannot change status here.
func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, err := parseComplaintForm(w, r, h.maxUpload)
	if err != nil {
		respondFormError(w, err)
		return
	}
	defer form.cleanup()

	if form.has("status") {
		respondError(w, http.StatusBadRequest, "Status can only be changed by a government official")
		return
	}
	removed, err := form.list("removedMediaIds")
	if err != nil {
		respondError(w, http.StatusBadRequest, "removedMediaIds must be a list of media ids")
		return
	}

	req := models.OwnerEditRequest{
		Title:           form.optional("title"),
		Description:     form.optional("description"),
		Category:        form.optional("category"),
		Location:        form.optional("location"),
		Urgency:         form.optional("urgency"),
		ContactInfo:     form.optional("contact"),
		RemovedMediaIDs: removed,
	}
	if req.ContactInfo == nil {
		req.ContactInfo = form.optional("contactInfo")
	}

	view, err := h.complaintSvc.Update(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id"), req, form.files)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Complaint updated successfully",
		"complaint": view,
	})
}

// Delete handles DELETE /complaints/{id}
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.complaintSvc.Delete(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Complaint deleted successfully"})
}

// Upvote handles POST /complaints/{id}/upvote
func (h *ComplaintHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	res, err := h.complaintSvc.ToggleUpvote(r.Context(), middleware.Citizen(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"_id":            res.ID,
		"votes":          res.Votes,
		"userHasUpvoted": res.UserHasUpvoted,
	})
}
