// Package services contains business logic layers.
// Services are called by handlers and talk to repositories and the media store.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aawaaz/civic-portal/internal/media"
	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
)

// ComplaintService handles complaint business logic
type ComplaintService struct {
	complaints repository.ComplaintRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	media      media.Store
	logger     *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(store *repository.Store, mediaStore media.Store, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		complaints: store.Complaints,
		comments:   store.Comments,
		users:      store.Users,
		media:      mediaStore,
		logger:     logger,
	}
}

// List returns every complaint, newest first, annotated for viewerID.
// viewerID is empty for anonymous callers.
func (s *ComplaintService) List(ctx context.Context, viewerID string) ([]models.ComplaintView, error) {
	list, err := s.complaints.List(ctx, models.ComplaintFilter{})
	if err != nil {
		return nil, internalErr(s.logger, "Failed to fetch complaints", err)
	}
	return s.views(ctx, list, viewerID, false), nil
}

// ListMine returns the caller's own complaints
func (s *ComplaintService) ListMine(ctx context.Context, caller *models.CitizenIdentity) ([]models.ComplaintView, error) {
	if caller == nil {
		return nil, unauthorized("Please log in to view your complaints")
	}
	list, err := s.complaints.List(ctx, models.ComplaintFilter{UserID: caller.ID})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return []models.ComplaintView{}, nil
		}
		return nil, internalErr(s.logger, "Failed to fetch complaints", err, "user_id", caller.ID)
	}
	return s.views(ctx, list, caller.ID, false), nil
}

// ListAll is the government view: every complaint with the owner's email
func (s *ComplaintService) ListAll(ctx context.Context, official *models.OfficialIdentity) ([]models.ComplaintView, error) {
	if official == nil {
		return nil, unauthorized("Government authentication required")
	}
	list, err := s.complaints.List(ctx, models.ComplaintFilter{})
	if err != nil {
		return nil, internalErr(s.logger, "Failed to fetch complaints", err)
	}
	return s.views(ctx, list, "", true), nil
}

// Get returns a single complaint annotated for viewerID
func (s *ComplaintService) Get(ctx context.Context, id, viewerID string) (*models.ComplaintView, error) {
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c, viewerID), nil
}

// Create validates the submission, uploads attachments and stores the
// complaint as Pending under the caller's ownership
func (s *ComplaintService) Create(ctx context.Context, caller *models.CitizenIdentity, req models.CreateComplaintRequest, files []media.Upload) (*models.ComplaintView, error) {
	if caller == nil {
		return nil, unauthorized("Please log in to submit a complaint")
	}

	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)
	if title == "" || location == "" {
		return nil, invalid("Title and location are required")
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	urgency, err := parseUrgency(req.Urgency)
	if err != nil {
		return nil, err
	}

	attachments, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	c := &models.Complaint{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Location:    location,
		ContactInfo: strings.TrimSpace(req.Contact),
		Urgency:     urgency,
		Status:      models.StatusPending,
		Media:       attachments,
		UserID:      caller.ID,
		Upvotes:     []string{},
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		s.releaseAll(ctx, attachments)
		return nil, internalErr(s.logger, "Failed to create complaint", err, "user_id", caller.ID)
	}

	s.logger.Infow("Complaint created",
		"complaint_id", c.ID,
		"user_id", caller.ID,
		"category", c.Category,
		"media", len(c.Media),
	)
	return s.view(ctx, c, caller.ID), nil
}

// Update applies an owner edit. Removed attachments are released from the
// media store after the record is saved; new files are appended.
func (s *ComplaintService) Update(ctx context.Context, caller *models.CitizenIdentity, id string, req models.OwnerEditRequest, files []media.Upload) (*models.ComplaintView, error) {
	if caller == nil {
		return nil, unauthorized("Please log in to edit a complaint")
	}
	c, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != caller.ID {
		return nil, forbidden("You can only edit your own complaints")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalid("Title cannot be empty")
		}
		c.Title = title
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			return nil, invalid("Location cannot be empty")
		}
		c.Location = location
	}
	if req.Description != nil {
		c.Description = strings.TrimSpace(*req.Description)
	}
	if req.ContactInfo != nil {
		c.ContactInfo = strings.TrimSpace(*req.ContactInfo)
	}
	if req.Category != nil {
		if c.Category, err = parseCategory(*req.Category); err != nil {
			return nil, err
		}
	}
	if req.Urgency != nil {
		if c.Urgency, err = parseUrgency(*req.Urgency); err != nil {
			return nil, err
		}
	}

	retained, removed, err := splitMedia(c.Media, req.RemovedMediaIDs)
	if err != nil {
		return nil, err
	}

	added, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	c.Media = append(retained, added...)
	if err := s.complaints.UpdateContent(ctx, c); err != nil {
		s.releaseAll(ctx, added)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Complaint not found")
		}
		return nil, internalErr(s.logger, "Failed to update complaint", err, "complaint_id", id)
	}
	s.releaseAll(ctx, removed)

	s.logger.Infow("Complaint updated",
		"complaint_id", c.ID,
		"media_added", len(added),
		"media_removed", len(removed),
	)
	return s.view(ctx, c, caller.ID), nil
}

// Delete removes the complaint, its attachments and its comments.
// Attachments that fail to delete are logged and left behind.
func (s *ComplaintService) Delete(ctx context.Context, caller *models.CitizenIdentity, id string) error {
	if caller == nil {
		return unauthorized("Please log in to delete a complaint")
	}
	c, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != caller.ID {
		return forbidden("You can only delete your own complaints")
	}

	s.releaseAll(ctx, c.Media)

	if err := s.complaints.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Complaint not found")
		}
		return internalErr(s.logger, "Failed to delete complaint", err, "complaint_id", id)
	}

	n, err := s.comments.DeleteByComplaint(ctx, c.ID)
	if err != nil {
		s.logger.Errorw("Failed to delete comments of removed complaint", "complaint_id", c.ID, "error", err)
	}

	s.logger.Infow("Complaint deleted", "complaint_id", c.ID, "comments", n, "media", len(c.Media))
	return nil
}

// ToggleUpvote flips the caller's vote in one atomic update
func (s *ComplaintService) ToggleUpvote(ctx context.Context, caller *models.CitizenIdentity, id string) (*models.UpvoteResult, error) {
	if caller == nil {
		return nil, unauthorized("Please log in to upvote")
	}
	c, err := s.complaints.ToggleUpvote(ctx, id, caller.ID)
	if err != nil {
		if lerr := lookupErr(err, "complaint"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to toggle upvote", err, "complaint_id", id)
	}
	return &models.UpvoteResult{
		ID:             c.ID,
		Votes:          c.Votes(),
		UserHasUpvoted: c.HasUpvoted(caller.ID),
	}, nil
}

// UpdateStatus is the government triage transition. Only status is written.
func (s *ComplaintService) UpdateStatus(ctx context.Context, official *models.OfficialIdentity, id string, req models.StatusUpdateRequest) (*models.ComplaintView, error) {
	if official == nil {
		return nil, unauthorized("Government authentication required")
	}
	status := models.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, invalid("Invalid status. Must be one of: %s", joinStatuses())
	}

	c, err := s.complaints.UpdateStatus(ctx, id, status)
	if err != nil {
		if lerr := lookupErr(err, "complaint"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to update status", err, "complaint_id", id)
	}

	s.logger.Infow("Complaint status updated",
		"complaint_id", c.ID,
		"status", c.Status,
		"official_id", official.ID,
	)
	return s.view(ctx, c, ""), nil
}

// Stats returns counts by status and category for the government dashboard
func (s *ComplaintService) Stats(ctx context.Context, official *models.OfficialIdentity) (*models.ComplaintStats, error) {
	if official == nil {
		return nil, unauthorized("Government authentication required")
	}
	stats, err := s.complaints.Stats(ctx)
	if err != nil {
		return nil, internalErr(s.logger, "Failed to compute statistics", err)
	}
	for _, st := range models.Statuses {
		if _, ok := stats.ByStatus[st]; !ok {
			stats.ByStatus[st] = 0
		}
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []models.CategoryCount{}
	}
	return stats, nil
}

func (s *ComplaintService) fetch(ctx context.Context, id string) (*models.Complaint, error) {
	c, err := s.complaints.ByID(ctx, id)
	if err != nil {
		if lerr := lookupErr(err, "complaint"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to fetch complaint", err, "complaint_id", id)
	}
	return c, nil
}

// uploadAll stores every file or none: on the first failure the files
// already uploaded are released again.
func (s *ComplaintService) uploadAll(ctx context.Context, files []media.Upload) ([]models.Media, error) {
	out := make([]models.Media, 0, len(files))
	for _, f := range files {
		stored, err := s.media.Put(ctx, f)
		if err != nil {
			s.releaseAll(ctx, out)
			return nil, internalErr(s.logger, "Failed to upload media", err, "filename", f.Filename)
		}
		m := models.Media{URL: stored.URL, Filename: stored.Key, Type: stored.Kind}
		if m.Type == models.MediaVideo {
			m.ThumbnailURL = s.media.ThumbnailURL(stored.Key, media.ThumbnailWidth, media.ThumbnailHeight)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *ComplaintService) releaseAll(ctx context.Context, items []models.Media) {
	for _, m := range items {
		if err := s.media.Delete(ctx, m.Filename, m.Type); err != nil {
			s.logger.Errorw("Failed to delete media", "filename", m.Filename, "error", err)
		}
	}
}

func (s *ComplaintService) view(ctx context.Context, c *models.Complaint, viewerID string) *models.ComplaintView {
	views := s.views(ctx, []models.Complaint{*c}, viewerID, false)
	return &views[0]
}

func (s *ComplaintService) views(ctx context.Context, list []models.Complaint, viewerID string, withEmail bool) []models.ComplaintView {
	ids := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, c := range list {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	owners, err := s.users.Summaries(ctx, ids)
	if err != nil {
		s.logger.Warnw("Failed to resolve complaint owners", "error", err)
		owners = nil
	}

	out := make([]models.ComplaintView, 0, len(list))
	for i := range list {
		c := &list[i]
		owner, ok := owners[c.UserID]
		if !ok {
			owner = models.OwnerSummary{ID: c.UserID}
		}
		if !withEmail {
			owner.Email = ""
		}
		attachments := c.Media
		if attachments == nil {
			attachments = []models.Media{}
		}
		out = append(out, models.ComplaintView{
			ID:             c.ID,
			Title:          c.Title,
			Description:    c.Description,
			Category:       c.Category,
			Location:       c.Location,
			ContactInfo:    c.ContactInfo,
			Status:         c.Status,
			Urgency:        c.Urgency,
			User:           &owner,
			Media:          attachments,
			Votes:          c.Votes(),
			UserHasUpvoted: c.HasUpvoted(viewerID),
			CreatedAt:      c.CreatedAt,
			UpdatedAt:      c.UpdatedAt,
		})
	}
	return out
}

// splitMedia partitions attachments into kept and removed. Every removed id
// must belong to the complaint.
func splitMedia(current []models.Media, removedIDs []string) (kept, removed []models.Media, err error) {
	if len(removedIDs) == 0 {
		return append([]models.Media{}, current...), nil, nil
	}
	drop := make(map[string]bool, len(removedIDs))
	for _, id := range removedIDs {
		drop[id] = true
	}
	kept = make([]models.Media, 0, len(current))
	for _, m := range current {
		if drop[m.ID] {
			removed = append(removed, m)
			delete(drop, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	if len(drop) > 0 {
		return nil, nil, invalid("removedMediaIds contains attachments that do not belong to this complaint")
	}
	return kept, removed, nil
}

func parseCategory(raw string) (models.Category, error) {
	v := models.Category(strings.TrimSpace(raw))
	if v == "" {
		return "", invalid("Category is required")
	}
	if !v.Valid() {
		return "", invalid("Invalid category %q", raw)
	}
	return v, nil
}

func parseUrgency(raw string) (models.Urgency, error) {
	v := models.Urgency(strings.TrimSpace(raw))
	if v == "" {
		return models.UrgencyMedium, nil
	}
	if !v.Valid() {
		return "", invalid("Invalid urgency %q", raw)
	}
	return v, nil
}

func joinStatuses() string {
	parts := make([]string, len(models.Statuses))
	for i, st := range models.Statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}
