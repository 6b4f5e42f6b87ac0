package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
)

// AnonymousAuthor labels comments posted without an identity
const AnonymousAuthor = "Anonymous"

// CommentService handles comments attached to complaints
type CommentService struct {
	comments   repository.CommentRepository
	complaints repository.ComplaintRepository
	logger     *zap.SugaredLogger
}

// NewCommentService creates a new comment service
func NewCommentService(store *repository.Store, logger *zap.SugaredLogger) *CommentService {
	return &CommentService{
		comments:   store.Comments,
		complaints: store.Complaints,
		logger:     logger,
	}
}

// List returns the comments of a complaint, newest first
func (s *CommentService) List(ctx context.Context, complaintID string) ([]models.Comment, error) {
	list, err := s.comments.ListByComplaint(ctx, complaintID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, invalid("Invalid complaint id")
		}
		return nil, internalErr(s.logger, "Failed to fetch comments", err, "complaint_id", complaintID)
	}
	return list, nil
}

// Add posts a comment. caller may be nil for anonymous comments.
func (s *CommentService) Add(ctx context.Context, caller *models.CitizenIdentity, complaintID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment text is required")
	}

	if _, err := s.complaints.ByID(ctx, complaintID); err != nil {
		if lerr := lookupErr(err, "complaint"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to add comment", err, "complaint_id", complaintID)
	}

	c := &models.Comment{
		ComplaintID: complaintID,
		Text:        text,
		Author:      authorName(caller),
	}
	if caller != nil {
		c.UserID = caller.ID
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, internalErr(s.logger, "Failed to add comment", err, "complaint_id", complaintID)
	}

	s.logger.Infow("Comment added", "comment_id", c.ID, "complaint_id", complaintID, "anonymous", caller == nil)
	return c, nil
}

// Update replaces the text of the caller's own comment
func (s *CommentService) Update(ctx context.Context, caller *models.CitizenIdentity, id, text string) (*models.Comment, error) {
	if caller == nil {
		return nil, unauthorized("Please log in to edit a comment")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment text is required")
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}

	updated, err := s.comments.UpdateText(ctx, id, text)
	if err != nil {
		if lerr := lookupErr(err, "comment"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to update comment", err, "comment_id", id)
	}
	return updated, nil
}

// Delete permanently removes the caller's own comment
func (s *CommentService) Delete(ctx context.Context, caller *models.CitizenIdentity, id string) error {
	if caller == nil {
		return unauthorized("Please log in to delete a comment")
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		if lerr := lookupErr(err, "comment"); lerr != nil {
			return lerr
		}
		return internalErr(s.logger, "Failed to delete comment", err, "comment_id", id)
	}
	s.logger.Infow("Comment deleted", "comment_id", id, "user_id", caller.ID)
	return nil
}

// owned fetches a comment and checks the caller wrote it. Anonymous
// comments belong to nobody.
func (s *CommentService) owned(ctx context.Context, caller *models.CitizenIdentity, id string) (*models.Comment, error) {
	c, err := s.comments.ByID(ctx, id)
	if err != nil {
		if lerr := lookupErr(err, "comment"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to fetch comment", err, "comment_id", id)
	}
	if c.UserID == "" || c.UserID != caller.ID {
		return nil, forbidden("You can only modify your own comments")
	}
	return c, nil
}

func authorName(caller *models.CitizenIdentity) string {
	if caller == nil {
		return AnonymousAuthor
	}
	if name := strings.TrimSpace(caller.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(caller.Email); email != "" {
		return email
	}
	return AnonymousAuthor
}
