// Package repository defines persistence contracts and their backends:
// MongoDB (default), PostgreSQL, an in-memory store, and Redis for OTPs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("malformed identifier")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository stores citizen accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	// LinkGoogle attaches a federated identifier to an existing account
	LinkGoogle(ctx context.Context, id, googleID string) error
	// Summaries resolves owner display data for a set of user ids.
	// Unknown or malformed ids are skipped.
	Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error)
	Ping(ctx context.Context) error
}

// OfficialRepository stores government accounts
type OfficialRepository interface {
	// FindOrCreate returns the official for email, creating it atomically
	FindOrCreate(ctx context.Context, email string) (*models.Official, error)
	ByID(ctx context.Context, id string) (*models.Official, error)
}

// ComplaintRepository stores complaints. List results are newest first.
type ComplaintRepository interface {
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	ByID(ctx context.Context, id string) (*models.Complaint, error)
	// Create assigns ids to the complaint and to its media
	Create(ctx context.Context, c *models.Complaint) error
	// UpdateContent persists owner-editable fields and media, assigning ids
	// to new media. Status and upvotes are left untouched.
	UpdateContent(ctx context.Context, c *models.Complaint) error
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error)
	// ToggleUpvote flips userID's membership in a single atomic update
	ToggleUpvote(ctx context.Context, id, userID string) (*models.Complaint, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.ComplaintStats, error)
}

// CommentRepository stores comments. List results are newest first.
type CommentRepository interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]models.Comment, error)
	ByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
	UpdateText(ctx context.Context, id, text string) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByComplaint(ctx context.Context, complaintID string) (int64, error)
}

// OTPRepository stores hashed one-time codes
type OTPRepository interface {
	Create(ctx context.Context, c *models.OTPChallenge) error
	// Latest returns the most recently created challenge for email
	Latest(ctx context.Context, email string) (*models.OTPChallenge, error)
	// Consume removes the challenge with id. It reports false when the
	// challenge was already consumed, so a code is accepted at most once.
	Consume(ctx context.Context, email, id string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
	// DeleteExpired removes challenges that expired before the cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles every repository a backend provides
type Store struct {
	Users      UserRepository
	Officials  OfficialRepository
	Complaints ComplaintRepository
	Comments   CommentRepository
	OTPs       OTPRepository
}
