// Package models defines the data structures used across the application.
// Persisted field names mirror the document schema used by existing data.
package models

import (
	"time"
)

// Category is the civic department a complaint is filed under
type Category string

const (
	CategoryRoads           Category = "Roads"
	CategoryElectricity     Category = "Electricity"
	CategoryWaterSupply     Category = "Water Supply"
	CategorySanitation      Category = "Sanitation"
	CategoryPublicTransport Category = "Public Transport"
	CategorySafety          Category = "Safety"
	CategoryOther           Category = "Other"
)

// Categories lists every accepted category in display order
var Categories = []Category{
	CategoryRoads,
	CategoryElectricity,
	CategoryWaterSupply,
	CategorySanitation,
	CategoryPublicTransport,
	CategorySafety,
	CategoryOther,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Urgency is the citizen-declared priority of a complaint
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
	UrgencyNormal   Urgency = "Normal"
)

// Valid reports whether u is a known urgency
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical, UrgencyNormal:
		return true
	}
	return false
}

// Status is the triage state of a complaint. Only officials change it.
type Status string

const (
	StatusPending        Status = "Pending"
	StatusWorkInProgress Status = "Work in Progress"
	StatusResolved       Status = "Resolved"
)

// Statuses lists every accepted status in lifecycle order
var Statuses = []Status{StatusPending, StatusWorkInProgress, StatusResolved}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// MediaType classifies an attachment
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is an attachment stored in the media store.
// Filename is the storage identifier needed to delete the object later.
type Media struct {
	ID           string    `json:"_id"`
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	Type         MediaType `json:"type"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// Complaint is a citizen-submitted civic issue report
type Complaint struct {
	ID          string
	Title       string
	Description string
	Category    Category
	Location    string
	ContactInfo string
	Urgency     Urgency
	Status      Status
	Media       []Media
	UserID      string
	Upvotes     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Votes is the size of the upvote set
func (c *Complaint) Votes() int {
	return len(c.Upvotes)
}

// HasUpvoted reports whether userID is in the upvote set
func (c *Complaint) HasUpvoted(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range c.Upvotes {
		if u == userID {
			return true
		}
	}
	return false
}

// ComplaintFilter narrows a complaint listing. Zero value lists everything.
type ComplaintFilter struct {
	UserID string
}

// OwnerSummary is the owner shown alongside a complaint
type OwnerSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ComplaintView is a complaint annotated for a particular viewer
type ComplaintView struct {
	ID             string        `json:"_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Category       Category      `json:"category"`
	Location       string        `json:"location"`
	ContactInfo    string        `json:"contactInfo,omitempty"`
	Status         Status        `json:"status"`
	Urgency        Urgency       `json:"urgency"`
	User           *OwnerSummary `json:"user"`
	Media          []Media       `json:"media"`
	Votes          int           `json:"votes"`
	UserHasUpvoted bool          `json:"userHasUpvoted"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// UpvoteResult is returned by the upvote toggle
type UpvoteResult struct {
	ID             string `json:"_id"`
	Votes          int    `json:"votes"`
	UserHasUpvoted bool   `json:"userHasUpvoted"`
}

// CreateComplaintRequest is the citizen submission payload
type CreateComplaintRequest struct {
	Title       string
	Description string
	Category    string
	Location    string
	Urgency     string
	Contact     string
}

// OwnerEditRequest is the owner-facing edit payload. A nil field keeps the
// stored value. It deliberately has no status field.
type OwnerEditRequest struct {
	Title           *string
	Description     *string
	Category        *string
	Location        *string
	Urgency         *string
	ContactInfo     *string
	RemovedMediaIDs []string
}

// StatusUpdateRequest is the government-facing status payload
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ComplaintStats aggregates complaint counts for the government dashboard
type ComplaintStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[Status]int64 `json:"byStatus"`
	ByCategory []CategoryCount  `json:"byCategory"`
}

// CategoryCount for bar charts
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int64    `json:"count"`
}

// Comment is free-text feedback attached to a complaint.
// UserID is empty for anonymous comments.
type Comment struct {
	ID          string    `json:"_id"`
	ComplaintID string    `json:"complaintId"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	UserID      string    `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is a citizen account
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash *string
	GoogleID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserView is the public shape of a user
type UserView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// View strips credentials from the user
func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Official is a government account, created on first OTP verification
type Official struct {
	ID         string  `json:"_id"`
	Email      string  `json:"email"`
	Department *string `json:"department,omitempty"`
	Role       string  `json:"role"`
}

// DefaultOfficialRole is assigned to lazily created officials
const DefaultOfficialRole = "official"

// OTPChallenge is a hashed one-time code bound to an email
type OTPChallenge struct {
	ID        string
	Email     string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge window has passed at now
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CitizenIdentity is the verified content of a citizen bearer token
type CitizenIdentity struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// OfficialIdentity is the verified content of a government bearer token
type OfficialIdentity struct {
	ID    string
	Email string
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime,omitempty"`
	Database string            `json:"database,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}
