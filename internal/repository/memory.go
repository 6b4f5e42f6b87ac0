package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local backend used for development and tests.
// A single mutex serialises every operation, which gives the same per-record
// atomicity the database backends provide.
type MemoryStore struct {
	mu         sync.Mutex
	seq        int64
	users      map[string]*models.User
	officials  map[string]*models.Official
	complaints map[string]*memComplaint
	comments   map[string]*memComment
	otps       []memOTP
	now        func() time.Time
}

type memComplaint struct {
	seq int64
	c   models.Complaint
}

type memComment struct {
	seq int64
	c   models.Comment
}

type memOTP struct {
	seq int64
	c   models.OTPChallenge
}

// NewMemoryStore returns an empty in-memory backend
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*models.User),
		officials:  make(map[string]*models.Official),
		complaints: make(map[string]*memComplaint),
		comments:   make(map[string]*memComment),
		now:        time.Now,
	}
}

// Store exposes the backend through the repository interfaces
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:      memUsers{m},
		Officials:  memOfficials{m},
		Complaints: memComplaints{m},
		Comments:   memComments{m},
		OTPs:       memOTPs{m},
	}
}

func (m *MemoryStore) nextSeq() int64 {
	m.seq++
	return m.seq
}

func parseMemID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func copyComplaint(c models.Complaint) models.Complaint {
	c.Media = append([]models.Media(nil), c.Media...)
	c.Upvotes = append([]string(nil), c.Upvotes...)
	return c
}

func assignMediaIDs(media []models.Media) {
	for i := range media {
		if media[i].ID == "" {
			media[i].ID = uuid.NewString()
		}
	}
}

// --- users ---

type memUsers struct{ m *MemoryStore }

func (r memUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range r.m.users {
		if u.Email == email {
			return ErrDuplicate
		}
		if user.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return ErrDuplicate
		}
	}

	now := r.m.now()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.m.users[user.ID] = &cp
	return nil
}

func (r memUsers) ByID(_ context.Context, id string) (*models.User, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) ByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) ByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) LinkGoogle(_ context.Context, id, googleID string) error {
	if err := parseMemID(id); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	g := googleID
	u.GoogleID = &g
	u.UpdatedAt = r.m.now()
	return nil
}

func (r memUsers) Summaries(_ context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make(map[string]models.OwnerSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out[id] = models.OwnerSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return out, nil
}

func (r memUsers) Ping(context.Context) error { return nil }

// --- officials ---

type memOfficials struct{ m *MemoryStore }

func (r memOfficials) FindOrCreate(_ context.Context, email string) (*models.Official, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, o := range r.m.officials {
		if o.Email == email {
			cp := *o
			return &cp, nil
		}
	}
	o := &models.Official{ID: uuid.NewString(), Email: email, Role: models.DefaultOfficialRole}
	r.m.officials[o.ID] = o
	cp := *o
	return &cp, nil
}

func (r memOfficials) ByID(_ context.Context, id string) (*models.Official, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	o, ok := r.m.officials[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// --- complaints ---

type memComplaints struct{ m *MemoryStore }

func (r memComplaints) List(_ context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rows := make([]*memComplaint, 0, len(r.m.complaints))
	for _, mc := range r.m.complaints {
		if filter.UserID != "" && mc.c.UserID != filter.UserID {
			continue
		}
		rows = append(rows, mc)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]models.Complaint, 0, len(rows))
	for _, mc := range rows {
		out = append(out, copyComplaint(mc.c))
	}
	return out, nil
}

func (r memComplaints) ByID(_ context.Context, id string) (*models.Complaint, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyComplaint(mc.c)
	return &c, nil
}

func (r memComplaints) Create(_ context.Context, c *models.Complaint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := r.m.now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Upvotes == nil {
		c.Upvotes = []string{}
	}
	assignMediaIDs(c.Media)
	r.m.complaints[c.ID] = &memComplaint{seq: r.m.nextSeq(), c: copyComplaint(*c)}
	return nil
}

func (r memComplaints) UpdateContent(_ context.Context, c *models.Complaint) error {
	if err := parseMemID(c.ID); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.complaints[c.ID]
	if !ok {
		return ErrNotFound
	}
	assignMediaIDs(c.Media)
	c.UpdatedAt = r.m.now()

	stored := &mc.c
	stored.Title = c.Title
	stored.Description = c.Description
	stored.Category = c.Category
	stored.Location = c.Location
	stored.Urgency = c.Urgency
	stored.ContactInfo = c.ContactInfo
	stored.Media = append([]models.Media(nil), c.Media...)
	stored.UpdatedAt = c.UpdatedAt

	c.Status = stored.Status
	c.Upvotes = append([]string(nil), stored.Upvotes...)
	return nil
}

func (r memComplaints) UpdateStatus(_ context.Context, id string, status models.Status) (*models.Complaint, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	mc.c.Status = status
	mc.c.UpdatedAt = r.m.now()
	c := copyComplaint(mc.c)
	return &c, nil
}

func (r memComplaints) ToggleUpvote(_ context.Context, id, userID string) (*models.Complaint, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}

	kept := mc.c.Upvotes[:0:0]
	found := false
	for _, u := range mc.c.Upvotes {
		if u == userID {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		kept = append(kept, userID)
	}
	mc.c.Upvotes = kept

	c := copyComplaint(mc.c)
	return &c, nil
}

func (r memComplaints) Delete(_ context.Context, id string) error {
	if err := parseMemID(id); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.complaints[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.complaints, id)
	return nil
}

func (r memComplaints) Stats(_ context.Context) (*models.ComplaintStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stats := &models.ComplaintStats{ByStatus: make(map[models.Status]int64)}
	byCat := make(map[models.Category]int64)
	for _, mc := range r.m.complaints {
		stats.Total++
		stats.ByStatus[mc.c.Status]++
		byCat[mc.c.Category]++
	}
	for cat, n := range byCat {
		stats.ByCategory = append(stats.ByCategory, models.CategoryCount{Category: cat, Count: n})
	}
	sortCategoryCounts(stats.ByCategory)
	return stats, nil
}

func sortCategoryCounts(counts []models.CategoryCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})
}

// --- comments ---

type memComments struct{ m *MemoryStore }

func (r memComments) ListByComplaint(_ context.Context, complaintID string) ([]models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rows := make([]*memComment, 0)
	for _, mc := range r.m.comments {
		if mc.c.ComplaintID == complaintID {
			rows = append(rows, mc)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]models.Comment, 0, len(rows))
	for _, mc := range rows {
		out = append(out, mc.c)
	}
	return out, nil
}

func (r memComments) ByID(_ context.Context, id string) (*models.Comment, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := mc.c
	return &c, nil
}

func (r memComments) Create(_ context.Context, c *models.Comment) error {
	if err := parseMemID(c.ComplaintID); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := r.m.now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	r.m.comments[c.ID] = &memComment{seq: r.m.nextSeq(), c: *c}
	return nil
}

func (r memComments) UpdateText(_ context.Context, id, text string) (*models.Comment, error) {
	if err := parseMemID(id); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	mc, ok := r.m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	mc.c.Text = text
	c := mc.c
	return &c, nil
}

func (r memComments) Delete(_ context.Context, id string) error {
	if err := parseMemID(id); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.comments, id)
	return nil
}

func (r memComments) DeleteByComplaint(_ context.Context, complaintID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for id, mc := range r.m.comments {
		if mc.c.ComplaintID == complaintID {
			delete(r.m.comments, id)
			n++
		}
	}
	return n, nil
}

// --- otps ---

type memOTPs struct{ m *MemoryStore }

func (r memOTPs) Create(_ context.Context, c *models.OTPChallenge) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c.ID = uuid.NewString()
	r.m.otps = append(r.m.otps, memOTP{seq: r.m.nextSeq(), c: *c})
	return nil
}

func (r memOTPs) Latest(_ context.Context, email string) (*models.OTPChallenge, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var latest *memOTP
	for i := range r.m.otps {
		o := &r.m.otps[i]
		if o.c.Email != email {
			continue
		}
		if latest == nil || o.seq > latest.seq {
			latest = o
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	c := latest.c
	return &c, nil
}

func (r memOTPs) Consume(_ context.Context, email, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for i, o := range r.m.otps {
		if o.c.ID == id && o.c.Email == email {
			r.m.otps = append(r.m.otps[:i], r.m.otps[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memOTPs) DeleteByEmail(_ context.Context, email string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	kept := r.m.otps[:0]
	for _, o := range r.m.otps {
		if o.c.Email != email {
			kept = append(kept, o)
		}
	}
	r.m.otps = kept
	return nil
}

func (r memOTPs) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	kept := r.m.otps[:0]
	for _, o := range r.m.otps {
		if o.c.ExpiresAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	r.m.otps = kept
	return n, nil
}
