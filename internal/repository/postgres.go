package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresStore builds every repository on top of a pgx pool.
// Schema lives in internal/database/migrations.
func NewPostgresStore(db *pgxpool.Pool) *Store {
	return &Store{
		Users:      &pgUsers{db: db},
		Officials:  &pgOfficials{db: db},
		Complaints: &pgComplaints{db: db},
		Comments:   &pgComments{db: db},
		OTPs:       &pgOTPs{db: db},
	}
}

func parseUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func pgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// --- users ---

type pgUsers struct{ db *pgxpool.Pool }

const userColumns = `id::text, name, email, password, google_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (r *pgUsers) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password, google_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		user.Name, strings.ToLower(user.Email), user.PasswordHash, user.GoogleID))
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*user = *created
	return nil
}

func (r *pgUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
}

func (r *pgUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

func (r *pgUsers) ByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

func (r *pgUsers) LinkGoogle(ctx context.Context, id, googleID string) error {
	if err := parseUUID(id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE users SET google_id = $2, updated_at = NOW() WHERE id = $1::uuid`, id, googleID)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgUsers) Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if parseUUID(id) == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]models.OwnerSummary, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id::text, name, email FROM users WHERE id = ANY($1::uuid[])`, valid)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.OwnerSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (r *pgUsers) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// --- officials ---

type pgOfficials struct{ db *pgxpool.Pool }

func scanOfficial(row pgx.Row) (*models.Official, error) {
	var o models.Official
	if err := row.Scan(&o.ID, &o.Email, &o.Department, &o.Role); err != nil {
		return nil, pgErr(err)
	}
	return &o, nil
}

func (r *pgOfficials) FindOrCreate(ctx context.Context, email string) (*models.Official, error) {
	query := `
		INSERT INTO governments (email, role) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id::text, email, department, role
	`
	o, err := scanOfficial(r.db.QueryRow(ctx, query, email, models.DefaultOfficialRole))
	if err != nil {
		return nil, fmt.Errorf("upsert official: %w", err)
	}
	return o, nil
}

func (r *pgOfficials) ByID(ctx context.Context, id string) (*models.Official, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	return scanOfficial(r.db.QueryRow(ctx, `SELECT id::text, email, department, role FROM governments WHERE id = $1::uuid`, id))
}

// --- complaints ---

type pgComplaints struct{ db *pgxpool.Pool }

const complaintColumns = `id::text, title, description, category, location, contact_info, urgency, status, media,
	user_id::text, upvotes::text[], created_at, updated_at`

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var (
		c                         models.Complaint
		category, urgency, status string
		media                     []byte
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &category, &c.Location, &c.ContactInfo, &urgency, &status, &media,
		&c.UserID, &c.Upvotes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	c.Category = models.Category(category)
	c.Urgency = models.Urgency(urgency)
	c.Status = models.Status(status)
	c.Media = []models.Media{}
	if len(media) > 0 {
		if err := json.Unmarshal(media, &c.Media); err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
	}
	if c.Upvotes == nil {
		c.Upvotes = []string{}
	}
	return &c, nil
}

func encodeMedia(media []models.Media) (string, error) {
	for i := range media {
		if media[i].ID == "" {
			media[i].ID = uuid.NewString()
		}
	}
	if media == nil {
		media = []models.Media{}
	}
	b, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("encode media: %w", err)
	}
	return string(b), nil
}

func (r *pgComplaints) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	var args []any
	if filter.UserID != "" {
		if err := parseUUID(filter.UserID); err != nil {
			return nil, err
		}
		query += ` WHERE user_id = $1::uuid`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	out := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *pgComplaints) ByID(ctx context.Context, id string) (*models.Complaint, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	return scanComplaint(r.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1::uuid`, id))
}

func (r *pgComplaints) Create(ctx context.Context, c *models.Complaint) error {
	if err := parseUUID(c.UserID); err != nil {
		return fmt.Errorf("owner id: %w", err)
	}
	media, err := encodeMedia(c.Media)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO complaints (title, description, category, location, contact_info, urgency, status, media, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::uuid)
		RETURNING ` + complaintColumns

	created, err := scanComplaint(r.db.QueryRow(ctx, query,
		c.Title, c.Description, string(c.Category), c.Location, c.ContactInfo,
		string(c.Urgency), string(c.Status), media, c.UserID))
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	*c = *created
	return nil
}

func (r *pgComplaints) UpdateContent(ctx context.Context, c *models.Complaint) error {
	if err := parseUUID(c.ID); err != nil {
		return err
	}
	media, err := encodeMedia(c.Media)
	if err != nil {
		return err
	}
	query := `
		UPDATE complaints
		SET title = $2, description = $3, category = $4, location = $5, urgency = $6,
			contact_info = $7, media = $8::jsonb, updated_at = NOW()
		WHERE id = $1::uuid
		RETURNING ` + complaintColumns

	updated, err := scanComplaint(r.db.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, string(c.Category), c.Location, string(c.Urgency), c.ContactInfo, media))
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

func (r *pgComplaints) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	query := `UPDATE complaints SET status = $2, updated_at = NOW() WHERE id = $1::uuid RETURNING ` + complaintColumns
	return scanComplaint(r.db.QueryRow(ctx, query, id, string(status)))
}

// The CASE is evaluated against the locked row version, so concurrent
// toggles serialise on the row instead of losing an update.
const toggleUpvoteSQL = `
	UPDATE complaints
	SET upvotes = CASE
		WHEN $2::uuid = ANY(upvotes) THEN array_remove(upvotes, $2::uuid)
		ELSE array_append(upvotes, $2::uuid)
	END
	WHERE id = $1::uuid
	RETURNING ` + complaintColumns

func (r *pgComplaints) ToggleUpvote(ctx context.Context, id, userID string) (*models.Complaint, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	if err := parseUUID(userID); err != nil {
		return nil, err
	}
	return scanComplaint(r.db.QueryRow(ctx, toggleUpvoteSQL, id, userID))
}

func (r *pgComplaints) Delete(ctx context.Context, id string) error {
	if err := parseUUID(id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgComplaints) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	stats := &models.ComplaintStats{ByStatus: make(map[models.Status]int64)}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("group by status: %w", err)
	}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[models.Status(status)] = count
		stats.Total += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc models.CategoryCount
		var category string
		if err := rows.Scan(&category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		cc.Category = models.Category(category)
		stats.ByCategory = append(stats.ByCategory, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortCategoryCounts(stats.ByCategory)
	return stats, nil
}

// --- comments ---

type pgComments struct{ db *pgxpool.Pool }

const commentColumns = `id::text, complaint_id::text, text, author, user_id::text, created_at, updated_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var (
		c      models.Comment
		userID *string
	)
	if err := row.Scan(&c.ID, &c.ComplaintID, &c.Text, &c.Author, &userID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, pgErr(err)
	}
	if userID != nil {
		c.UserID = *userID
	}
	return &c, nil
}

func (r *pgComments) ListByComplaint(ctx context.Context, complaintID string) ([]models.Comment, error) {
	if err := parseUUID(complaintID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+commentColumns+` FROM comments
		WHERE complaint_id = $1::uuid ORDER BY created_at DESC, id DESC`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *pgComments) ByID(ctx context.Context, id string) (*models.Comment, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	return scanComment(r.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1::uuid`, id))
}

func (r *pgComments) Create(ctx context.Context, c *models.Comment) error {
	if err := parseUUID(c.ComplaintID); err != nil {
		return err
	}
	var userID *string
	if c.UserID != "" {
		if err := parseUUID(c.UserID); err != nil {
			return err
		}
		userID = &c.UserID
	}
	query := `
		INSERT INTO comments (complaint_id, text, author, user_id)
		VALUES ($1::uuid, $2, $3, $4::uuid)
		RETURNING ` + commentColumns

	created, err := scanComment(r.db.QueryRow(ctx, query, c.ComplaintID, c.Text, c.Author, userID))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	*c = *created
	return nil
}

func (r *pgComments) UpdateText(ctx context.Context, id, text string) (*models.Comment, error) {
	if err := parseUUID(id); err != nil {
		return nil, err
	}
	return scanComment(r.db.QueryRow(ctx, `UPDATE comments SET text = $2 WHERE id = $1::uuid RETURNING `+commentColumns, id, text))
}

func (r *pgComments) Delete(ctx context.Context, id string) error {
	if err := parseUUID(id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByComplaint is usually a no-op here: the foreign key cascades when
// the complaint row goes away.
func (r *pgComments) DeleteByComplaint(ctx context.Context, complaintID string) (int64, error) {
	if err := parseUUID(complaintID); err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE complaint_id = $1::uuid`, complaintID)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- otps ---

type pgOTPs struct{ db *pgxpool.Pool }

func (r *pgOTPs) Create(ctx context.Context, c *models.OTPChallenge) error {
	query := `INSERT INTO otps (email, otp, created_at, expires_at) VALUES ($1, $2, $3, $4) RETURNING id::text`
	if err := r.db.QueryRow(ctx, query, c.Email, c.CodeHash, c.CreatedAt, c.ExpiresAt).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (r *pgOTPs) Latest(ctx context.Context, email string) (*models.OTPChallenge, error) {
	query := `SELECT id::text, email, otp, created_at, expires_at FROM otps
		WHERE email = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var c models.OTPChallenge
	if err := r.db.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt); err != nil {
		return nil, pgErr(err)
	}
	return &c, nil
}

func (r *pgOTPs) Consume(ctx context.Context, email, id string) (bool, error) {
	if err := parseUUID(id); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM otps WHERE id = $1::uuid AND email = $2`, id, email)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgOTPs) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

func (r *pgOTPs) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM otps WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	return tag.RowsAffected(), nil
}
