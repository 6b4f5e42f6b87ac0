package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/database"
	"github.com/aawaaz/civic-portal/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoStore builds every repository on top of a MongoDB database
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:      &mongoUsers{col: db.Collection(database.CollectionUsers)},
		Officials:  &mongoOfficials{col: db.Collection(database.CollectionOfficials)},
		Complaints: &mongoComplaints{col: db.Collection(database.CollectionComplaints)},
		Comments:   &mongoComments{col: db.Collection(database.CollectionComments)},
		OTPs:       &mongoOTPs{col: db.Collection(database.CollectionOTPs)},
	}
}

func parseOID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// --- documents ---

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  *string            `bson:"password,omitempty"`
	GoogleID  *string            `bson:"googleId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		GoogleID:     d.GoogleID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type officialDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	Department *string            `bson:"department,omitempty"`
	Role       string             `bson:"role"`
}

func (d *officialDoc) model() *models.Official {
	return &models.Official{ID: d.ID.Hex(), Email: d.Email, Department: d.Department, Role: d.Role}
}

type mediaDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	URL          string             `bson:"url"`
	Filename     string             `bson:"filename"`
	Type         string             `bson:"type"`
	ThumbnailURL string             `bson:"thumbnailUrl,omitempty"`
}

type complaintDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Location    string               `bson:"location"`
	ContactInfo string               `bson:"contactInfo,omitempty"`
	Urgency     string               `bson:"urgency"`
	Media       []mediaDoc           `bson:"media"`
	User        primitive.ObjectID   `bson:"user"`
	Upvotes     []primitive.ObjectID `bson:"upvotes"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func toMediaDocs(media []models.Media) []mediaDoc {
	docs := make([]mediaDoc, 0, len(media))
	for i := range media {
		oid, err := primitive.ObjectIDFromHex(media[i].ID)
		if err != nil {
			oid = primitive.NewObjectID()
			media[i].ID = oid.Hex()
		}
		docs = append(docs, mediaDoc{
			ID:           oid,
			URL:          media[i].URL,
			Filename:     media[i].Filename,
			Type:         string(media[i].Type),
			ThumbnailURL: media[i].ThumbnailURL,
		})
	}
	return docs
}

func toComplaintDoc(c *models.Complaint) (*complaintDoc, error) {
	owner, err := parseOID(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("owner id: %w", err)
	}
	upvotes := make([]primitive.ObjectID, 0, len(c.Upvotes))
	for _, u := range c.Upvotes {
		oid, err := parseOID(u)
		if err != nil {
			return nil, fmt.Errorf("upvote id: %w", err)
		}
		upvotes = append(upvotes, oid)
	}
	return &complaintDoc{
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Location:    c.Location,
		ContactInfo: c.ContactInfo,
		Urgency:     string(c.Urgency),
		Media:       toMediaDocs(c.Media),
		User:        owner,
		Upvotes:     upvotes,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func (d *complaintDoc) model() *models.Complaint {
	c := &models.Complaint{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    models.Category(d.Category),
		Location:    d.Location,
		ContactInfo: d.ContactInfo,
		Urgency:     models.Urgency(d.Urgency),
		Status:      models.Status(d.Status),
		Media:       make([]models.Media, 0, len(d.Media)),
		UserID:      d.User.Hex(),
		Upvotes:     make([]string, 0, len(d.Upvotes)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.Urgency == "" {
		c.Urgency = models.UrgencyMedium
	}
	for _, m := range d.Media {
		c.Media = append(c.Media, models.Media{
			ID:           m.ID.Hex(),
			URL:          m.URL,
			Filename:     m.Filename,
			Type:         models.MediaType(m.Type),
			ThumbnailURL: m.ThumbnailURL,
		})
	}
	for _, u := range d.Upvotes {
		c.Upvotes = append(c.Upvotes, u.Hex())
	}
	return c
}

type commentDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	ComplaintID primitive.ObjectID  `bson:"complaintId"`
	Text        string              `bson:"text"`
	Author      string              `bson:"author"`
	UserID      *primitive.ObjectID `bson:"userId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (d *commentDoc) model() *models.Comment {
	c := &models.Comment{
		ID:          d.ID.Hex(),
		ComplaintID: d.ComplaintID.Hex(),
		Text:        d.Text,
		Author:      d.Author,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.UserID != nil {
		c.UserID = d.UserID.Hex()
	}
	return c
}

type otpDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	OTP       string             `bson:"otp"`
	CreatedAt time.Time          `bson:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt"`
}

// --- users ---

type mongoUsers struct{ col *mongo.Collection }

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     strings.ToLower(user.Email),
		Password:  user.PasswordHash,
		GoogleID:  user.GoogleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*user = *doc.model()
	return nil
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (r *mongoUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *mongoUsers) ByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *mongoUsers) LinkGoogle(ctx context.Context, id, googleID string) error {
	oid, err := parseOID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"googleId": googleID, "updatedAt": time.Now().UTC()}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("link google id: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseOID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	out := make(map[string]models.OwnerSummary, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out[doc.ID.Hex()] = models.OwnerSummary{ID: doc.ID.Hex(), Name: doc.Name, Email: doc.Email}
	}
	return out, cur.Err()
}

func (r *mongoUsers) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

// --- officials ---

type mongoOfficials struct{ col *mongo.Collection }

func (r *mongoOfficials) FindOrCreate(ctx context.Context, email string) (*models.Official, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{"email": email, "role": models.DefaultOfficialRole}}

	var doc officialDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// concurrent upsert won the race; the record exists now
		err = r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert official: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoOfficials) ByID(ctx context.Context, id string) (*models.Official, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	var doc officialDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

// --- complaints ---

type mongoComplaints struct{ col *mongo.Collection }

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *mongoComplaints) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	q := bson.M{}
	if filter.UserID != "" {
		oid, err := parseOID(filter.UserID)
		if err != nil {
			return nil, err
		}
		q["user"] = oid
	}

	cur, err := r.col.Find(ctx, q, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find complaints: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Complaint, 0)
	for cur.Next(ctx) {
		var doc complaintDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode complaint: %w", err)
		}
		out = append(out, *doc.model())
	}
	return out, cur.Err()
}

func (r *mongoComplaints) ByID(ctx context.Context, id string) (*models.Complaint, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	var doc complaintDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (r *mongoComplaints) Create(ctx context.Context, c *models.Complaint) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	doc, err := toComplaintDoc(c)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	*c = *doc.model()
	return nil
}

func (r *mongoComplaints) UpdateContent(ctx context.Context, c *models.Complaint) error {
	oid, err := parseOID(c.ID)
	if err != nil {
		return err
	}
	set := bson.M{
		"title":       c.Title,
		"description": c.Description,
		"category":    string(c.Category),
		"location":    c.Location,
		"urgency":     string(c.Urgency),
		"contactInfo": c.ContactInfo,
		"media":       toMediaDocs(c.Media),
		"updatedAt":   time.Now().UTC(),
	}

	var doc complaintDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return notFound(err)
	}
	*c = *doc.model()
	return nil
}

func (r *mongoComplaints) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	var doc complaintDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}}
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

// togglePipeline removes uid from upvotes when present and appends it
// otherwise. Evaluated server-side as one document update.
func togglePipeline(uid primitive.ObjectID) mongo.Pipeline {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$upvotes", bson.A{}}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "upvotes", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{uid, current}}},
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: current},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", uid}}}},
			}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{uid}}}},
		}}}}}}},
	}
}

func (r *mongoComplaints) ToggleUpvote(ctx context.Context, id, userID string) (*models.Complaint, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	uid, err := parseOID(userID)
	if err != nil {
		return nil, err
	}

	var doc complaintDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, togglePipeline(uid), opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (r *mongoComplaints) Delete(ctx context.Context, id string) error {
	oid, err := parseOID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoComplaints) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	stats := &models.ComplaintStats{ByStatus: make(map[models.Status]int64)}

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}
	stats.Total = total

	type bucket struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	group := func(field string) ([]bucket, error) {
		cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$" + field},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
		})
		if err != nil {
			return nil, err
		}
		var out []bucket
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	byStatus, err := group("status")
	if err != nil {
		return nil, fmt.Errorf("group by status: %w", err)
	}
	for _, b := range byStatus {
		stats.ByStatus[models.Status(b.Key)] = b.Count
	}

	byCategory, err := group("category")
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	for _, b := range byCategory {
		stats.ByCategory = append(stats.ByCategory, models.CategoryCount{Category: models.Category(b.Key), Count: b.Count})
	}
	sortCategoryCounts(stats.ByCategory)
	return stats, nil
}

// --- comments ---

type mongoComments struct{ col *mongo.Collection }

func (r *mongoComments) ListByComplaint(ctx context.Context, complaintID string) ([]models.Comment, error) {
	oid, err := parseOID(complaintID)
	if err != nil {
		return nil, err
	}
	cur, err := r.col.Find(ctx, bson.M{"complaintId": oid}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		out = append(out, *doc.model())
	}
	return out, cur.Err()
}

func (r *mongoComments) ByID(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	var doc commentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (r *mongoComments) Create(ctx context.Context, c *models.Comment) error {
	complaintID, err := parseOID(c.ComplaintID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := commentDoc{
		ID:          primitive.NewObjectID(),
		ComplaintID: complaintID,
		Text:        c.Text,
		Author:      c.Author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.UserID != "" {
		uid, err := parseOID(c.UserID)
		if err != nil {
			return err
		}
		doc.UserID = &uid
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	*c = *doc.model()
	return nil
}

func (r *mongoComments) UpdateText(ctx context.Context, id, text string) (*models.Comment, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	var doc commentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"text": text}}, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (r *mongoComments) Delete(ctx context.Context, id string) error {
	oid, err := parseOID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoComments) DeleteByComplaint(ctx context.Context, complaintID string) (int64, error) {
	oid, err := parseOID(complaintID)
	if err != nil {
		return 0, err
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"complaintId": oid})
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return res.DeletedCount, nil
}

// --- otps ---

type mongoOTPs struct{ col *mongo.Collection }

func (r *mongoOTPs) Create(ctx context.Context, c *models.OTPChallenge) error {
	doc := otpDoc{
		ID:        primitive.NewObjectID(),
		Email:     c.Email,
		OTP:       c.CodeHash,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *mongoOTPs) Latest(ctx context.Context, email string) (*models.OTPChallenge, error) {
	var doc otpDoc
	opts := options.FindOne().SetSort(newestFirst)
	if err := r.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return &models.OTPChallenge{
		ID:        doc.ID.Hex(),
		Email:     doc.Email,
		CodeHash:  doc.OTP,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

func (r *mongoOTPs) Consume(ctx context.Context, email, id string) (bool, error) {
	oid, err := parseOID(id)
	if err != nil {
		return false, err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "email": email})
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *mongoOTPs) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

func (r *mongoOTPs) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	return res.DeletedCount, nil
}
