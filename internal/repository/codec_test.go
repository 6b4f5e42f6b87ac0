package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestParseOID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := parseOID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseOID("not-hex")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMongoNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments), ErrNotFound)
	other := errors.New("socket closed")
	assert.Equal(t, other, notFound(other))
}

func TestComplaintDocRoundTrip(t *testing.T) {
	owner := primitive.NewObjectID().Hex()
	voter := primitive.NewObjectID().Hex()
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	in := &models.Complaint{
		Title:       "Pothole on Main Road",
		Description: "Deep",
		Category:    models.CategoryRoads,
		Location:    "MG Road",
		ContactInfo: "555-0100",
		Urgency:     models.UrgencyHigh,
		Status:      models.StatusWorkInProgress,
		Media: []models.Media{
			{URL: "https://cdn/x.mp4", Filename: "complaints_media/x.mp4", Type: models.MediaVideo, ThumbnailURL: "https://cdn/t.jpg"},
		},
		UserID:    owner,
		Upvotes:   []string{voter},
		CreatedAt: created,
		UpdatedAt: created,
	}
	doc, err := toComplaintDoc(in)
	require.NoError(t, err)
	require.NotEmpty(t, in.Media[0].ID, "media ids are assigned while encoding")

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded complaintDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	out := decoded.model()
	if diff := cmp.Diff(in, out, cmpopts.IgnoreFields(models.Complaint{}, "ID")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestComplaintDoc_InvalidOwner(t *testing.T) {
	_, err := toComplaintDoc(&models.Complaint{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestComplaintDoc_LegacyDefaults(t *testing.T) {
	doc := &complaintDoc{ID: primitive.NewObjectID(), User: primitive.NewObjectID()}
	c := doc.model()
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Equal(t, models.UrgencyMedium, c.Urgency)
	assert.NotNil(t, c.Media)
	assert.NotNil(t, c.Upvotes)
}

func TestTogglePipeline(t *testing.T) {
	uid := primitive.NewObjectID()
	pipeline := togglePipeline(uid)
	require.Len(t, pipeline, 1)

	raw, err := bson.MarshalExtJSON(pipeline[0], false, false)
	require.NoError(t, err)
	js := string(raw)
	assert.Contains(t, js, `"$set"`)
	assert.Contains(t, js, `"$cond"`)
	assert.Contains(t, js, `"$filter"`)
	assert.Contains(t, js, `"$concatArrays"`)
	assert.Contains(t, js, uid.Hex())
}

func TestPgErr(t *testing.T) {
	assert.ErrorIs(t, pgErr(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, pgErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})), ErrDuplicate)

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), pgErr(fk))
}

func TestParseUUID(t *testing.T) {
	assert.NoError(t, parseUUID("6f1c1f8e-7a4e-4b8e-9a59-2f0a3c6f1d22"))
	assert.ErrorIs(t, parseUUID("65f1c0ffee0000000000beef"), ErrInvalidID)
}

func TestEncodeMedia(t *testing.T) {
	empty, err := encodeMedia(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	items := []models.Media{{URL: "u", Filename: "f", Type: models.MediaImage}}
	js, err := encodeMedia(items)
	require.NoError(t, err)
	require.NotEmpty(t, items[0].ID)
	assert.JSONEq(t, `[{"_id":"`+items[0].ID+`","url":"u","filename":"f","type":"image"}]`, js)
}
