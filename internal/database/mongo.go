package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names shared with existing stored data
const (
	CollectionUsers      = "users"
	CollectionOfficials  = "governments"
	CollectionComplaints = "complaints"
	CollectionComments   = "comments"
	CollectionOTPs       = "otps"
)

// NewMongo connects to MongoDB, verifies connectivity and ensures indexes
func NewMongo(ctx context.Context, uri, dbName string, logger *zap.SugaredLogger) (*mongo.Client, *mongo.Database, error) {
	if uri == "" {
		return nil, nil, fmt.Errorf("mongo URI is empty")
	}

	start := time.Now()
	logger.Infow("Connecting to MongoDB", "uri", RedactURI(uri), "db", dbName)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5*time.Minute))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		logger.Warnw("MongoDB index creation warnings", "error", err)
	}

	logger.Infow("MongoDB connected", "elapsed", time.Since(start).Round(time.Millisecond))
	return client, db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		CollectionComplaints: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionComments: {
			{Keys: bson.D{{Key: "complaintId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		CollectionOfficials: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionOTPs: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		},
	}

	var errs []string
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ictx, models); err != nil {
			errs = append(errs, coll+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// RedactURI masks the password embedded in a connection string
func RedactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
