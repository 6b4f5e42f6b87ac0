package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aawaaz/civic-portal/internal/config"
	"github.com/aawaaz/civic-portal/internal/database"
	"github.com/aawaaz/civic-portal/internal/media"
	"github.com/aawaaz/civic-portal/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// otpKeyGrace keeps Redis OTP keys around after expiry so late
// verifications report an expired code rather than a missing one
const otpKeyGrace = 10 * time.Minute

// openStore connects the configured persistence backend. The returned
// function releases every connection it opened.
func openStore(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*repository.Store, func(), error) {
	var (
		store   *repository.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB, sugar)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})
		store = repository.NewMongoStore(db)

	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions())
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		store = repository.NewPostgresStore(pool)
		sugar.Infow("PostgreSQL connected", "url", database.RedactURI(cfg.DatabaseURL))

	case config.DriverMemory:
		sugar.Warn("Using in-memory store: data is lost on restart")
		store = repository.NewMemoryStore().Store()

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			closeAll()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		store.OTPs = repository.NewRedisOTPs(client, otpKeyGrace)
		sugar.Infow("OTP challenges stored in Redis", "addr", opts.Addr)
	}

	return store, closeAll, nil
}

// openMedia builds the configured attachment store
func openMedia(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (media.Store, error) {
	switch cfg.MediaDriver {
	case config.MediaS3:
		return media.NewS3Store(ctx, media.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			ThumbBase: cfg.ThumbnailBaseURL,
		}, sugar)
	case config.MediaLocal:
		sugar.Infow("Storing media on local disk", "dir", cfg.UploadDir)
		return media.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads", cfg.ThumbnailBaseURL, sugar)
	default:
		return nil, fmt.Errorf("unknown MEDIA_DRIVER %q", cfg.MediaDriver)
	}
}
