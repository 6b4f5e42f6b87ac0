package main

import (
	"context"
	"fmt"

	"github.com/aawaaz/civic-portal/internal/config"
	"github.com/aawaaz/civic-portal/internal/database"
	"github.com/aawaaz/civic-portal/internal/logger"
)

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, flush, err := logger.New(cfg.IsProduction(), cfg.SentryDSN, cfg.Environment)
	if err != nil {
		return err
	}
	defer flush()
	sugar := log.Sugar()

	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		sugar.Infow("Migrations applied", "url", database.RedactURI(cfg.DatabaseURL))
	case config.DriverMongo:
		client, _, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB, sugar)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		sugar.Infow("MongoDB indexes ensured", "db", cfg.MongoDB)
	default:
		sugar.Infow("Nothing to migrate", "db_driver", cfg.DBDriver)
	}
	return nil
}
