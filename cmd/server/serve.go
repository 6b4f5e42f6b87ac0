package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aawaaz/civic-portal/internal/config"
	"github.com/aawaaz/civic-portal/internal/handlers"
	"github.com/aawaaz/civic-portal/internal/logger"
	"github.com/aawaaz/civic-portal/internal/repository"
	"github.com/aawaaz/civic-portal/internal/services"
)

func runServe(ctx context.Context) error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logger
	log, flush, err := logger.New(cfg.IsProduction(), cfg.SentryDSN, cfg.Environment)
	if err != nil {
		return err
	}
	defer flush()
	sugar := log.Sugar()

	sugar.Infow("Starting civic portal server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"db_driver", cfg.DBDriver,
		"media_driver", cfg.MediaDriver,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to connect to database", "error", err)
		return err
	}
	defer closeStore()

	mediaStore, err := openMedia(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to initialize media store", "error", err)
		return err
	}

	// Initialize services
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.CitizenTokenTTL, cfg.GovernmentTokenTTL)
	mailer := services.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, !cfg.IsProduction(), sugar)
	var google services.GoogleProvider
	if cfg.GoogleEnabled() {
		google = services.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	complaintSvc := services.NewComplaintService(store, mediaStore, sugar)
	commentSvc := services.NewCommentService(store, sugar)
	govSvc := services.NewGovernmentService(store, tokens, mailer, services.OTPConfig{
		Domain: cfg.GovEmailDomain,
		TTL:    cfg.OTPTTL,
	}, sugar)
	authSvc := services.NewAuthService(store, tokens, google, sugar)

	// Start background OTP sweeper
	sweeper := services.NewOTPSweeper(store.OTPs, sugar)
	go sweeper.Start(ctx, cfg.OTPSweepInterval)

	health := handlers.NewHealthHandler(store.Users, cfg.DBDriver, sugar)
	if redisOTPs, ok := store.OTPs.(*repository.RedisOTPs); ok {
		health.WithCheck("redis", redisOTPs)
	}

	routerCfg := handlers.RouterConfig{
		Complaints:     handlers.NewComplaintHandler(complaintSvc, cfg.MaxUploadBytes(), sugar),
		Comments:       handlers.NewCommentHandler(commentSvc, sugar),
		Government:     handlers.NewGovernmentHandler(govSvc, complaintSvc, sugar),
		Users:          handlers.NewUserHandler(authSvc, sugar),
		Health:         health,
		Tokens:         tokens,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.MediaDriver == config.MediaLocal {
		routerCfg.UploadDir = cfg.UploadDir
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handlers.NewRouter(routerCfg),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	serveErr := make(chan error, 1)
	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-done:
	case err := <-serveErr:
		if err != nil {
			sugar.Errorw("Server error", "error", err)
			return err
		}
	}
	sugar.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
		return err
	}

	sugar.Info("Server stopped")
	return nil
}
