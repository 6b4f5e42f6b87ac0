package handlers

import (
	"net/http"
	"time"

	"github.com/aawaaz/civic-portal/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig wires handlers into the HTTP surface
type RouterConfig struct {
	Complaints     *ComplaintHandler
	Comments       *CommentHandler
	Government     *GovernmentHandler
	Users          *UserHandler
	Health         *HealthHandler
	Tokens         middleware.TokenVerifier
	Logger         *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
	// UploadDir is served at /uploads when media is stored on local disk
	UploadDir string
}

// NewRouter builds the chi router for the API
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	optional := middleware.OptionalCitizen(cfg.Tokens)
	citizen := middleware.RequireCitizen(cfg.Tokens)
	government := middleware.RequireGovernment(cfg.Tokens)

	r.Get("/health", cfg.Health.Check)
	r.Get("/health/ready", cfg.Health.Ready)

	r.Route("/complaints", func(r chi.Router) {
		r.With(optional).Get("/", cfg.Complaints.List)
		r.With(citizen).Get("/my", cfg.Complaints.Mine)
		r.With(optional).Get("/{id}", cfg.Complaints.Get)
		r.With(citizen).Post("/", cfg.Complaints.Create)
		r.With(citizen).Put("/{id}", cfg.Complaints.Update)
		r.With(citizen).Delete("/{id}", cfg.Complaints.Delete)
		r.With(citizen).Post("/{id}/upvote", cfg.Complaints.Upvote)
	})

	// {id} is the complaint for GET/POST and the comment for PUT/DELETE
	r.Route("/comments", func(r chi.Router) {
		r.Get("/{id}", cfg.Comments.List)
		r.With(optional).Post("/{id}", cfg.Comments.Add)
		r.With(citizen).Put("/{id}", cfg.Comments.Update)
		r.With(citizen).Delete("/{id}", cfg.Comments.Delete)
	})

	r.Route("/api/government", func(r chi.Router) {
		r.Post("/request-otp", cfg.Government.RequestOTP)
		r.Post("/verify-otp", cfg.Government.VerifyOTP)

		r.Group(func(r chi.Router) {
			r.Use(government)
			r.Get("/complaints", cfg.Government.ListComplaints)
			r.Get("/complaints/stats", cfg.Government.Stats)
			r.Put("/complaints/{id}/status", cfg.Government.UpdateStatus)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Post("/signup", cfg.Users.Signup)
		r.Post("/login", cfg.Users.Login)
		r.Post("/google-login", cfg.Users.GoogleLogin)
		r.With(citizen).Get("/profile", cfg.Users.Profile)
	})

	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	return r
}
