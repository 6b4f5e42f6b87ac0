// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/database"
	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Persistence drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Media drivers
const (
	MediaLocal = "local"
	MediaS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Persistence
	DBDriver      string
	MongoURI      string
	MongoDB       string
	DatabaseURL   string
	DBAutoMigrate bool
	DBMaxConns    int
	DBMinConns    int

	// Redis holds OTP challenges when set
	RedisURL string

	// Security
	JWTSecret          string
	CitizenTokenTTL    time.Duration
	GovernmentTokenTTL time.Duration
	AllowedOrigins     []string

	// Government OTP login
	GovEmailDomain   string
	OTPTTL           time.Duration
	OTPSweepInterval time.Duration

	// Media
	MediaDriver      string
	UploadDir        string
	PublicBaseURL    string
	ThumbnailBaseURL string
	MaxUploadMB      int
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string
	S3PublicURL      string

	// Email
	ResendAPIKey string
	EmailFrom    string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Error reporting
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	port := getEnvInt("PORT", 5000)
	cfg := &Config{
		Port:        port,
		Environment: getEnv("ENVIRONMENT", "development"),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "civic_portal"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 25),
		DBMinConns:    getEnvInt("DB_MIN_CONNS", 5),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:          getEnv("JWT_SECRET", devJWTSecret),
		CitizenTokenTTL:    getEnvDuration("CITIZEN_TOKEN_TTL", 7*24*time.Hour),
		GovernmentTokenTTL: getEnvDuration("GOVERNMENT_TOKEN_TTL", 2*time.Hour),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		GovEmailDomain:   getEnv("GOV_EMAIL_DOMAIN", "@gov.in"),
		OTPTTL:           getEnvDuration("OTP_TTL", 5*time.Minute),
		OTPSweepInterval: getEnvDuration("OTP_SWEEP_INTERVAL", 10*time.Minute),

		MediaDriver:      strings.ToLower(getEnv("MEDIA_DRIVER", MediaLocal)),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:    strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		ThumbnailBaseURL: getEnv("THUMBNAIL_BASE_URL", ""),
		MaxUploadMB:      getEnvInt("MAX_UPLOAD_MB", 50),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Bucket:         getEnv("S3_BUCKET", "civic-portal-media"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3PublicURL:      getEnv("S3_PUBLIC_URL", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "Civic Portal <no-reply@civic-portal.local>"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "postmessage"),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GoogleEnabled reports whether federated login is configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// PoolOptions sizes the PostgreSQL pool
func (c *Config) PoolOptions() database.PoolOptions {
	return database.PoolOptions{MaxConns: int32(c.DBMaxConns), MinConns: int32(c.DBMinConns)}
}

// MaxUploadBytes is the request body limit for complaint submissions
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when DB_DRIVER=%s", DriverMongo)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.MediaDriver {
	case MediaLocal, MediaS3:
	default:
		return fmt.Errorf("unknown MEDIA_DRIVER %q", c.MediaDriver)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.OTPTTL <= 0 || c.CitizenTokenTTL <= 0 || c.GovernmentTokenTTL <= 0 {
		return fmt.Errorf("token and OTP lifetimes must be positive")
	}

	// Validate required fields in production
	if c.IsProduction() {
		if c.JWTSecret == devJWTSecret || len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to at least 32 characters in production")
		}
		if c.DBDriver == DriverMemory {
			return fmt.Errorf("DB_DRIVER=%s is not allowed in production", DriverMemory)
		}
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required in production")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
