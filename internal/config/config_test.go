package config

import (
	"strings"
	"testing"
	"time"

	"github.com/aawaaz/civic-portal/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "ENVIRONMENT", "DB_DRIVER", "MONGO_URI", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "JWT_SECRET", "CITIZEN_TOKEN_TTL", "GOVERNMENT_TOKEN_TTL", "ALLOWED_ORIGINS",
	"GOV_EMAIL_DOMAIN", "OTP_TTL", "MEDIA_DRIVER", "PUBLIC_BASE_URL", "MAX_UPLOAD_MB", "RESEND_API_KEY",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "DB_AUTO_MIGRATE",
}

// cleanEnv blanks every variable Load reads so host settings don't leak in
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, MediaLocal, cfg.MediaDriver)
	assert.Equal(t, "http://localhost:5000", cfg.PublicBaseURL)
	assert.Equal(t, "@gov.in", cfg.GovEmailDomain)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.DBAutoMigrate)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.GoogleEnabled())
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.Equal(t, database.PoolOptions{MaxConns: 25, MinConns: 5}, cfg.PoolOptions())
}

func TestLoadOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("PUBLIC_BASE_URL", "https://civic.example.org/")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("CITIZEN_TOKEN_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, "https://civic.example.org", cfg.PublicBaseURL)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.DBAutoMigrate)
	assert.True(t, cfg.GoogleEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.CitizenTokenTTL, "unparseable values fall back")
}

func TestLoadValidation(t *testing.T) {
	strong := strings.Repeat("k", 32)
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown db driver", map[string]string{"DB_DRIVER": "sqlite"}, `unknown DB_DRIVER "sqlite"`},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL is required"},
		{"unknown media driver", map[string]string{"MEDIA_DRIVER": "ftp"}, `unknown MEDIA_DRIVER "ftp"`},
		{"zero upload limit", map[string]string{"MAX_UPLOAD_MB": "0"}, "MAX_UPLOAD_MB must be positive"},
		{"negative otp ttl", map[string]string{"OTP_TTL": "-1m"}, "lifetimes must be positive"},
		{"production default secret", map[string]string{"ENVIRONMENT": "production"}, "JWT_SECRET"},
		{"production memory store", map[string]string{
			"ENVIRONMENT": "production", "JWT_SECRET": strong, "DB_DRIVER": "memory",
		}, "not allowed in production"},
		{"production without resend", map[string]string{
			"ENVIRONMENT": "production", "JWT_SECRET": strong,
		}, "RESEND_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProduction(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("RESEND_API_KEY", "re_123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSplitList(t *testing.T) {
	assert.Empty(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a,,b, "))
}
