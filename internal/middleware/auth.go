package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aawaaz/civic-portal/internal/models"
)

type ctxKey string

const (
	citizenKey  ctxKey = "citizen"
	officialKey ctxKey = "official"
)

// TokenVerifier verifies both token audiences
type TokenVerifier interface {
	ParseCitizen(raw string) (*models.CitizenIdentity, error)
	ParseGovernment(raw string) (*models.OfficialIdentity, error)
}

// Citizen returns the authenticated citizen, or nil
func Citizen(ctx context.Context) *models.CitizenIdentity {
	id, _ := ctx.Value(citizenKey).(*models.CitizenIdentity)
	return id
}

// Official returns the authenticated government official, or nil
func Official(ctx context.Context) *models.OfficialIdentity {
	id, _ := ctx.Value(officialKey).(*models.OfficialIdentity)
	return id
}

// WithCitizen stores a citizen identity in ctx
func WithCitizen(ctx context.Context, id *models.CitizenIdentity) context.Context {
	return context.WithValue(ctx, citizenKey, id)
}

// WithOfficial stores an official identity in ctx
func WithOfficial(ctx context.Context, id *models.OfficialIdentity) context.Context {
	return context.WithValue(ctx, officialKey, id)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// OptionalCitizen attaches the citizen identity when a valid token is sent.
// Requests without one, or with a bad one, continue anonymously.
func OptionalCitizen(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if id, err := v.ParseCitizen(raw); err == nil {
					r = r.WithContext(WithCitizen(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCitizen rejects requests without a valid citizen token.
// A government token gets 403 rather than 401.
func RequireCitizen(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}
			id, err := v.ParseCitizen(raw)
			if err != nil {
				if _, gerr := v.ParseGovernment(raw); gerr == nil {
					writeError(w, http.StatusForbidden, "Citizen account required")
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCitizen(r.Context(), id)))
		})
	}
}

// RequireGovernment only admits OTP-issued government tokens.
// A citizen token gets 403 rather than 401.
func RequireGovernment(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Government authorization required")
				return
			}
			id, err := v.ParseGovernment(raw)
			if err != nil {
				if _, cerr := v.ParseCitizen(raw); cerr == nil {
					writeError(w, http.StatusForbidden, "Government access only")
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOfficial(r.Context(), id)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
