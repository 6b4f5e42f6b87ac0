package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		db         Pinger
		redis      Pinger
		wantStatus int
		wantBody   string
	}{
		{"all up", up, up, http.StatusOK, `"checks":{"redis":"connected"}`},
		{"database down", down, up, http.StatusServiceUnavailable, `"database":"mongo: disconnected"`},
		{"redis down", up, down, http.StatusServiceUnavailable, `"checks":{"redis":"disconnected"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, "mongo", zap.NewNop().Sugar()).WithCheck("redis", tt.redis)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
