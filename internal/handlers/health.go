package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger checks connectivity of a backing service
type Pinger interface {
	Ping(ctx context.Context) error
}

type namedCheck struct {
	name string
	p    Pinger
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db      Pinger
	backend string
	extra   []namedCheck
	logger  *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. backend names the
// configured persistence driver.
func NewHealthHandler(db Pinger, backend string, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, backend: backend, logger: logger}
}

// WithCheck adds a dependency that must be reachable for readiness
func (h *HealthHandler) WithCheck(name string, p Pinger) *HealthHandler {
	h.extra = append(h.extra, namedCheck{name: name, p: p})
	sort.Slice(h.extra, func(i, j int) bool { return h.extra[i].name < h.extra[j].name })
	return h
}

// Check handles GET /health (liveness)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /health/ready (readiness)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := models.HealthStatus{
		Status:   "ready",
		Version:  Version,
		Uptime:   time.Since(startTime).String(),
		Database: h.backend + ": connected",
	}
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warnw("Readiness check failed", "backend", h.backend, "error", err)
		status.Database = h.backend + ": disconnected"
		code = http.StatusServiceUnavailable
	}

	if len(h.extra) > 0 {
		status.Checks = make(map[string]string, len(h.extra))
		for _, c := range h.extra {
			if err := c.p.Ping(ctx); err != nil {
				h.logger.Warnw("Readiness check failed", "dependency", c.name, "error", err)
				status.Checks[c.name] = "disconnected"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[c.name] = "connected"
		}
	}

	if code != http.StatusOK {
		status.Status = "not ready"
		status.Uptime = ""
	}
	respondJSON(w, code, status)
}
