package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type readinessCheck struct {
	name  string
	check CheckFunc
}

// HealthOption configures the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for /readyz.
func WithReadinessCheck(name string, check CheckFunc) HealthOption {
	return func(h *HealthHandler) {
		if check != nil {
			h.checks = append(h.checks, readinessCheck{name: name, check: check})
		}
	}
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checks    []readinessCheck
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status reports liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
		Timestamp: time.Now().UTC(),
	})
}

// Readiness runs every registered probe and answers 503 if any fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	for _, rc := range h.checks {
		if err := rc.check(ctx); err != nil {
			resp.Checks[rc.name] = "unavailable"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[rc.name] = "ok"
	}
	resp.Timestamp = time.Now().UTC()

	c.JSON(status, resp)
}
