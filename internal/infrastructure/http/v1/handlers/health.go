package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"partsflow/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
var Version = "dev"

const probeTimeout = 2 * time.Second

// HealthCheck is one dependency probed by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and info probes.
type HealthHandler struct {
	pool   *postgres.Pool
	checks []HealthCheck
}

// NewHealthHandler creates a health handler. pool is nil for the memory
// backend; extra checks (e.g. redis) are probed after the database.
func NewHealthHandler(pool *postgres.Pool, extra ...HealthCheck) *HealthHandler {
	h := &HealthHandler{pool: pool}
	if pool != nil {
		h.checks = append(h.checks, HealthCheck{Name: "database", Probe: pool.Ping})
	}
	h.checks = append(h.checks, extra...)
	return h
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. Any failing probe makes the service unready.
func (h *HealthHandler) Ready(c *gin.Context) {
	results := make(map[string]string, len(h.checks)+1)
	status, code := "ok", http.StatusOK

	if h.pool == nil {
		results["storage"] = "memory"
	}
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		err := check.Probe(ctx)
		cancel()

		if err != nil {
			results[check.Name] = "unhealthy: " + err.Error()
			status, code = "error", http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "healthy"
	}

	c.JSON(code, gin.H{"status": status, "checks": results})
}

// Info handles GET /health/info.
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "partsflow",
		"version": Version,
		"storage": "memory",
	}
	if h.pool != nil {
		body["storage"] = "postgres"
		body["database"] = postgres.GetPoolStats(h.pool.Pool)
	}
	c.JSON(http.StatusOK, body)
}
