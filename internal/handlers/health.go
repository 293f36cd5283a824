package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports dependency health.
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// HealthResponse lists per-dependency results.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewHealthHandler creates a handler running the named checks.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// Check godoc
// @Summary Health check
// @Description Check database and cache connectivity
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "healthy", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
			resp.Checks[name] = "unhealthy"
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// DatabaseCheck godoc
// @Summary Database check
// @Description Run SELECT 1 against the database
// @Tags health
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} ErrorResponse
// @Router /healthchecker [get]
func (h *HealthHandler) DatabaseCheck(c *gin.Context) {
	check, ok := h.checks["database"]
	if !ok {
		RespondError(c, http.StatusInternalServerError, "Database is not configured correctly")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := check(ctx); err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Error connecting to the database")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Database connection is healthy"})
}
