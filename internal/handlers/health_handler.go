package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"expense-tracker/internal/errors"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// DatabasePinger reports whether the database is reachable
type DatabasePinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckHandler handles the health check endpoint
type HealthCheckHandler struct {
	db DatabasePinger
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(db DatabasePinger) *HealthCheckHandler {
	return &HealthCheckHandler{db: db}
}

// HealthCheck reports API and database connectivity.
// Answers 503 SYSTEM_003 when the database does not respond.
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		slog.Warn("health check failed",
			"error", err,
			"trace_id", getTraceID(c))
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
