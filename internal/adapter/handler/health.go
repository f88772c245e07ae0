package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger checks a backing store's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil when the
// table store is not wired (tests, degraded local runs).
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Handle processes the /health endpoint.
func (h *HealthHandler) Handle(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": "table store unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
