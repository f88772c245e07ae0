package handler

import (
	"log/slog"
	"net/http"

	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InternalHandler handles internal service-to-service requests.
type InternalHandler struct {
	reconcile *usecase.ReconcileUser
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(reconcile *usecase.ReconcileUser) *InternalHandler {
	return &InternalHandler{reconcile: reconcile}
}

// reconcileResponse represents the response for the reconcile endpoint.
type reconcileResponse struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
}

// HandleReconcile repairs missing profile or role rows for a user. Sits
// behind the shared-secret middleware; operators and sibling services call
// it after a reported sign-up provisioning failure.
func (h *InternalHandler) HandleReconcile(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Param("userID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userID is required")
	}

	profile, err := h.reconcile.Execute(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "reconciliation failed",
			"user_id", userID, "error", err, "remote_addr", c.RealIP())
		return mapDomainError(err)
	}

	slog.InfoContext(ctx, "user reconciled",
		"user_id", userID, "remote_addr", c.RealIP())
	return c.JSON(http.StatusOK, reconcileResponse{
		UserID:   profile.UserID,
		UserType: string(profile.UserType),
	})
}
