package handler

import (
	"net/http"

	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	sessionTokenHeader = "X-Session-Token"
	sessionCookieName  = "audit_hub_session"
)

// sessionToken extracts the session credential from the request: the
// X-Session-Token header first, the session cookie as fallback for
// browser clients.
func sessionToken(c echo.Context) string {
	if token := c.Request().Header.Get(sessionTokenHeader); token != "" {
		return token
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ValidateHandler handles the /validate endpoint for nginx auth_request.
type ValidateHandler struct {
	uc *usecase.ValidateSession
}

// NewValidateHandler creates a new validate handler.
func NewValidateHandler(uc *usecase.ValidateSession) *ValidateHandler {
	return &ValidateHandler{uc: uc}
}

// Handle processes the /validate endpoint. On success the identity is
// exposed as response headers for the proxy to forward upstream.
func (h *ValidateHandler) Handle(c echo.Context) error {
	token := sessionToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "session credential not found")
	}

	identity, userType, err := h.uc.Execute(c.Request().Context(), token)
	if err != nil {
		return mapDomainError(err)
	}

	c.Response().Header().Set("X-Audit-User-Id", identity.UserID)
	c.Response().Header().Set("X-Audit-User-Email", identity.Email)
	c.Response().Header().Set("X-Audit-User-Type", string(userType))
	return c.NoContent(http.StatusOK)
}
