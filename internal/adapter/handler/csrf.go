package handler

import (
	"log/slog"
	"net/http"

	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CSRFHandler handles CSRF token requests.
type CSRFHandler struct {
	uc *usecase.GenerateCSRF
}

// NewCSRFHandler creates a new CSRF handler.
func NewCSRFHandler(uc *usecase.GenerateCSRF) *CSRFHandler {
	return &CSRFHandler{uc: uc}
}

// csrfResponse represents the CSRF token response.
type csrfResponse struct {
	Data struct {
		CSRFToken string `json:"csrf_token"`
	} `json:"data"`
}

// Handle processes CSRF token requests.
func (h *CSRFHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	token := sessionToken(c)
	if token == "" {
		slog.WarnContext(ctx, "csrf token request without session credential")
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "session credential required",
		})
	}

	csrfToken, err := h.uc.Execute(ctx, token)
	if err != nil {
		return mapDomainError(err)
	}

	// Log only a prefix of the credential.
	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	slog.InfoContext(ctx, "csrf token generated", "token_prefix", prefix)

	resp := csrfResponse{}
	resp.Data.CSRFToken = csrfToken
	return c.JSON(http.StatusOK, resp)
}
