package handler

import (
	"errors"
	"net/http"

	"audit-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAuthFailed),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrSessionInactive),
		errors.Is(err, domain.ErrMissingIdentity):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "an account with this email already exists")

	case errors.Is(err, domain.ErrOfferTerminal):
		return echo.NewHTTPError(http.StatusConflict, "offer has already been decided")

	case errors.Is(err, domain.ErrOfferThreadMixed):
		return echo.NewHTTPError(http.StatusConflict, "offer belongs to a different audit request")

	case errors.Is(err, domain.ErrInvalidUserType),
		errors.Is(err, domain.ErrInvalidOfferTerms),
		errors.Is(err, domain.ErrInvalidProfileUpdate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrOfferNotFound),
		errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")

	case errors.Is(err, domain.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrCSRFSecretMissing):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
