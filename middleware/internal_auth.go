package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Header carried by sibling services calling the /internal surface, such
// as the reconcile trigger.
const internalAuthHeader = "X-Internal-Auth"

// InternalAuth guards the /internal endpoints with a shared secret. These
// routes are never exposed through the edge proxy; the header check is a
// second line of defence for traffic inside the cluster. Comparison is
// constant time.
func InternalAuth(sharedSecret string) echo.MiddlewareFunc {
	secretBytes := []byte(sharedSecret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// An unconfigured secret closes the surface entirely.
			if len(secretBytes) == 0 {
				return echo.NewHTTPError(http.StatusForbidden, "internal surface disabled")
			}
			provided := []byte(c.Request().Header.Get(internalAuthHeader))
			if len(provided) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing internal auth header")
			}
			if subtle.ConstantTimeCompare(provided, secretBytes) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid internal auth")
			}
			return next(c)
		}
	}
}
