package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newLimitedServer(t *testing.T, r rate.Limit, burst int) *echo.Echo {
	t.Helper()

	rl := NewRateLimiter(r, burst)
	t.Cleanup(rl.Close)

	e := echo.New()
	e.Use(rl.Middleware())
	e.POST("/offers", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})
	return e
}

func doRequest(e *echo.Echo, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/offers", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	e := newLimitedServer(t, rate.Limit(10), 10)

	rec := doRequest(e, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	// 1 req/s, burst 1: second request should be rejected
	e := newLimitedServer(t, rate.Limit(1), 1)

	assert.Equal(t, http.StatusCreated, doRequest(e, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "").Code)
}

func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	e := newLimitedServer(t, rate.Limit(1), 1)

	doRequest(e, "") // exhaust the burst
	rec := doRequest(e, "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_DifferentIPsGetSeparateLimits(t *testing.T) {
	e := newLimitedServer(t, rate.Limit(1), 1)

	assert.Equal(t, http.StatusCreated, doRequest(e, "1.2.3.4:1234").Code)
	// second IP still has its own burst
	assert.Equal(t, http.StatusCreated, doRequest(e, "5.6.7.8:5678").Code)
	// first IP's burst is spent
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "1.2.3.4:1234").Code)
}

func TestRateLimiter_CloseStopsCleanup(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	rl.getLimiter("1.2.3.4")
	rl.Close()

	// limiter state stays usable after Close; only the cleanup goroutine stops
	assert.NotNil(t, rl.getLimiter("1.2.3.4"))
}
