package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"audit-hub/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"session not found", domain.ErrSessionNotFound, http.StatusUnauthorized},
		{"auth failed", domain.ErrAuthFailed, http.StatusUnauthorized},
		{"session expired", domain.ErrSessionExpired, http.StatusUnauthorized},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict},
		{"offer terminal", domain.ErrOfferTerminal, http.StatusConflict},
		{"thread mixed", domain.ErrOfferThreadMixed, http.StatusConflict},
		{"invalid user type", domain.ErrInvalidUserType, http.StatusBadRequest},
		{"invalid offer terms", domain.ErrInvalidOfferTerms, http.StatusBadRequest},
		{"empty profile patch", domain.ErrInvalidProfileUpdate, http.StatusBadRequest},
		{"profile not found", domain.ErrProfileNotFound, http.StatusNotFound},
		{"offer not found", domain.ErrOfferNotFound, http.StatusNotFound},
		{"gateway unavailable", domain.ErrGatewayUnavailable, http.StatusBadGateway},
		{"token generation", domain.ErrTokenGeneration, http.StatusInternalServerError},
		{"csrf secret missing", domain.ErrCSRFSecretMissing, http.StatusInternalServerError},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := mapDomainError(tt.err)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestMapDomainError_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("%w: price must be positive", domain.ErrInvalidOfferTerms)

	httpErr := mapDomainError(wrapped)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
