package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"audit-hub/internal/domain"
)

// GenerateCSRF orchestrates CSRF token generation for an authenticated session.
type GenerateCSRF struct {
	validator domain.SessionValidator
	csrf      domain.CSRFTokenGenerator
	logger    *slog.Logger
}

// NewGenerateCSRF creates a new GenerateCSRF usecase.
func NewGenerateCSRF(v domain.SessionValidator, csrf domain.CSRFTokenGenerator, l *slog.Logger) *GenerateCSRF {
	return &GenerateCSRF{validator: v, csrf: csrf, logger: l}
}

// Execute validates the session token and generates a CSRF token bound to
// the session ID.
func (uc *GenerateCSRF) Execute(ctx context.Context, sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", domain.ErrSessionNotFound
	}

	identity, err := uc.validator.ValidateSession(ctx, sessionToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	if identity.SessionID == "" {
		return "", domain.ErrSessionNotFound
	}

	token, err := uc.csrf.Generate(identity.SessionID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate CSRF token", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrCSRFSecretMissing, err)
	}

	return token, nil
}
