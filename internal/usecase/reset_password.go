package usecase

import (
	"context"
	"log/slog"
	"strings"

	"audit-hub/internal/domain"
)

// ForgotPassword starts the provider's recovery flow for an email address.
type ForgotPassword struct {
	passwords domain.PasswordManager
	logger    *slog.Logger
}

// NewForgotPassword creates a new ForgotPassword usecase.
func NewForgotPassword(p domain.PasswordManager, l *slog.Logger) *ForgotPassword {
	return &ForgotPassword{passwords: p, logger: l}
}

// Execute sends a recovery code. The outcome is identical for known and
// unknown addresses so the endpoint cannot be used to enumerate accounts.
func (uc *ForgotPassword) Execute(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrAuthFailed
	}

	if err := uc.passwords.StartRecovery(ctx, email); err != nil {
		uc.logger.WarnContext(ctx, "recovery flow failed", "error", err)
		return err
	}
	return nil
}

// ResetPassword sets a new password on an authenticated session via the
// provider's settings flow.
type ResetPassword struct {
	passwords domain.PasswordManager
	logger    *slog.Logger
}

// NewResetPassword creates a new ResetPassword usecase.
func NewResetPassword(p domain.PasswordManager, l *slog.Logger) *ResetPassword {
	return &ResetPassword{passwords: p, logger: l}
}

// Execute changes the password for the session identified by token.
func (uc *ResetPassword) Execute(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrSessionNotFound
	}
	if newPassword == "" {
		return domain.ErrAuthFailed
	}

	if err := uc.passwords.ChangePassword(ctx, token, newPassword); err != nil {
		uc.logger.WarnContext(ctx, "password change failed", "error", err)
		return err
	}

	uc.logger.InfoContext(ctx, "password changed")
	return nil
}
