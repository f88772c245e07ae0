package usecase

import (
	"context"
	"log/slog"

	"audit-hub/internal/domain"
)

// ValidateSession orchestrates session validation with a cache-through
// strategy: the request-path cache answers first, the identity provider on
// a miss.
type ValidateSession struct {
	validator domain.SessionValidator
	roles     domain.RoleStore
	cache     domain.SessionCache
	logger    *slog.Logger
}

// NewValidateSession creates a new ValidateSession usecase.
func NewValidateSession(v domain.SessionValidator, r domain.RoleStore, c domain.SessionCache, l *slog.Logger) *ValidateSession {
	return &ValidateSession{validator: v, roles: r, cache: c, logger: l}
}

// Execute validates the session identified by token and returns the
// identity with its effective user type.
func (uc *ValidateSession) Execute(ctx context.Context, token string) (*domain.Identity, domain.UserType, error) {
	if token == "" {
		return nil, "", domain.ErrSessionNotFound
	}

	if cached, found := uc.cache.Get(token); found {
		return &domain.Identity{
			UserID: cached.UserID,
			Email:  cached.Email,
		}, cached.UserType, nil
	}

	identity, err := uc.validator.ValidateSession(ctx, token)
	if err != nil {
		return nil, "", err
	}

	// Role lookup failure degrades to the fallback type rather than
	// failing validation; the grant rows live in the same store the
	// resolver retries against.
	userType := domain.UserTypeGeneral
	if grants, err := uc.roles.ListRoles(ctx, identity.UserID); err != nil {
		uc.logger.WarnContext(ctx, "role lookup failed during validation",
			"user_id", identity.UserID, "error", err)
	} else {
		userType = domain.PrimaryUserType(grants)
	}

	uc.cache.Set(token, domain.CachedSession{
		UserID:   identity.UserID,
		Email:    identity.Email,
		UserType: userType,
	})

	return identity, userType, nil
}
