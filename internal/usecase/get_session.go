package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"audit-hub/internal/domain"
)

// SessionResult is the hydrated view returned by GetSession: identity,
// profile, role grants and a backend JWT in one round-trip.
type SessionResult struct {
	UserID       string
	Email        string
	UserType     domain.UserType
	Profile      *domain.UserProfile
	Roles        []domain.UserRole
	BackendToken string
}

// GetSession assembles the full authenticated view for the frontend.
type GetSession struct {
	validator domain.SessionValidator
	cache     domain.SessionCache
	profiles  domain.ProfileStore
	roles     domain.RoleStore
	token     domain.TokenIssuer
	logger    *slog.Logger
}

// NewGetSession creates a new GetSession usecase.
func NewGetSession(v domain.SessionValidator, c domain.SessionCache, p domain.ProfileStore, r domain.RoleStore, t domain.TokenIssuer, l *slog.Logger) *GetSession {
	return &GetSession{validator: v, cache: c, profiles: p, roles: r, token: t, logger: l}
}

// Execute validates the session, loads profile and roles, and issues a
// backend JWT carrying the effective user type.
func (uc *GetSession) Execute(ctx context.Context, token string) (*SessionResult, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	var identity *domain.Identity
	if cached, found := uc.cache.Get(token); found {
		identity = &domain.Identity{
			UserID: cached.UserID,
			Email:  cached.Email,
		}
	} else {
		validated, err := uc.validator.ValidateSession(ctx, token)
		if err != nil {
			return nil, err
		}
		identity = validated
	}

	grants, err := uc.roles.ListRoles(ctx, identity.UserID)
	if err != nil {
		uc.logger.WarnContext(ctx, "role lookup failed, serving fallback type",
			"user_id", identity.UserID, "error", err)
		grants = nil
	}
	userType := domain.PrimaryUserType(grants)

	// A missing profile row is served as nil, not an error: sign-up
	// provisioning is best-effort and repaired lazily.
	profile, err := uc.profiles.GetProfile(ctx, identity.UserID)
	if err != nil {
		profile = nil
	}

	uc.cache.Set(token, domain.CachedSession{
		UserID:   identity.UserID,
		Email:    identity.Email,
		UserType: userType,
	})

	backendToken, err := uc.token.IssueBackendToken(identity, userType, identity.SessionID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue backend token", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	return &SessionResult{
		UserID:       identity.UserID,
		Email:        identity.Email,
		UserType:     userType,
		Profile:      profile,
		Roles:        grants,
		BackendToken: backendToken,
	}, nil
}
