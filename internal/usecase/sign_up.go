package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"audit-hub/internal/domain"
)

// SignUp registers a new account and provisions its marketplace rows. The
// identity provider is the source of truth: once registration succeeds the
// account exists even if provisioning fails, so row creation is best-effort
// and repaired lazily by the resolver or the reconcile endpoint.
type SignUp struct {
	auth     domain.Authenticator
	profiles domain.ProfileStore
	roles    domain.RoleStore
	events   domain.EventPublisher
	logger   *slog.Logger
}

// NewSignUp creates a new SignUp usecase.
func NewSignUp(a domain.Authenticator, p domain.ProfileStore, r domain.RoleStore, e domain.EventPublisher, l *slog.Logger) *SignUp {
	return &SignUp{auth: a, profiles: p, roles: r, events: e, logger: l}
}

// Execute registers the account with the requested user type. On partial
// provisioning failure the session is still returned, alongside
// ErrProvisionIncomplete.
func (uc *SignUp) Execute(ctx context.Context, email, password, rawUserType string) (domain.Session, *domain.Identity, error) {
	userType, err := domain.ParseUserType(rawUserType)
	if err != nil {
		return domain.Session{}, nil, err
	}

	traits := map[string]any{"email": email}
	session, identity, err := uc.auth.SignUp(ctx, email, password, traits)
	if err != nil {
		return domain.Session{}, nil, err
	}

	provisionErr := uc.provision(ctx, identity, userType)

	uc.events.Publish(domain.AuthEvent{
		Kind:     domain.AuthSignedIn,
		Session:  session,
		Identity: identity,
		At:       time.Now(),
	})

	if provisionErr != nil {
		uc.logger.WarnContext(ctx, "account registered but provisioning incomplete",
			"user_id", identity.UserID, "error", provisionErr)
		return session, identity, fmt.Errorf("%w: %w", domain.ErrProvisionIncomplete, provisionErr)
	}

	uc.logger.InfoContext(ctx, "user signed up",
		"user_id", identity.UserID, "user_type", string(userType))
	return session, identity, nil
}

func (uc *SignUp) provision(ctx context.Context, identity *domain.Identity, userType domain.UserType) error {
	profile := domain.UserProfile{
		UserID:       identity.UserID,
		DisplayName:  identity.Email,
		UserType:     userType,
		Verification: domain.VerificationNone,
		CreatedAt:    time.Now(),
	}
	if err := uc.profiles.UpsertProfile(ctx, profile); err != nil {
		return fmt.Errorf("profile row: %w", err)
	}

	grant := domain.UserRole{
		UserID:    identity.UserID,
		Role:      userType,
		Active:    true,
		GrantedAt: time.Now(),
	}
	if err := uc.roles.GrantRole(ctx, grant); err != nil {
		return fmt.Errorf("role grant: %w", err)
	}
	return nil
}
