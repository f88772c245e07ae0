package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"audit-hub/internal/domain"
)

// ReconcileUser repairs partially provisioned accounts on demand: it
// ensures profile and role rows exist for a user the identity provider
// already knows. Exposed on the internal surface for operators and sibling
// services.
type ReconcileUser struct {
	profiles domain.ProfileStore
	roles    domain.RoleStore
	logger   *slog.Logger
}

// NewReconcileUser creates a new ReconcileUser usecase.
func NewReconcileUser(p domain.ProfileStore, r domain.RoleStore, l *slog.Logger) *ReconcileUser {
	return &ReconcileUser{profiles: p, roles: r, logger: l}
}

// Execute ensures the user has profile and role rows, creating defaults
// where missing, and returns the resulting profile.
func (uc *ReconcileUser) Execute(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := uc.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		created := domain.UserProfile{
			UserID:       userID,
			UserType:     domain.UserTypeGeneral,
			Verification: domain.VerificationNone,
			CreatedAt:    time.Now(),
		}
		if err := uc.profiles.UpsertProfile(ctx, created); err != nil {
			return nil, err
		}
		profile = &created
		uc.logger.InfoContext(ctx, "created missing profile row", "user_id", userID)
	case err != nil:
		return nil, err
	}

	grants, err := uc.roles.ListRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		grant := domain.UserRole{
			UserID:    userID,
			Role:      profile.UserType,
			Active:    true,
			GrantedAt: time.Now(),
		}
		if err := uc.roles.GrantRole(ctx, grant); err != nil {
			return nil, err
		}
		uc.logger.InfoContext(ctx, "created missing role grant",
			"user_id", userID, "role", string(profile.UserType))
	}

	return profile, nil
}
