package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audit-hub/internal/domain"
	"audit-hub/internal/infrastructure/retry"
)

// ProfileResolution fetches profile and role rows for a user with bounded
// retries, degrading to nil/empty instead of failing. It satisfies the
// session controller's resolver port.
//
// A missing profile row is not an error: provisioning is best-effort at
// sign-up, so the resolver creates the default rows on first sight.
type ProfileResolution struct {
	profiles      domain.ProfileStore
	roles         domain.RoleStore
	notifications domain.NotificationStore
	probe         domain.ConnectivityProbe
	logger        *slog.Logger
	attempts      int
	backoff       retry.BackoffFunc
}

// NewProfileResolution creates a resolver retrying each fetch up to three
// times with linearly growing delays.
func NewProfileResolution(p domain.ProfileStore, r domain.RoleStore, n domain.NotificationStore, probe domain.ConnectivityProbe, l *slog.Logger) *ProfileResolution {
	return &ProfileResolution{
		profiles:      p,
		roles:         r,
		notifications: n,
		probe:         probe,
		logger:        l,
		attempts:      3,
		backoff:       retry.Linear(time.Second),
	}
}

// Resolve fetches the user's profile and role grants. On persistent failure
// it returns nil/empty and records exactly one user-facing warning per
// failed call, suppressed entirely while the gateway is known offline.
func (uc *ProfileResolution) Resolve(ctx context.Context, userID string) (*domain.UserProfile, []domain.UserRole) {
	var (
		profile *domain.UserProfile
		grants  []domain.UserRole
	)

	err := retry.Do(ctx, uc.attempts, uc.backoff, func(ctx context.Context) error {
		var err error
		profile, err = uc.profiles.GetProfile(ctx, userID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			if err = uc.provisionDefaults(ctx, userID); err != nil {
				return err
			}
			if profile, err = uc.profiles.GetProfile(ctx, userID); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		grants, err = uc.roles.ListRoles(ctx, userID)
		return err
	})

	if err != nil {
		uc.logger.WarnContext(ctx, "profile resolution degraded",
			"user_id", userID, "error", err)
		uc.warn(ctx, userID)
		return nil, nil
	}

	return profile, grants
}

// provisionDefaults creates the minimal profile and role rows for an
// account that authenticated but was never provisioned.
func (uc *ProfileResolution) provisionDefaults(ctx context.Context, userID string) error {
	uc.logger.InfoContext(ctx, "provisioning default rows for unprovisioned account",
		"user_id", userID)

	profile := domain.UserProfile{
		UserID:       userID,
		UserType:     domain.UserTypeGeneral,
		Verification: domain.VerificationNone,
		CreatedAt:    time.Now(),
	}
	if err := uc.profiles.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return uc.roles.GrantRole(ctx, domain.UserRole{
		UserID:    userID,
		Role:      domain.UserTypeGeneral,
		Active:    true,
		GrantedAt: time.Now(),
	})
}

// warn records a sync-degraded notification unless the gateway is known to
// be offline, in which case the warning would be noise on top of the
// offline banner. Retries within a call never reach here: only the final
// degraded outcome warns, so each failed call warns exactly once.
func (uc *ProfileResolution) warn(ctx context.Context, userID string) {
	if uc.probe.Offline() {
		return
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.NotifySyncDegraded,
		Title:     "Account data temporarily unavailable",
		Body:      "Some profile details could not be loaded. They will refresh automatically.",
		CreatedAt: time.Now(),
	}
	if err := uc.notifications.InsertNotification(ctx, n); err != nil {
		uc.logger.WarnContext(ctx, "failed to record sync-degraded notification",
			"user_id", userID, "error", err)
	}
}
