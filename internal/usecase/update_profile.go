package usecase

import (
	"context"
	"log/slog"

	"audit-hub/internal/domain"
)

// ProfilePublisher receives the canonical profile after a successful write.
type ProfilePublisher interface {
	Identity() *domain.Identity
	SetProfile(profile *domain.UserProfile)
}

// UpdateProfile applies a partial profile update and republishes the
// post-write canonical record, so local state never drifts from the store.
type UpdateProfile struct {
	profiles domain.ProfileStore
	state    ProfilePublisher
	logger   *slog.Logger
}

// NewUpdateProfile creates a new UpdateProfile usecase.
func NewUpdateProfile(p domain.ProfileStore, s ProfilePublisher, l *slog.Logger) *UpdateProfile {
	return &UpdateProfile{profiles: p, state: s, logger: l}
}

// Execute patches the profile and returns the canonical row as re-read
// from the store, not the patch merged locally.
func (uc *UpdateProfile) Execute(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	if patch.Empty() {
		return nil, domain.ErrInvalidProfileUpdate
	}

	if err := uc.profiles.PatchProfile(ctx, userID, patch); err != nil {
		return nil, err
	}

	profile, err := uc.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if identity := uc.state.Identity(); identity != nil && identity.UserID == userID {
		uc.state.SetProfile(profile)
	}

	uc.logger.InfoContext(ctx, "profile updated", "user_id", userID)
	return profile, nil
}
