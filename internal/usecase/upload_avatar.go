package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"audit-hub/internal/domain"
)

// UploadAvatar stores an avatar image in object storage and points the
// profile row at the new key.
type UploadAvatar struct {
	storage  domain.ObjectStorage
	profiles domain.ProfileStore
	logger   *slog.Logger
}

// NewUploadAvatar creates a new UploadAvatar usecase.
func NewUploadAvatar(s domain.ObjectStorage, p domain.ProfileStore, l *slog.Logger) *UploadAvatar {
	return &UploadAvatar{storage: s, profiles: p, logger: l}
}

// Execute uploads the image and patches the profile. The previous avatar
// object, if any, is removed best-effort after the row points at the new
// one.
func (uc *UploadAvatar) Execute(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	previous := ""
	if profile, err := uc.profiles.GetProfile(ctx, userID); err == nil {
		previous = profile.AvatarKey
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), path.Ext(filename))
	if err := uc.storage.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}

	patch := domain.ProfilePatch{AvatarKey: &key}
	if err := uc.profiles.PatchProfile(ctx, userID, patch); err != nil {
		// Orphaned object; remove it rather than leak storage.
		if rmErr := uc.storage.Remove(ctx, key); rmErr != nil {
			uc.logger.WarnContext(ctx, "failed to remove orphaned avatar object",
				"key", key, "error", rmErr)
		}
		return "", err
	}

	if previous != "" && previous != key {
		if err := uc.storage.Remove(ctx, previous); err != nil {
			uc.logger.WarnContext(ctx, "failed to remove previous avatar object",
				"key", previous, "error", err)
		}
	}

	return key, nil
}
