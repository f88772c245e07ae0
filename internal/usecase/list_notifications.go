package usecase

import (
	"context"
	"log/slog"

	"audit-hub/internal/domain"
)

const defaultNotificationLimit = 50

// ListNotifications fetches the newest notifications for a user.
type ListNotifications struct {
	notifications domain.NotificationStore
	logger        *slog.Logger
}

// NewListNotifications creates a new notification listing usecase.
func NewListNotifications(n domain.NotificationStore, l *slog.Logger) *ListNotifications {
	return &ListNotifications{notifications: n, logger: l}
}

// Execute returns up to limit notifications, newest first. A non-positive
// limit falls back to the default page size.
func (uc *ListNotifications) Execute(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	notifications, err := uc.notifications.ListNotifications(ctx, userID, limit)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to list notifications",
			"user_id", userID, "error", err)
		return nil, err
	}
	return notifications, nil
}
