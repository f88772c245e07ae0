package handler

import (
	"net/http"
	"strconv"
	"time"

	"audit-hub/internal/domain"
	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the authenticated user's notification feed.
type NotificationHandler struct {
	validate *usecase.ValidateSession
	list     *usecase.ListNotifications
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(validate *usecase.ValidateSession, list *usecase.ListNotifications) *NotificationHandler {
	return &NotificationHandler{validate: validate, list: list}
}

type notificationView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationViews(notifications []domain.Notification) []notificationView {
	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, notificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return views
}

// HandleList processes GET /notifications?limit=n.
func (h *NotificationHandler) HandleList(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	notifications, err := h.list.Execute(c.Request().Context(), identity.UserID, limit)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"notifications": toNotificationViews(notifications),
	})
}
