package handler

import (
	"net/http"
	"time"

	"audit-hub/internal/domain"
	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler handles /session, returning the hydrated authenticated
// view as JSON for the frontend.
type SessionHandler struct {
	uc *usecase.GetSession
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(uc *usecase.GetSession) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// sessionUser represents the user object in the response.
type sessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// sessionProfile represents the profile object in the response. Omitted
// entirely when the profile row has not been provisioned yet.
type sessionProfile struct {
	DisplayName     string   `json:"displayName"`
	Bio             string   `json:"bio,omitempty"`
	Verification    string   `json:"verification"`
	Specializations []string `json:"specializations,omitempty"`
	AuditsCompleted int      `json:"auditsCompleted"`
	AuditsRequested int      `json:"auditsRequested"`
	AvatarKey       string   `json:"avatarKey,omitempty"`
}

type sessionRole struct {
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	GrantedAt time.Time `json:"grantedAt"`
}

// sessionResponse represents the JSON response structure.
type sessionResponse struct {
	OK      bool            `json:"ok"`
	User    sessionUser     `json:"user"`
	Profile *sessionProfile `json:"profile,omitempty"`
	Roles   []sessionRole   `json:"roles"`
}

// Handle processes the /session endpoint and returns JSON. The backend JWT
// travels as a header, not in the body, so it never lands in frontend
// state dumps.
func (h *SessionHandler) Handle(c echo.Context) error {
	token := sessionToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "session credential not found")
	}

	result, err := h.uc.Execute(c.Request().Context(), token)
	if err != nil {
		return mapDomainError(err)
	}

	c.Response().Header().Set("X-Audit-Backend-Token", result.BackendToken)

	return c.JSON(http.StatusOK, sessionResponse{
		OK: true,
		User: sessionUser{
			ID:       result.UserID,
			Email:    result.Email,
			UserType: string(result.UserType),
		},
		Profile: toSessionProfile(result.Profile),
		Roles:   toSessionRoles(result.Roles),
	})
}

func toSessionProfile(p *domain.UserProfile) *sessionProfile {
	if p == nil {
		return nil
	}
	return &sessionProfile{
		DisplayName:     p.DisplayName,
		Bio:             p.Bio,
		Verification:    string(p.Verification),
		Specializations: p.Specializations,
		AuditsCompleted: p.AuditsCompleted,
		AuditsRequested: p.AuditsRequested,
		AvatarKey:       p.AvatarKey,
	}
}

func toSessionRoles(roles []domain.UserRole) []sessionRole {
	out := make([]sessionRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, sessionRole{
			Role:      string(r.Role),
			Active:    r.Active,
			GrantedAt: r.GrantedAt,
		})
	}
	return out
}
