package handler

import (
	"errors"
	"net/http"
	"time"

	"audit-hub/internal/domain"
	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles the credential flows: sign-in, sign-up, sign-out and
// password recovery.
type AuthHandler struct {
	signIn  *usecase.SignIn
	signUp  *usecase.SignUp
	signOut *usecase.SignOut
	forgot  *usecase.ForgotPassword
	reset   *usecase.ResetPassword
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(signIn *usecase.SignIn, signUp *usecase.SignUp, signOut *usecase.SignOut, forgot *usecase.ForgotPassword, reset *usecase.ResetPassword) *AuthHandler {
	return &AuthHandler{signIn: signIn, signUp: signUp, signOut: signOut, forgot: forgot, reset: reset}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType,omitempty"`
}

type authResponse struct {
	OK        bool      `json:"ok"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Warning   string    `json:"warning,omitempty"`
}

// HandleSignIn processes POST /auth/signin.
func (h *AuthHandler) HandleSignIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	session, identity, err := h.signIn.Execute(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapDomainError(err)
	}

	setSessionCookie(c, session)
	return c.JSON(http.StatusOK, authResponse{
		OK:        true,
		UserID:    identity.UserID,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
}

// HandleSignUp processes POST /auth/signup. Partial provisioning failure
// still yields a session: the response carries a warning instead of an
// error status, and the rows are repaired on next resolution.
func (h *AuthHandler) HandleSignUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if req.UserType == "" {
		req.UserType = string(domain.UserTypeGeneral)
	}

	session, identity, err := h.signUp.Execute(c.Request().Context(), req.Email, req.Password, req.UserType)
	if err != nil && !errors.Is(err, domain.ErrProvisionIncomplete) {
		return mapDomainError(err)
	}

	resp := authResponse{
		OK:        true,
		UserID:    identity.UserID,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}
	if err != nil {
		resp.Warning = "account created; some profile data is still being set up"
	}

	setSessionCookie(c, session)
	return c.JSON(http.StatusCreated, resp)
}

// HandleSignOut processes POST /auth/signout. Local state and the cookie
// are cleared unconditionally; a failed remote revoke is still surfaced so
// the caller knows the provider may hold the session until expiry.
func (h *AuthHandler) HandleSignOut(c echo.Context) error {
	err := h.signOut.Execute(c.Request().Context(), sessionToken(c))

	clearSessionCookie(c)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword processes POST /auth/forgot-password. The response
// is identical whether or not the address is known.
func (h *AuthHandler) HandleForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.forgot.Execute(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return mapDomainError(err)
		}
		// Swallow everything else to avoid account enumeration.
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "if the address exists, a recovery code has been sent",
	})
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// HandleResetPassword processes POST /auth/reset-password for an
// authenticated session.
func (h *AuthHandler) HandleResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.reset.Execute(c.Request().Context(), sessionToken(c), req.NewPassword); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func setSessionCookie(c echo.Context, session domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
