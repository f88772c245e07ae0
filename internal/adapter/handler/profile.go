package handler

import (
	"net/http"

	"audit-hub/internal/domain"
	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// ProfileHandler handles profile updates and avatar uploads.
type ProfileHandler struct {
	validate *usecase.ValidateSession
	update   *usecase.UpdateProfile
	avatar   *usecase.UploadAvatar
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(validate *usecase.ValidateSession, update *usecase.UpdateProfile, avatar *usecase.UploadAvatar) *ProfileHandler {
	return &ProfileHandler{validate: validate, update: update, avatar: avatar}
}

type profileUpdateRequest struct {
	DisplayName     *string   `json:"displayName"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
}

// HandleUpdate processes PUT /profile for the authenticated user.
func (h *ProfileHandler) HandleUpdate(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	profile, err := h.update.Execute(c.Request().Context(), identity.UserID, domain.ProfilePatch{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		Specializations: req.Specializations,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"profile": toSessionProfile(profile),
	})
}

// HandleAvatar processes POST /profile/avatar as a multipart upload.
func (h *ProfileHandler) HandleAvatar(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}
	if file.Size > maxAvatarBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "avatar exceeds the size limit")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read avatar file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, err := h.avatar.Execute(c.Request().Context(), identity.UserID, file.Filename, src, file.Size, contentType)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"avatarKey": key,
	})
}
