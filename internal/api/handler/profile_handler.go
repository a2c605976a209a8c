package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

// ProfileHandler serves the profile-fetch collaborator endpoint.
type ProfileHandler struct {
	profiles ports.ProfileFetcher
}

func NewProfileHandler(profiles ports.ProfileFetcher) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /api/users/me.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserProfile
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	subjectID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	profile, err := h.profiles.GetProfile(c.Request().Context(), subjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
