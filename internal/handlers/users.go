package handlers

import (
	"net/http"

	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct {
	avatars service.AvatarService
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(avatars service.AvatarService) *UserHandler {
	return &UserHandler{avatars: avatars}
}

// Me godoc
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateAvatar godoc
// @Summary Upload avatar
// @Description Store a new avatar image and point the profile at it
// @Tags users
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Avatar image"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		LogAndRespondError(c, http.StatusBadRequest, err, "could not read upload")
		return
	}
	defer file.Close()

	user, err := h.avatars.Update(c.Request.Context(), middleware.CurrentUser(c), file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
