package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the body of informational replies.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondError aborts the request with a detail body.
func RespondError(c *gin.Context, status int, detail string) {
	if status == http.StatusUnauthorized {
		middleware.AbortUnauthorized(c, detail)
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

// LogAndRespondError logs err with request context, then responds with detail.
func LogAndRespondError(c *gin.Context, status int, err error, detail string) {
	slog.ErrorContext(c.Request.Context(), detail,
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
	_ = c.Error(err)
	RespondError(c, status, detail)
}

// respondServiceError maps service errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidScope):
		RespondError(c, http.StatusUnauthorized, "Invalid scope for token")
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
		RespondError(c, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, service.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrEmailNotConfirmed):
		RespondError(c, http.StatusUnauthorized, "Email not confirmed")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		RespondError(c, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, service.ErrUnprocessableToken):
		RespondError(c, http.StatusUnprocessableEntity, "Invalid token for email verification")
	case errors.Is(err, service.ErrVerification):
		RespondError(c, http.StatusBadRequest, "Verification error")
	case errors.Is(err, service.ErrUserNotFound):
		RespondError(c, http.StatusNotFound, "Not Found")
	case errors.Is(err, service.ErrUnsupportedMedia):
		RespondError(c, http.StatusUnsupportedMediaType, "Avatar must be a png, jpeg, gif or webp image")
	case errors.Is(err, service.ErrFileTooLarge):
		RespondError(c, http.StatusRequestEntityTooLarge, "Avatar file is too large")
	default:
		LogAndRespondError(c, http.StatusInternalServerError, err, "Internal server error")
	}
}
