package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Cookie names
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

const currentUserKey = "current_user"

// BearerToken returns the token from the Authorization header, falling back
// to the named cookie. It returns "" when neither is present.
func BearerToken(c *gin.Context, cookie string) string {
	if authz := c.GetHeader("Authorization"); authz != "" {
		scheme, token, ok := strings.Cut(authz, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie == "" {
		return ""
	}
	token, err := c.Cookie(cookie)
	if err != nil {
		return ""
	}
	return token
}

// Authenticate resolves the access token to a user and stores it in the
// request context. Requests without a valid token are answered with 401.
func Authenticate(auth service.AuthService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c, AccessTokenCookie)
		if token == "" {
			AbortUnauthorized(c, "Not authenticated")
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), token)
		switch {
		case errors.Is(err, service.ErrInvalidScope):
			AbortUnauthorized(c, "Invalid scope for token")
			return
		case errors.Is(err, service.ErrUnauthorized):
			AbortUnauthorized(c, "Could not validate credentials")
			return
		case err != nil:
			logger.ErrorContext(c.Request.Context(), "failed to resolve current user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// AbortUnauthorized answers 401 with a bearer challenge.
func AbortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
