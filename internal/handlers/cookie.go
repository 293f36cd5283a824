package handlers

import (
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/config"
	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RefreshTokenPath scopes the refresh cookie to the auth endpoints that read it.
const RefreshTokenPath = "/api/auth"

// CookieHelper manages authentication cookies.
type CookieHelper struct {
	config config.CookieConfig
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(cfg config.CookieConfig) *CookieHelper {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &CookieHelper{config: cfg}
}

// SetAuthCookies sets both access and refresh token cookies.
func (h *CookieHelper) SetAuthCookies(c *gin.Context, accessToken, refreshToken string, accessExpiry, refreshExpiry time.Duration) {
	h.setCookie(c, middleware.AccessTokenCookie, accessToken, h.config.Path, int(accessExpiry.Seconds()))
	h.setCookie(c, middleware.RefreshTokenCookie, refreshToken, RefreshTokenPath, int(refreshExpiry.Seconds()))
}

// ClearAuthCookies removes both authentication cookies.
func (h *CookieHelper) ClearAuthCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", h.config.Path, -1)
	h.setCookie(c, middleware.RefreshTokenCookie, "", RefreshTokenPath, -1)
}

func (h *CookieHelper) setCookie(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(
		name,
		value,
		maxAge,
		path,
		h.config.Domain,
		h.config.Secure,
		true, // httpOnly - always true for auth cookies
	)
}
