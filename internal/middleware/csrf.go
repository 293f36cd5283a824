// Package middleware provides HTTP middleware for the contacts service.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins is a list of allowed origins for CSRF validation.
	// Should match CORS allowed origins. "*" accepts any origin.
	AllowedOrigins []string
	// Cookies names the authentication cookies. Requests carrying none of
	// them are not cookie-authenticated and skip validation.
	Cookies []string
}

// CSRF returns middleware that validates Origin/Referer headers on
// state-changing requests authenticated by cookie. Browsers attach cookies
// automatically; bearer headers are never sent cross-site without script
// access, so header-authenticated clients are exempt.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowedSet := make(map[string]bool)
	anyOrigin := false
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			anyOrigin = true
			continue
		}
		allowedSet[normalizeOrigin(origin)] = true
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		if !cookieAuthenticated(c, config.Cookies) {
			c.Next()
			return
		}

		allowed := func(origin string) bool {
			if origin == "" || origin == "null" {
				return false
			}
			return anyOrigin || allowedSet[normalizeOrigin(origin)]
		}

		// Origin header first, Referer as fallback
		if origin := c.GetHeader("Origin"); origin != "" {
			if !allowed(origin) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"detail": "CSRF validation failed: invalid origin",
				})
				return
			}
			c.Next()
			return
		}

		if referer := c.GetHeader("Referer"); referer != "" {
			if !allowed(extractOrigin(referer)) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"detail": "CSRF validation failed: invalid referer",
				})
				return
			}
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"detail": "CSRF validation failed: missing origin",
		})
	}
}

// cookieAuthenticated reports whether the request relies on an auth cookie
// rather than an Authorization header.
func cookieAuthenticated(c *gin.Context, cookies []string) bool {
	if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		return false
	}
	for _, name := range cookies {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return true
		}
	}
	return false
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin extracts the origin (scheme://host:port) from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
