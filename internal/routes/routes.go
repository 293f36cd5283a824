// Package routes defines HTTP routes for the contacts service.
package routes

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/docs"
	"github.com/GunarsK-portfolio/contacts-service/internal/config"
	"github.com/GunarsK-portfolio/contacts-service/internal/handlers"
	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers bundles the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Contacts *handlers.ContactHandler
	Health   *handlers.HealthHandler
}

// Deps carries what the middleware chain needs besides handlers.
type Deps struct {
	AuthService service.AuthService
	Metrics     *middleware.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, h Handlers, deps Deps, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(middleware.Timing())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	router.Use(middleware.CSRF(middleware.CSRFConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Cookies:        []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie},
	}))

	// Health and metrics
	router.GET("/health", h.Health.Check)
	router.GET("/api/healthchecker", h.Health.DatabaseCheck)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authenticate := middleware.Authenticate(deps.AuthService, deps.Logger)

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow, deps.Logger)
	auth := router.Group("/api/auth", authLimiter.Middleware())
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/refresh_token", h.Auth.Refresh)
		auth.POST("/logout", authenticate, h.Auth.Logout)
		auth.GET("/confirmed_email/:token", h.Auth.ConfirmEmail)
		auth.POST("/request_email", h.Auth.RequestEmail)
	}

	users := router.Group("/api/users", authenticate)
	{
		users.GET("/me", h.Users.Me)
		users.PATCH("/avatar", h.Users.UpdateAvatar)
	}

	// Listing is guarded per client before authentication.
	listLimiter := middleware.NewRateLimiter(cfg.RateLimitContacts, cfg.RateLimitWindow, deps.Logger)
	router.GET("/api/contacts", listLimiter.Middleware(), authenticate, h.Contacts.List)

	contacts := router.Group("/api/contacts", authenticate)
	{
		contacts.GET("/search_by_id/:id", h.Contacts.GetByID)
		contacts.GET("/search_by_lastname/:lastname", h.Contacts.SearchByLastname)
		contacts.GET("/search_by_firstname/:firstname", h.Contacts.SearchByFirstname)
		contacts.GET("/search_by_email/:email", h.Contacts.SearchByEmail)
		contacts.GET("/birthdays", h.Contacts.Birthdays)
		contacts.POST("", h.Contacts.Create)
		contacts.PUT("/:id", h.Contacts.Update)
		contacts.DELETE("/:id", h.Contacts.Delete)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.PerformanceHeader, middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
