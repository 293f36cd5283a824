// Package main is the entry point for the contacts service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/GunarsK-portfolio/contacts-service/docs"
	"github.com/GunarsK-portfolio/contacts-service/internal/cache"
	"github.com/GunarsK-portfolio/contacts-service/internal/config"
	"github.com/GunarsK-portfolio/contacts-service/internal/handlers"
	"github.com/GunarsK-portfolio/contacts-service/internal/mail"
	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
	"github.com/GunarsK-portfolio/contacts-service/internal/routes"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/GunarsK-portfolio/contacts-service/pkg/database"
	"github.com/GunarsK-portfolio/contacts-service/pkg/logger"
	"github.com/GunarsK-portfolio/contacts-service/pkg/redis"
	"github.com/GunarsK-portfolio/contacts-service/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

// @title Contacts Service API
// @version 1.0
// @description Owner-scoped contact directory with JWT authentication
// @host localhost:8000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		slog.Error("contacts service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Service:     "contacts-service",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(ctx, database.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		TimeZone: "UTC",
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Initialize object storage
	avatarStorage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		return err
	}

	// Initialize mail delivery
	renderer, err := mail.NewRenderer()
	if err != nil {
		return err
	}
	dispatcher := mail.NewDispatcher(mail.NewSMTPSender(cfg.Mail), log,
		cfg.Mail.Workers, cfg.Mail.QueueSize, cfg.Mail.Timeout)
	dispatcher.Start()
	mailer := mail.NewConfirmationMailer(renderer, dispatcher, cfg.PublicHost)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	// Initialize services
	userCache := cache.NewUserCache(redisClient, cfg.UserCacheTTL)
	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTAlgorithm,
		cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry, cfg.JWTEmailExpiry)
	if err != nil {
		return err
	}
	userService := service.NewUserService(userRepo, userCache, hasher, log)
	authService := service.NewAuthService(userService, jwtService, hasher, userCache, mailer, log)
	contactService := service.NewContactService(contactRepo)
	avatarService := service.NewAvatarService(avatarStorage, userService, cfg.AvatarMaxBytes)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry, "contacts")

	// Initialize handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, jwtService, handlers.NewCookieHelper(cfg.Cookie)),
		Users:    handlers.NewUserHandler(avatarService),
		Contacts: handlers.NewContactHandler(contactService),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.Setup(router, h, routes.Deps{
		AuthService: authService,
		Metrics:     metrics,
		Gatherer:    registry,
		Logger:      log,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting contacts service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error("mail dispatcher did not drain", "error", err)
	}
	return nil
}
