package service

import (
	"context"
	"crypto/md5" // #nosec G501 - gravatar addresses avatars by md5 of the email
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GunarsK-portfolio/contacts-service/internal/cache"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// GravatarURL returns the gravatar image URL for an email address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email)))) // #nosec G401
	return gravatarBaseURL + hex.EncodeToString(sum[:])
}

// UserService manages user records. Every mutation drops the cached
// identity so the next authenticated request reloads it.
type UserService interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, username, email, password string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, user *models.User, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (*models.User, error)
}

type userService struct {
	repo   repository.UserRepository
	cache  cache.UserCache
	hasher PasswordHasher
	logger *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(repo repository.UserRepository, userCache cache.UserCache, hasher PasswordHasher, logger *slog.Logger) UserService {
	return &userService{
		repo:   repo,
		cache:  userCache,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *userService) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := GravatarURL(email)
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		Avatar:    &avatar,
		Confirmed: false,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateRefreshToken(ctx context.Context, user *models.User, token *string) error {
	if err := s.repo.UpdateRefreshToken(ctx, user.ID, token); err != nil {
		return err
	}
	user.RefreshToken = token
	s.invalidate(ctx, user.Email)
	return nil
}

func (s *userService) ConfirmEmail(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.repo.MarkConfirmed(ctx, user.ID); err != nil {
		return err
	}
	s.invalidate(ctx, email)
	return nil
}

func (s *userService) UpdateAvatar(ctx context.Context, email, url string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.repo.UpdateAvatar(ctx, user.ID, url); err != nil {
		return nil, err
	}
	user.Avatar = &url
	s.invalidate(ctx, email)
	return user, nil
}

func (s *userService) invalidate(ctx context.Context, email string) {
	if err := s.cache.Invalidate(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached user", "email", email, "error", err)
	}
}
