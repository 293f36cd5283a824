// Package repository provides the data access layer for the contacts service.
// Lookups that match no row return a nil record and a nil error.
package repository

import (
	"context"
	"fmt"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error
	MarkConfirmed(ctx context.Context, userID int64) error
	UpdateAvatar(ctx context.Context, userID int64, url string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email %s: %w", email, err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isDuplicate(err) {
		return fmt.Errorf("failed to create user %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	return r.updateColumn(ctx, userID, "refresh_token", token)
}

func (r *userRepository) MarkConfirmed(ctx context.Context, userID int64) error {
	return r.updateColumn(ctx, userID, "confirmed", true)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID int64, url string) error {
	return r.updateColumn(ctx, userID, "avatar", url)
}

func (r *userRepository) updateColumn(ctx context.Context, userID int64, column string, value any) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update(column, value).Error
	if err != nil {
		return fmt.Errorf("failed to update %s for user id %d: %w", column, userID, err)
	}
	return nil
}
