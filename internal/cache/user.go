// Package cache holds the redis lookaside cache for authenticated users.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultUserTTL bounds how long a cached identity may lag the store.
const DefaultUserTTL = 900 * time.Second

// UserCache stores users under user:<email>.
type UserCache interface {
	Get(ctx context.Context, email string) (*models.User, bool, error)
	Set(ctx context.Context, user *models.User) error
	Invalidate(ctx context.Context, email string) error
}

// cachedUser mirrors every persisted column, including those hidden from JSON
// responses, so a cache hit is interchangeable with a store load.
type cachedUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	RefreshToken *string   `json:"refresh_token"`
	Avatar       *string   `json:"avatar"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type redisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache creates a redis backed UserCache. A non-positive ttl falls back to DefaultUserTTL.
func NewUserCache(client *redis.Client, ttl time.Duration) UserCache {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &redisUserCache{client: client, ttl: ttl}
}

// Key returns the cache key for the given email.
func Key(email string) string {
	return "user:" + email
}

func (c *redisUserCache) Get(ctx context.Context, email string) (*models.User, bool, error) {
	data, err := c.client.Get(ctx, Key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached user %s: %w", email, err)
	}

	var record cachedUser
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached user %s: %w", email, err)
	}

	return &models.User{
		ID:           record.ID,
		Username:     record.Username,
		Email:        record.Email,
		Password:     record.Password,
		RefreshToken: record.RefreshToken,
		Avatar:       record.Avatar,
		Confirmed:    record.Confirmed,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, true, nil
}

func (c *redisUserCache) Set(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Password:     user.Password,
		RefreshToken: user.RefreshToken,
		Avatar:       user.Avatar,
		Confirmed:    user.Confirmed,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", user.Email, err)
	}

	if err := c.client.Set(ctx, Key(user.Email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user %s: %w", user.Email, err)
	}
	return nil
}

func (c *redisUserCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, Key(email)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached user %s: %w", email, err)
	}
	return nil
}
