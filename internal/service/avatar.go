package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/google/uuid"
)

// ObjectStorage persists uploaded files and returns their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
}

// AvatarService stores a new avatar image and points the user at it.
type AvatarService interface {
	Update(ctx context.Context, user *models.User, file io.Reader) (*models.User, error)
}

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type avatarService struct {
	storage  ObjectStorage
	users    UserService
	maxBytes int64
}

// NewAvatarService creates a new AvatarService instance.
func NewAvatarService(storage ObjectStorage, users UserService, maxBytes int64) AvatarService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &avatarService{storage: storage, users: users, maxBytes: maxBytes}
}

func (s *avatarService) Update(ctx context.Context, user *models.User, file io.Reader) (*models.User, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarExtensions[strings.SplitN(contentType, ";", 2)[0]]
	if !ok {
		return nil, ErrUnsupportedMedia
	}

	key := fmt.Sprintf("avatars/%d/%s%s", user.ID, uuid.NewString(), ext)
	url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	return s.users.UpdateAvatar(ctx, user.Email, url)
}
