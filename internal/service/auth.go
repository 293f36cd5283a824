package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GunarsK-portfolio/contacts-service/internal/cache"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
)

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ConfirmationSender delivers email confirmation links out of band.
type ConfirmationSender interface {
	SendConfirmation(email, username, token string) error
}

// AuthService covers registration, login, token refresh, email
// confirmation and resolution of the current user from an access token.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, user *models.User) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) (bool, error)
	RequestConfirmation(ctx context.Context, email string) (bool, error)
}

type authService struct {
	users      UserService
	jwtService JWTService
	hasher     PasswordHasher
	cache      cache.UserCache
	mailer     ConfirmationSender
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	users UserService,
	jwtService JWTService,
	hasher PasswordHasher,
	userCache cache.UserCache,
	mailer ConfirmationSender,
	logger *slog.Logger,
) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		hasher:     hasher,
		cache:      userCache,
		mailer:     mailer,
		logger:     logger,
	}
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	user, err := s.users.Create(ctx, username, email, password)
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, user)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidCredentials)
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, fmt.Errorf("%w: invalid password", ErrInvalidCredentials)
	}

	// Confirmation state is only revealed to callers holding the password.
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the token pair. Presenting a refresh token other than the
// one last issued revokes the stored token, forcing a new login.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.jwtService.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		if err := s.users.UpdateRefreshToken(ctx, user, nil); err != nil {
			return nil, err
		}
		s.logger.WarnContext(ctx, "refresh token reuse detected, stored token revoked", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, user *models.User) error {
	return s.users.UpdateRefreshToken(ctx, user, nil)
}

// CurrentUser resolves the bearer of an access token, reading through the
// user cache. Cache failures degrade to a store lookup.
func (s *authService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.jwtService.ParseToken(accessToken, ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	email := claims.Subject
	if email == "" {
		return nil, ErrUnauthorized
	}

	user, ok, err := s.cache.Get(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "user cache read failed", "email", email, "error", err)
	}
	if ok {
		return user, nil
	}

	user, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	if err := s.cache.Set(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "user cache write failed", "email", email, "error", err)
	}

	return user, nil
}

// ConfirmEmail marks the token's user as confirmed. The boolean reports
// whether the address had already been confirmed.
func (s *authService) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.jwtService.EmailFromToken(token)
	if err != nil {
		return false, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrVerification
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.users.ConfirmEmail(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrVerification
		}
		return false, err
	}
	return false, nil
}

// RequestConfirmation re-sends the confirmation email. Unknown addresses are
// not reported so callers cannot enumerate accounts.
func (s *authService) RequestConfirmation(ctx context.Context, email string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if user.Confirmed {
		return true, nil
	}

	s.sendConfirmation(ctx, user)
	return false, nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user, &refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// sendConfirmation never fails the calling request; delivery problems are logged.
func (s *authService) sendConfirmation(ctx context.Context, user *models.User) {
	token, err := s.jwtService.GenerateEmailToken(user.Email, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate email token", "user_id", user.ID, "error", err)
		return
	}

	if err := s.mailer.SendConfirmation(user.Email, user.Username, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to queue confirmation email", "user_id", user.ID, "error", err)
	}
}
