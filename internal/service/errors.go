package service

import "errors"

var (
	ErrUnauthorized        = errors.New("could not validate credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidScope        = errors.New("invalid scope for token")
	ErrUnprocessableToken  = errors.New("invalid token for email verification")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrVerification        = errors.New("verification error")
	ErrUserNotFound        = errors.New("user not found")
	ErrConflict            = errors.New("already exists")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrFileTooLarge        = errors.New("file too large")
)
