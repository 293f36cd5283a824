package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenScope distinguishes the purpose of a signed token.
type TokenScope string

// Token scopes carried in the scope claim.
const (
	ScopeAccess  TokenScope = "access_token"
	ScopeRefresh TokenScope = "refresh_token"
	ScopeEmail   TokenScope = "email_token"
)

// Default token lifetimes.
const (
	DefaultAccessExpiry  = 600 * time.Minute
	DefaultRefreshExpiry = 7 * 24 * time.Hour
	DefaultEmailExpiry   = 3 * time.Hour
)

const minSecretLength = 32

// Claims represents JWT token claims. The subject is the user's email.
type Claims struct {
	Scope TokenScope `json:"scope"`
	jwt.RegisteredClaims
}

// JWTService defines JWT token operations. A zero override lifetime selects
// the default for that token kind.
type JWTService interface {
	GenerateAccessToken(email string, override time.Duration) (string, error)
	GenerateRefreshToken(email string, override time.Duration) (string, error)
	GenerateEmailToken(email string, override time.Duration) (string, error)
	ParseToken(tokenString string, scope TokenScope) (*Claims, error)
	DecodeRefreshToken(tokenString string) (string, error)
	EmailFromToken(tokenString string) (string, error)
	GetAccessExpiry() time.Duration
	GetRefreshExpiry() time.Duration
}

type jwtService struct {
	secret        []byte
	method        jwt.SigningMethod
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	emailExpiry   time.Duration
	now           func() time.Time
}

// NewJWTService creates a new JWTService instance. The algorithm must be one
// of HS256, HS384 or HS512 and the secret at least 32 bytes long.
func NewJWTService(secret, algorithm string, accessExpiry, refreshExpiry, emailExpiry time.Duration) (JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}

	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	if accessExpiry <= 0 {
		accessExpiry = DefaultAccessExpiry
	}
	if refreshExpiry <= 0 {
		refreshExpiry = DefaultRefreshExpiry
	}
	if emailExpiry <= 0 {
		emailExpiry = DefaultEmailExpiry
	}

	return &jwtService{
		secret:        []byte(secret),
		method:        method,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		emailExpiry:   emailExpiry,
		now:           time.Now,
	}, nil
}

func (s *jwtService) GenerateAccessToken(email string, override time.Duration) (string, error) {
	return s.generateToken(email, ScopeAccess, pick(override, s.accessExpiry))
}

func (s *jwtService) GenerateRefreshToken(email string, override time.Duration) (string, error) {
	return s.generateToken(email, ScopeRefresh, pick(override, s.refreshExpiry))
}

func (s *jwtService) GenerateEmailToken(email string, override time.Duration) (string, error) {
	return s.generateToken(email, ScopeEmail, pick(override, s.emailExpiry))
}

func (s *jwtService) GetAccessExpiry() time.Duration {
	return s.accessExpiry
}

func (s *jwtService) GetRefreshExpiry() time.Duration {
	return s.refreshExpiry
}

func (s *jwtService) generateToken(email string, scope TokenScope, expiry time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies signature and expiry, then checks the scope claim.
// It returns ErrInvalidToken for the former and ErrInvalidScope for the latter.
func (s *jwtService) ParseToken(tokenString string, scope TokenScope) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Scope != scope {
		return nil, ErrInvalidScope
	}

	return claims, nil
}

func (s *jwtService) DecodeRefreshToken(tokenString string) (string, error) {
	claims, err := s.ParseToken(tokenString, ScopeRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// EmailFromToken reports a signature or expiry failure as ErrUnprocessableToken.
func (s *jwtService) EmailFromToken(tokenString string) (string, error) {
	claims, err := s.ParseToken(tokenString, ScopeEmail)
	if errors.Is(err, ErrInvalidToken) {
		return "", ErrUnprocessableToken
	}
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func pick(override, fallback time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return fallback
}
