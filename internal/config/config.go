// Package config handles configuration loading for the contacts service.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the contacts service.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	UserCacheTTL  time.Duration

	JWTSecret        string
	JWTAlgorithm     string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	JWTEmailExpiry   time.Duration

	RateLimitContacts int
	RateLimitAuth     int
	RateLimitWindow   time.Duration

	Mail   MailConfig
	S3     S3Config
	Cookie CookieConfig

	AvatarMaxBytes  int64
	PublicHost      string
	AllowedOrigins  []string
	SwaggerHost     string
	Port            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// MailConfig holds outbound SMTP settings.
type MailConfig struct {
	Server    string
	Port      int
	Username  string
	Password  string
	From      string
	FromName  string
	SSL       bool
	StartTLS  bool
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// S3Config holds avatar object storage settings.
type S3Config struct {
	Endpoint  string
	PublicURL string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// CookieConfig controls auth cookie attributes.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	req := &requiredEnv{}

	cfg := &Config{
		DBHost:     req.get("DB_HOST"),
		DBPort:     req.get("DB_PORT"),
		DBUser:     req.get("DB_USER"),
		DBPassword: req.get("DB_PASSWORD"),
		DBName:     req.get("DB_NAME"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),

		RedisHost:     req.get("REDIS_HOST"),
		RedisPort:     req.get("REDIS_PORT"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		UserCacheTTL:  parseDuration(GetEnv("USER_CACHE_TTL", "900s"), 900*time.Second),

		JWTSecret:        req.get("JWT_SECRET"),
		JWTAlgorithm:     GetEnv("JWT_ALGORITHM", "HS256"),
		JWTAccessExpiry:  parseDuration(GetEnv("JWT_ACCESS_EXPIRY", "600m"), 600*time.Minute),
		JWTRefreshExpiry: parseDuration(GetEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),
		JWTEmailExpiry:   parseDuration(GetEnv("JWT_EMAIL_EXPIRY", "3h"), 3*time.Hour),

		RateLimitContacts: parseInt(GetEnv("RATE_LIMIT_CONTACTS", "10"), 10),
		RateLimitAuth:     parseInt(GetEnv("RATE_LIMIT_AUTH", "5"), 5),
		RateLimitWindow:   parseDuration(GetEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute),

		Mail: MailConfig{
			Server:    GetEnv("MAIL_SERVER", "localhost"),
			Port:      parseInt(GetEnv("MAIL_PORT", "465"), 465),
			Username:  GetEnv("MAIL_USERNAME", ""),
			Password:  GetEnv("MAIL_PASSWORD", ""),
			From:      GetEnv("MAIL_FROM", "noreply@localhost"),
			FromName:  GetEnv("MAIL_FROM_NAME", "Contacts Service"),
			SSL:       parseBool(GetEnv("MAIL_SSL_TLS", "true"), true),
			StartTLS:  parseBool(GetEnv("MAIL_STARTTLS", "false"), false),
			Workers:   parseInt(GetEnv("MAIL_WORKERS", "2"), 2),
			QueueSize: parseInt(GetEnv("MAIL_QUEUE_SIZE", "100"), 100),
			Timeout:   parseDuration(GetEnv("MAIL_TIMEOUT", "30s"), 30*time.Second),
		},

		S3: S3Config{
			Endpoint:  GetEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
			PublicURL: GetEnv("S3_PUBLIC_URL", ""),
			Region:    GetEnv("S3_REGION", "us-east-1"),
			Bucket:    GetEnv("S3_BUCKET", "avatars"),
			AccessKey: GetEnv("S3_ACCESS_KEY", ""),
			SecretKey: GetEnv("S3_SECRET_KEY", ""),
		},

		Cookie: CookieConfig{
			Domain:   GetEnv("COOKIE_DOMAIN", ""),
			Path:     GetEnv("COOKIE_PATH", "/"),
			Secure:   parseBool(GetEnv("COOKIE_SECURE", "false"), false),
			SameSite: parseSameSite(GetEnv("COOKIE_SAMESITE", "lax")),
		},

		AvatarMaxBytes:  int64(parseInt(GetEnv("AVATAR_MAX_BYTES", "5242880"), 5<<20)),
		PublicHost:      GetEnv("PUBLIC_HOST", "http://localhost:8000"),
		AllowedOrigins:  splitList(GetEnv("ALLOWED_ORIGINS", "*")),
		SwaggerHost:     GetEnv("SWAGGER_HOST", ""),
		Port:            GetEnv("PORT", "8000"),
		Environment:     GetEnv("ENVIRONMENT", "development"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: parseDuration(GetEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	if len(req.missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(req.missing, ", "))
	}

	if cfg.S3.PublicURL == "" {
		cfg.S3.PublicURL = cfg.S3.Endpoint
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if c.RateLimitContacts <= 0 || c.RateLimitAuth <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.Mail.Workers <= 0 {
		return errors.New("MAIL_WORKERS must be positive")
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default.
func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

type requiredEnv struct {
	missing []string
}

func (r *requiredEnv) get(key string) string {
	value := os.Getenv(key)
	if value == "" {
		r.missing = append(r.missing, key)
	}
	return value
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func parseInt(value string, defaultValue int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBool(value string, defaultValue bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
