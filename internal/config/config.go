package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL string
	RedisURL    string

	JWTSecret            string
	JWTIssuer            string
	JWTAudience          string
	AccessTokenTTL       time.Duration
	OperatorEmail        string
	OperatorPasswordHash string

	CORSAllowedOrigins []string

	ProductAPIBaseURL string
	ProductAPIToken   string
	ProductCacheTTL   time.Duration
	ReviewAPIBaseURL  string
	ReviewAPIToken    string

	SheetAPIBaseURL   string
	SheetAPIToken     string
	SheetID           string
	SheetStatusColumn string
	SheetHeaderTTL    time.Duration

	CafeAPIBaseURL string
	CafeClubID     string
	CafeMenuID     string
	BandAPIBaseURL string
	SocialAPIToken string

	PostFooter          string
	PricingCoinRounding string
	PricingCoinMode     string

	IdempotencyTTL   time.Duration
	RateLimitMax     int
	RateLimitWindow  time.Duration
	UpstreamTimeout  time.Duration
	RetryMaxAttempts int
	RetryBase        time.Duration
	RetryJitter      float64

	CircuitMinRequests int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration
	WorkerConcurrency  int
	PublishMaxRetry    int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv: valueOrDefault(k.String("APP_ENV"), "development"),
		Port:   valueOrDefault(k.String("PORT"), "8080"),

		DatabaseURL: k.String("DATABASE_URL"),
		RedisURL:    k.String("REDIS_URL"),

		JWTSecret:            k.String("JWT_SECRET"),
		JWTIssuer:            valueOrDefault(k.String("JWT_ISSUER"), "promoboard"),
		JWTAudience:          valueOrDefault(k.String("JWT_AUDIENCE"), "promoboard-operators"),
		AccessTokenTTL:       parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		OperatorEmail:        k.String("OPERATOR_EMAIL"),
		OperatorPasswordHash: k.String("OPERATOR_PASSWORD_HASH"),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ProductAPIBaseURL: k.String("PRODUCT_API_BASE_URL"),
		ProductAPIToken:   k.String("PRODUCT_API_TOKEN"),
		ProductCacheTTL:   parseDuration(k.String("PRODUCT_CACHE_TTL"), "10m"),
		ReviewAPIBaseURL:  k.String("REVIEW_API_BASE_URL"),
		ReviewAPIToken:    k.String("REVIEW_API_TOKEN"),

		SheetAPIBaseURL:   k.String("SHEET_API_BASE_URL"),
		SheetAPIToken:     k.String("SHEET_API_TOKEN"),
		SheetID:           k.String("SHEET_ID"),
		SheetStatusColumn: valueOrDefault(k.String("SHEET_STATUS_COLUMN"), "status"),
		SheetHeaderTTL:    parseDuration(k.String("SHEET_HEADER_TTL"), "30m"),

		CafeAPIBaseURL: k.String("CAFE_API_BASE_URL"),
		CafeClubID:     k.String("CAFE_CLUB_ID"),
		CafeMenuID:     k.String("CAFE_MENU_ID"),
		BandAPIBaseURL: k.String("BAND_API_BASE_URL"),
		SocialAPIToken: k.String("SOCIAL_API_TOKEN"),

		PostFooter:          k.String("POST_FOOTER"),
		PricingCoinRounding: valueOrDefault(k.String("PRICING_COIN_ROUNDING"), "none"),
		PricingCoinMode:     valueOrDefault(k.String("PRICING_COIN_MODE"), "amount"),

		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitMax:     intOrDefault(k.Int("RATE_LIMIT_MAX"), 60),
		RateLimitWindow:  parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		UpstreamTimeout:  parseDuration(k.String("UPSTREAM_TIMEOUT"), "10s"),
		RetryMaxAttempts: intOrDefault(k.Int("RETRY_MAX_ATTEMPTS"), 3),
		RetryBase:        parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryJitter:      floatOrDefault(k.Float64("RETRY_JITTER"), 0.2),

		CircuitMinRequests: intOrDefault(k.Int("CIRCUIT_MIN_REQUESTS"), 5),
		CircuitFailureRate: floatOrDefault(k.Float64("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),
		WorkerConcurrency:  intOrDefault(k.Int("WORKER_CONCURRENCY"), 5),
		PublishMaxRetry:    intOrDefault(k.Int("PUBLISH_MAX_RETRY"), 5),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.OperatorEmail == "" || cfg.OperatorPasswordHash == "" {
		return nil, errors.New("OPERATOR_EMAIL and OPERATOR_PASSWORD_HASH are required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
