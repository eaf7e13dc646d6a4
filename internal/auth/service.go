package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrInvalidCredentials is returned when login verification fails.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken is returned when a presented token fails validation.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Config configures the auth service.
type Config struct {
	Secret               string
	Issuer               string
	Audience             string
	AccessTokenTTL       time.Duration
	OperatorEmail        string
	OperatorPasswordHash string
}

// Service authenticates the operator and issues signed access tokens.
type Service struct {
	secret       []byte
	issuer       string
	audience     string
	accessTTL    time.Duration
	operator     string
	passwordHash string
	now          func() time.Time
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	if strings.TrimSpace(cfg.OperatorEmail) == "" || strings.TrimSpace(cfg.OperatorPasswordHash) == "" {
		return nil, errors.New("auth: operator credentials are required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		secret:       []byte(cfg.Secret),
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
		accessTTL:    ttl,
		operator:     strings.ToLower(strings.TrimSpace(cfg.OperatorEmail)),
		passwordHash: cfg.OperatorPasswordHash,
		now:          time.Now,
	}, nil
}

// Login verifies the operator credentials and returns a signed access token
// with its expiry.
func (s *Service) Login(_ context.Context, email, password string) (string, time.Time, error) {
	if strings.ToLower(strings.TrimSpace(email)) != s.operator {
		return "", time.Time{}, ErrInvalidCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil || !match {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expiry := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(s.operator).
		IssuedAt(now).
		Expiration(expiry)
	if s.issuer != "" {
		builder = builder.Issuer(s.issuer)
	}
	if s.audience != "" {
		builder = builder.Audience([]string{s.audience})
	}
	tok, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiry, nil
}

// Verify parses and validates an access token, returning the operator subject.
func (s *Service) Verify(raw string) (string, error) {
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		options = append(options, jwt.WithAudience(s.audience))
	}
	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return "", ErrInvalidToken
	}
	subject := tok.Subject()
	if subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
