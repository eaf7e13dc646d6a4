package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":           "postgres://localhost:5432/promoboard",
		"REDIS_URL":              "redis://localhost:6379/0",
		"JWT_SECRET":             "test-secret",
		"OPERATOR_EMAIL":         "ops@example.com",
		"OPERATOR_PASSWORD_HASH": "$argon2id$v=19$m=65536,t=1,p=2$abc$def",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "promoboard", cfg.JWTIssuer)
	require.Equal(t, "status", cfg.SheetStatusColumn)
	require.Equal(t, "none", cfg.PricingCoinRounding)
	require.Equal(t, 60, cfg.RateLimitMax)
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["OPERATOR_PASSWORD_HASH"] = ""
	_, err = config.LoadForTests(env)
	require.Error(t, err)
}

func TestHTTPAddrNormalisesPort(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
