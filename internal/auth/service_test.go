package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/auth"
	"github.com/plumline/promoboard/internal/common"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hash, err := argon2id.CreateHash("hunter2", argon2id.DefaultParams)
	require.NoError(t, err)
	svc, err := auth.NewService(auth.Config{
		Secret:               "unit-test-secret",
		Issuer:               "promoboard",
		Audience:             "promoboard-operators",
		AccessTokenTTL:       time.Hour,
		OperatorEmail:        "ops@example.com",
		OperatorPasswordHash: hash,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	svc := newService(t)

	token, expiresAt, err := svc.Login(context.Background(), "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	subject, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.Login(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "other@example.com", "hunter2")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newService(t)
	_, err := svc.Verify("not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRequireAuthMiddleware(t *testing.T) {
	svc := newService(t)
	token, _, err := svc.Login(context.Background(), "ops@example.com", "hunter2")
	require.NoError(t, err)

	var seenOperator string
	protected := auth.Middleware{Service: svc}.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOperator, _ = common.Operator(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops@example.com", seenOperator)

	bare := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, bare)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
