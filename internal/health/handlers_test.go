package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	health.Handler{}.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestReadyAllHealthy(t *testing.T) {
	rec := httptest.NewRecorder()
	health.Handler{Checker: stubChecker{}}.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var readiness health.Readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readiness))
	require.Equal(t, "ok", readiness.Status)
	require.Equal(t, "ok", readiness.Checks["db"])
	require.Equal(t, "ok", readiness.Checks["redis"])
}

func TestReadyDependencyDown(t *testing.T) {
	rec := httptest.NewRecorder()
	checker := stubChecker{redisErr: errors.New("connection refused")}
	health.Handler{Checker: checker}.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var readiness health.Readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readiness))
	require.Equal(t, "degraded", readiness.Status)
	require.Equal(t, "ok", readiness.Checks["db"])
	require.Equal(t, "connection refused", readiness.Checks["redis"])
}

func TestReadyNoChecker(t *testing.T) {
	rec := httptest.NewRecorder()
	health.Handler{}.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
