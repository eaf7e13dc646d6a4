package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Readiness is the payload /health/ready returns.
type Readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes the database and Redis and reports per-dependency status.
// Publishing needs both, so any failed probe degrades readiness.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		writeReadiness(w, Readiness{
			Status: "degraded",
			Checks: map[string]string{"dependencies": "not configured"},
		})
		return
	}
	ctx := r.Context()
	checks := map[string]string{"db": "ok", "redis": "ok"}
	degraded := false
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		checks["db"] = err.Error()
		degraded = true
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		checks["redis"] = err.Error()
		degraded = true
	}
	status := "ok"
	if degraded {
		status = "degraded"
	}
	writeReadiness(w, Readiness{Status: status, Checks: checks})
}

func writeReadiness(w http.ResponseWriter, readiness Readiness) {
	w.Header().Set("Content-Type", "application/json")
	if readiness.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(readiness)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
