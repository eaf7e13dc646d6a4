package ratelimit

import (
	"net/http"
	"strconv"

	limiter "github.com/ulule/limiter/v3"

	"github.com/plumline/promoboard/internal/common"
)

// Handler enforces a per-client rate limit before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	// Key derives the limiter key from the request; defaults to client IP.
	Key     func(*http.Request) string
	OnError func(error)
}

// New constructs a limiter from a store and rate.
func New(store limiter.Store, rate limiter.Rate) *limiter.Limiter {
	return limiter.New(store, rate)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := ""
		if h.Key != nil {
			key = h.Key(r)
		}
		if key == "" {
			key = common.ClientIP(r)
		}
		lctx, err := h.Limiter.Get(r.Context(), key)
		if err != nil {
			// Fail open: a broken limiter store must not take the API down.
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
