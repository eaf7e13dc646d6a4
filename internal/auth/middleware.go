package auth

import (
	"net/http"
	"strings"

	"github.com/plumline/promoboard/internal/common"
)

// Middleware guards routes behind bearer token authentication.
type Middleware struct {
	Service *Service
}

// RequireAuth rejects requests without a valid bearer token and stores the
// operator subject on the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token", nil)
			return
		}
		raw := strings.TrimSpace(header[len("bearer "):])
		subject, err := m.Service.Verify(raw)
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithOperator(r.Context(), subject)))
	})
}
