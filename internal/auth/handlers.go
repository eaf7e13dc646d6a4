package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plumline/promoboard/internal/common"
)

// Handler exposes the operator login endpoint.
type Handler struct {
	Service *Service
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies operator credentials and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	token, expiresAt, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid credentials", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to issue token", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"access_token": token,
		"expires_at":   expiresAt.Unix(),
	})
}
