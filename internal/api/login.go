package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sqlmend/sqlmend/internal/auth"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func handleLogin(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Passwords == nil || deps.Tokens == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AUTH_NOT_CONFIGURED", "authentication is not configured", false, nil)
		return
	}

	var request loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid login request body", false, map[string]any{"details": err.Error()})
		return
	}
	if request.Password == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "PASSWORD_REQUIRED", "password is required", false, nil)
		return
	}

	if !deps.Passwords.Verify(request.Password) {
		writeError(r.Context(), w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "password is incorrect", false, nil)
		return
	}

	token, expiresAt := deps.Tokens.Issue()
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

func handleLogout(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Tokens == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AUTH_NOT_CONFIGURED", "authentication is not configured", false, nil)
		return
	}

	if token := auth.TokenFromRequest(r); token != "" {
		deps.Tokens.Revoke(token)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}
