// Package http exposes the authentication flows over JSON endpoints.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/pkg/httpx"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

// AuthHandler serves the login and second-factor endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
	Subject   string `json:"subject"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be valid JSON")
		return
	}

	out, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		slogx.FromContext(r.Context()).Info("login failed", slog.String("reason", err.Error()))
		writeServiceError(w, err)
		return
	}

	if out.Challenge != nil {
		httpx.WriteJSON(w, http.StatusOK, challengeResponse{
			Challenge: "2FA_REQUIRED",
			Subject:   out.Challenge.Subject,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out.Session)
}

type verifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// Verify handles POST /v1/auth/2fa/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be valid JSON")
		return
	}

	session, err := h.Auth.VerifySecondFactor(r.Context(), req.Username, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

type resendRequest struct {
	Username string `json:"username"`
}

// Resend handles POST /v1/auth/2fa/resend.
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be valid JSON")
		return
	}

	if err := h.Auth.ResendSecondFactor(r.Context(), req.Username); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
