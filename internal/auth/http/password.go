package http

import (
	"encoding/json"
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/pkg/httpx"
)

// PasswordHandler serves the password reset endpoints.
type PasswordHandler struct {
	Auth *service.AuthService
}

type forgotRequest struct {
	Email string `json:"email"`
}

// Forgot handles POST /v1/auth/password/forgot. It answers 202 for every
// well-formed request so responses cannot confirm whether an email has
// an account.
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be valid JSON")
		return
	}

	if err := h.Auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// Reset handles POST /v1/auth/password/reset.
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body must be valid JSON")
		return
	}

	if err := h.Auth.CompletePasswordReset(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}
