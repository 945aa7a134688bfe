package http

import (
	"errors"
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/notify"
	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/pkg/httpx"
)

// apiError is the uniform error envelope.
type apiError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, apiError{Error: code, Description: description})
}

// writeServiceError maps service-layer errors onto the wire. Anything
// unrecognized becomes an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "missing or malformed fields")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, service.ErrCodeInvalid):
		writeError(w, http.StatusUnauthorized, "invalid_code", "code is invalid or expired")
	case errors.Is(err, notify.ErrDeliveryConnectivity):
		writeError(w, http.StatusServiceUnavailable, "delivery_unavailable", "could not reach the delivery channel")
	case errors.Is(err, notify.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, "delivery_failed", "the delivery channel rejected the message")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
