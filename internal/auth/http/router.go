package http

import (
	"log/slog"
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/internal/auth/store"
	"github.com/courseloop/campus-auth/pkg/httpx"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

// RouterConfig carries the per-class rate limits so tests can loosen
// them without disabling the middleware path.
type RouterConfig struct {
	CredentialLimit httpx.RateLimitConfig
	SessionLimit    httpx.RateLimitConfig
	HealthLimit     httpx.RateLimitConfig
}

// DefaultRouterConfig is the production profile. Credential and code
// endpoints get the strict bucket.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CredentialLimit: httpx.StrictLimit,
		SessionLimit:    httpx.ModerateLimit,
		HealthLimit:     httpx.LenientLimit,
	}
}

// NewRouter wires every endpoint with its middleware stack.
func NewRouter(auth *service.AuthService, st store.Store, logger *slog.Logger, cfg RouterConfig) http.Handler {
	authHandler := &AuthHandler{Auth: auth}
	passwordHandler := &PasswordHandler{Auth: auth}

	credLimit := httpx.RateLimitByIP(cfg.CredentialLimit)
	sessionLimit := httpx.RateLimitByIP(cfg.SessionLimit)
	healthLimit := httpx.RateLimitByIP(cfg.HealthLimit)

	mux := http.NewServeMux()

	mux.Handle("POST /v1/auth/login", httpx.Chain(http.HandlerFunc(authHandler.Login), credLimit))
	mux.Handle("POST /v1/auth/2fa/verify", httpx.Chain(http.HandlerFunc(authHandler.Verify), credLimit))
	mux.Handle("POST /v1/auth/2fa/resend", httpx.Chain(http.HandlerFunc(authHandler.Resend), credLimit))
	mux.Handle("POST /v1/auth/password/forgot", httpx.Chain(http.HandlerFunc(passwordHandler.Forgot), credLimit))
	mux.Handle("POST /v1/auth/password/reset", httpx.Chain(http.HandlerFunc(passwordHandler.Reset), credLimit))

	mux.Handle("GET /v1/me", httpx.Chain(http.HandlerFunc(Me), sessionLimit, RequireIdentity))

	mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(Livez), healthLimit))
	mux.Handle("GET /readyz", httpx.Chain(Readyz(st), healthLimit))

	return httpx.Chain(mux,
		slogx.HTTPMiddleware(logger),
		Authenticator(auth),
	)
}
