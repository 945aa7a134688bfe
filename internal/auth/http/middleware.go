package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/pkg/httpx"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

type identityKey struct{}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(identityKey{}).(domain.User)
	return u, ok
}

// Authenticator resolves the bearer token, when present, into an
// identity on the request context. Requests without a token, or with an
// invalid one, pass through unauthenticated; endpoints that require an
// identity enforce it themselves via RequireIdentity.
func Authenticator(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpx.BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("bearer token rejected", slog.String("reason", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that did not authenticate.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
