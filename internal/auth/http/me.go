package http

import (
	"net/http"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/pkg/httpx"
)

// Me handles GET /v1/me: the profile behind the presented token.
func Me(w http.ResponseWriter, r *http.Request) {
	user, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.NewProfile(user))
}
