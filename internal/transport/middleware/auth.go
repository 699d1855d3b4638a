package middleware

import (
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/pkg/logger"
)

// PrincipalContext tags the request logger with the authenticated principal.
// It must run after the auth middleware has stored the principal id.
func PrincipalContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principalID := internal.PrincipalIDFromContext(r.Context())
		if principalID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "principal_id", principalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
