package permission

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

// Authorization guards routes with permission keys. A request passes when the
// principal in context holds any of the listed keys.
type Authorization struct {
	*transport.BaseHandler
	authorizer Authorizer
	logger     *slog.Logger
}

func NewAuthorization(authorizer Authorizer, logger *slog.Logger) *Authorization {
	return &Authorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
		logger:      logger,
	}
}

func (a *Authorization) Check(next http.HandlerFunc, keys ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principalID := internal.PrincipalIDFromContext(r.Context())
		if principalID == 0 {
			a.logger.Warn("authorization check failed: principal not found in context")
			a.HandleServiceError(w, ErrMissingPrincipalCtx)
			return
		}

		allowed, err := a.authorizer.AuthorizeAny(r.Context(), principalID, keys)
		if err != nil {
			a.logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "principal_id", principalID, "keys", keys)
			a.HandleServiceError(w, err)
			return
		}

		if !allowed {
			a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"principal_id", principalID,
				"required_any", keys)
			a.HandleServiceError(w, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (a *Authorization) Require(keys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Check(next.ServeHTTP, keys...)
	}
}
