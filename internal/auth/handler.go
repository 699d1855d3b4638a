package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("RefreshToken: token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, tokens)
}

// Logout is stateless: tokens simply expire. The call still requires a
// valid access token so clients get a consistent 401 on stale sessions.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleServiceError(w, ErrMissingToken)
		return
	}

	if _, err := h.Service.ValidateAccessToken(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, ErrMissingToken)
			return
		}

		principalID, err := h.Service.ValidateAccessToken(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithPrincipalID(r.Context(), principalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
