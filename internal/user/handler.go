package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	Me(ctx context.Context, principalID int64) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	Create(ctx context.Context, actorID int64, dto CreateUserDTO) (*User, error)
	SetStatus(ctx context.Context, actorID, id int64, dto UpdateStatusDTO) (*User, error)
	Delete(ctx context.Context, actorID, id int64) error
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principalID := internal.PrincipalIDFromContext(r.Context())
	if principalID == 0 {
		h.Logger.Error("GetCurrentUser: principal not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.Me(r.Context(), principalID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: failed to load profile", "user_id", principalID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, u)
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	users, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	u, err := h.Service.Create(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, u)
}

func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdateStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	u, err := h.Service.SetStatus(r.Context(), internal.PrincipalIDFromContext(r.Context()), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), internal.PrincipalIDFromContext(r.Context()), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
