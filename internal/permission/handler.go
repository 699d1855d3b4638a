package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListPermissions(ctx context.Context) ([]*Permission, error)
	UpsertPermission(ctx context.Context, actorID int64, dto UpsertPermissionDTO) (*Permission, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, actorID int64, dto CreateRoleDTO) (*Role, error)
	GrantRolePermission(ctx context.Context, actorID, roleID int64, key string) error
	RevokeRolePermission(ctx context.Context, actorID, roleID int64, key string) error
	AssignRole(ctx context.Context, actorID, userID, roleID int64) error
	UnassignRole(ctx context.Context, actorID, userID, roleID int64) error
	GrantUserPermission(ctx context.Context, actorID, userID int64, key string) error
	RevokeUserPermission(ctx context.Context, actorID, userID int64, key string) error
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Authorizer Authorizer
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, authorizer Authorizer) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Authorizer:  authorizer,
	}
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, perms)
}

func (h *Handler) UpsertPermission(w http.ResponseWriter, r *http.Request) {
	var dto UpsertPermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.UpsertPermission(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.Logger.Warn("UpsertPermission: service error", "error", err, "key", dto.Key)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, p)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	role, err := h.Service.GetRole(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	role, err := h.Service.CreateRole(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.Logger.Warn("CreateRole: service error", "error", err, "name", dto.Name)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, role)
}

func (h *Handler) GrantRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto GrantPermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.GrantRolePermission(r.Context(), internal.PrincipalIDFromContext(r.Context()), roleID, dto.Key); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"role_id": roleID, "key": dto.Key})
}

func (h *Handler) RevokeRolePermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	key := chi.URLParam(r, "key")

	if err := h.Service.RevokeRolePermission(r.Context(), internal.PrincipalIDFromContext(r.Context()), roleID, key); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"role_id": roleID, "key": key})
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto AssignRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.AssignRole(r.Context(), internal.PrincipalIDFromContext(r.Context()), userID, dto.RoleID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user_id": userID, "role_id": dto.RoleID})
}

func (h *Handler) UnassignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	roleID, err := h.ParseIDParam(r, "roleID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.UnassignRole(r.Context(), internal.PrincipalIDFromContext(r.Context()), userID, roleID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user_id": userID, "role_id": roleID})
}

func (h *Handler) GrantUserPermission(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto GrantPermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.GrantUserPermission(r.Context(), internal.PrincipalIDFromContext(r.Context()), userID, dto.Key); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user_id": userID, "key": dto.Key})
}

func (h *Handler) RevokeUserPermission(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	key := chi.URLParam(r, "key")

	if err := h.Service.RevokeUserPermission(r.Context(), internal.PrincipalIDFromContext(r.Context()), userID, key); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user_id": userID, "key": key})
}

// CheckAuthorization handles GET /users/{id}/authorize?key=...; any listed key suffices.
func (h *Handler) CheckAuthorization(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		h.HandleServiceError(w, internal.NewValidationFieldError("key", "at least one key is required", internal.ErrCodeValidationFailed))
		return
	}

	allowed, err := h.Authorizer.AuthorizeAny(r.Context(), userID, keys)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, AuthorizeResponse{PrincipalID: userID, Keys: keys, Allowed: allowed})
}
