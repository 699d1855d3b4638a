package activity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// List handles GET /activity?module=&entity_type=&entity_id=&principal_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	q := r.URL.Query()

	filter := Filter{
		Module:     q.Get("module"),
		EntityType: q.Get("entity_type"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := q.Get("entity_id"); v != "" {
		filter.EntityID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("principal_id"); v != "" {
		filter.PrincipalID, _ = strconv.ParseInt(v, 10, 64)
	}

	entries, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("List: failed to list activity", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, entries)
}
