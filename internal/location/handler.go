package location

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, limit, offset int) ([]*Location, error)
	GetByID(ctx context.Context, id int64) (*Location, error)
	Create(ctx context.Context, actorID int64, dto CreateLocationDTO) (*Location, error)
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

func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	locations, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("GetLocations: failed to get locations", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, locations)
}

func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	loc, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, loc)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var dto CreateLocationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	loc, err := h.Service.Create(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, loc)
}
