package asset

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]*Asset, error)
	GetByID(ctx context.Context, id int64) (*Asset, error)
	Create(ctx context.Context, actorID int64, dto CreateAssetDTO) (*Asset, error)
	Update(ctx context.Context, actorID, id int64, dto UpdateAssetDTO) (*Asset, error)
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

func (h *Handler) GetAssets(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	query := r.URL.Query()
	filter := Filter{
		Status:        query.Get("status"),
		AvailableOnly: query.Get("available") == "true",
		Query:         query.Get("q"),
		Limit:         limit,
		Offset:        offset,
	}

	assets, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, AssetsResponse{Assets: assets, Limit: limit, Offset: offset})
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	a, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, a)
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var dto CreateAssetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Create(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.Logger.Debug("CreateAsset: create failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateAssetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Update(r.Context(), internal.PrincipalIDFromContext(r.Context()), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, a)
}
