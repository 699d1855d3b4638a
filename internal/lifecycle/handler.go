package lifecycle

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	Checkout(ctx context.Context, actorID int64, ref ResourceRef, target Target, notes string) (*CheckoutResult, error)
	Checkin(ctx context.Context, actorID int64, ref ResourceRef, req CheckinRequest) (*CheckinResult, error)
	SoftDelete(ctx context.Context, actorID int64, ref ResourceRef) (*Snapshot, error)
	Restore(ctx context.Context, actorID int64, ref ResourceRef) (*Snapshot, error)
	History(ctx context.Context, ref ResourceRef) ([]*HistoryEntry, error)
	Snapshot(ctx context.Context, ref ResourceRef) (*Snapshot, error)
}

// Handler serves the lifecycle routes of one resource kind. Assets and
// credentials each mount their own.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Kind    ResourceKind
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, kind ResourceKind) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Kind:        kind,
	}
}

func (h *Handler) ref(r *http.Request) (ResourceRef, error) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		return ResourceRef{}, err
	}
	return ResourceRef{Kind: h.Kind, ID: id}, nil
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CheckoutDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	actorID := internal.PrincipalIDFromContext(r.Context())
	result, err := h.Service.Checkout(r.Context(), actorID, ref, dto.Target(), dto.Notes)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	// an empty body means "release the only holder"
	var dto CheckinDTO
	if err := h.DecodeJSON(r, &dto); err != nil && !errors.Is(err, io.EOF) {
		h.HandleServiceError(w, err)
		return
	}

	actorID := internal.PrincipalIDFromContext(r.Context())
	result, err := h.Service.Checkin(r.Context(), actorID, ref, dto.Request())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if result.NeedsSelection() {
		h.WriteSelectionRequired(w, "resource has several holders, select the one to check in",
			HoldersResponse{Holders: result.Holders})
		return
	}
	h.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	snap, err := h.Service.SoftDelete(r.Context(), internal.PrincipalIDFromContext(r.Context()), ref)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, snap)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	snap, err := h.Service.Restore(r.Context(), internal.PrincipalIDFromContext(r.Context()), ref)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, snap)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	entries, err := h.Service.History(r.Context(), ref)
	if err != nil {
		h.Logger.Error("History: failed to load history", "error", err, "resource", ref.String())
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, entries)
}

func (h *Handler) Holders(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	snap, err := h.Service.Snapshot(r.Context(), ref)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, HoldersResponse{Holders: snap.Holders})
}
