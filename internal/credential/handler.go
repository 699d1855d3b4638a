package credential

import (
	"context"
	"net/http"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]*Credential, error)
	GetByID(ctx context.Context, id int64) (*Credential, error)
	Create(ctx context.Context, actorID int64, dto CreateCredentialDTO) (*Credential, error)
	Update(ctx context.Context, actorID, id int64, dto UpdateCredentialDTO) (*Credential, error)
	Reveal(ctx context.Context, actorID, id int64) (*Secret, error)
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

func (h *Handler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	query := r.URL.Query()
	filter := Filter{
		AvailableOnly: query.Get("available") == "true",
		Query:         query.Get("q"),
		Limit:         limit,
		Offset:        offset,
	}

	creds, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, CredentialsResponse{Credentials: creds, Limit: limit, Offset: offset})
}

func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, c)
}

func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var dto CreateCredentialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.Create(r.Context(), internal.PrincipalIDFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdateCredentialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.Update(r.Context(), internal.PrincipalIDFromContext(r.Context()), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, c)
}

func (h *Handler) RevealSecret(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	secret, err := h.Service.Reveal(r.Context(), internal.PrincipalIDFromContext(r.Context()), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	h.WriteSuccess(w, http.StatusOK, secret)
}
