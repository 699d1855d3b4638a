package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// SelectionResponse is returned when a check-in needs the caller to pick a holder.
type SelectionResponse struct {
	Success           bool        `json:"success"`
	RequiresSelection bool        `json:"requires_selection"`
	Message           string      `json:"message"`
	Data              interface{} `json:"data"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess wraps data in the success envelope.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	h.WriteJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)

	appErr := &internal.AppError{
		Type:       errorTypeForStatus(status),
		Code:       errorCodeForStatus(status),
		Message:    message,
		StatusCode: status,
	}
	code, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, code, body)
}

// WriteSelectionRequired writes the 422 needs-selection envelope.
func (h *BaseHandler) WriteSelectionRequired(w http.ResponseWriter, message string, data interface{}) {
	h.WriteJSON(w, http.StatusUnprocessableEntity, SelectionResponse{
		Success:           false,
		RequiresSelection: true,
		Message:           message,
		Data:              data,
	})
}

// HandleServiceError maps AppError values to their HTTP status; anything else is a 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unhandled service error", "error", err)
		appErr = internal.NewInternalError("internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("service error", "error", err, "code", appErr.Code)
	} else {
		h.Logger.Debug("service error", "error", err, "code", appErr.Code)
	}

	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

// ParseIDParam reads a positive int64 chi URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, "invalid "+name, internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// ParsePagination reads limit/offset with the same bounds on every list endpoint.
func (h *BaseHandler) ParsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// DecodeJSON decodes the request body, reporting failures as validation errors.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

func errorTypeForStatus(status int) internal.ErrorType {
	switch status {
	case http.StatusBadRequest:
		return internal.ErrorTypeValidation
	case http.StatusUnauthorized:
		return internal.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return internal.ErrorTypeForbidden
	case http.StatusNotFound:
		return internal.ErrorTypeNotFound
	case http.StatusConflict:
		return internal.ErrorTypeConflict
	default:
		return internal.ErrorTypeInternal
	}
}

func errorCodeForStatus(status int) internal.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return internal.ErrCodeValidationFailed
	case http.StatusUnauthorized:
		return internal.ErrCodeUnauthorizedAccess
	case http.StatusForbidden:
		return internal.ErrCodeInsufficientGrants
	default:
		return internal.ErrCodeInternal
	}
}
