package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/imperionite/fm-core/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service sentinels to the contractual status codes.
// Unknown errors become an opaque 500; the detail stays in the logs.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingServiceID):
		respondError(w, http.StatusBadRequest, "missing_service_id", "service_id is required")
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrOrderNotPayable):
		respondError(w, http.StatusBadRequest, "order_not_payable", "order cannot be paid in its current state")
	case errors.Is(err, service.ErrInvalidMethod):
		respondError(w, http.StatusBadRequest, "invalid_method", "unsupported payment method")
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "permission_denied", "not allowed to act on this order")
	case errors.Is(err, service.ErrTransitionDenied):
		respondError(w, http.StatusForbidden, "transition_denied", "status transition not allowed")
	case errors.Is(err, service.ErrDuplicateItem):
		respondError(w, http.StatusConflict, "duplicate_item", "service is already in the cart")
	case errors.Is(err, service.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, service.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not found in cart")
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, service.ErrServiceNotFound):
		respondError(w, http.StatusNotFound, "service_not_found", "service not found in catalog")
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
