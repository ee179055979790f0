package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imperionite/fm-core/internal/domain"
	"github.com/imperionite/fm-core/internal/service"
)

type OrdersHandler struct {
	orders  service.OrderService
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrdersHandler(orders service.OrderService, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		logger:  logger,
	}
}

type PayRequestDTO struct {
	Method      string `json:"method"`
	ReferenceID string `json:"reference_id,omitempty"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, user)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, user, orderID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /orders/checkout
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	order, err := h.orders.Checkout(ctx, user)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// POST /orders/{order_id}/pay
func (h *OrdersHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req PayRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.Pay(ctx, user, orderID, domain.PaymentMethod(req.Method), req.ReferenceID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PATCH /orders/{order_id}/update_status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, user, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "order_id")
	orderID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return orderID, true
}
