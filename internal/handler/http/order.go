package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// OrderHandler handles checkout and order history.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// PlaceOrder handles POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orders.Place(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, orders)
}

// LastOrder handles GET /api/v1/orders/last
func (h *OrderHandler) LastOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.orders.LastOrder(r.Context())
	if !ok {
		writeError(w, r, &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: "no order has been placed yet",
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, order)
}
