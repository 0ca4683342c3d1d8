package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	cart   *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:   cart,
		logger: logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding one unit to the cart.
// A missing size is reported by the cart itself so the shopper gets a toast.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}

// CartResponse is returned by every cart mutation.
type CartResponse struct {
	Items     domain.Cart  `json:"items"`
	ItemCount int          `json:"item_count"`
	Total     domain.Money `json:"total"`
}

func (h *CartHandler) cartResponse(c domain.Cart) CartResponse {
	return CartResponse{
		Items:     c,
		ItemCount: c.ItemCount(),
		Total:     h.cart.Price(c),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.cart.View(r.Context()))
}

// GetCount handles GET /api/v1/cart/count
func (h *CartHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, map[string]int{"count": h.cart.Count()})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.cart.Add(r.Context(), req.ProductID, req.Size)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, h.cartResponse(c))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}/{size}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.cart.SetQuantity(r.Context(), chi.URLParam(r, "productId"), chi.URLParam(r, "size"), *req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, h.cartResponse(c))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}/{size}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c := h.cart.Remove(r.Context(), chi.URLParam(r, "productId"), chi.URLParam(r, "size"))
	writeData(w, r, http.StatusOK, h.cartResponse(c))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.cart.Clear(r.Context())
	writeData(w, r, http.StatusOK, h.cartResponse(c))
}
