package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogHandler handles product browsing and rating endpoints.
type CatalogHandler struct {
	catalog  *service.CatalogService
	ratings  *service.RatingService
	currency string
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(catalog *service.CatalogService, ratings *service.RatingService, currency string, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		ratings:  ratings,
		currency: currency,
		logger:   logger,
	}
}

// RatingRequest is the JSON request body for rating a product. A zero rating
// means nothing was selected.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// CollectionResponse is a page of the filtered catalog.
type CollectionResponse struct {
	pagination.Result[domain.Product]
	Currency string `json:"currency"`
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.CollectionFilter{
		Search:     q.Get("q"),
		Categories: q["category"],
		Sort:       q.Get("sort"),
	}

	page, err := h.catalog.List(filter, pagination.FromRequest(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, CollectionResponse{Result: page, Currency: h.currency})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, detail)
}

// RateProduct handles POST /api/v1/products/{id}/ratings
func (h *CatalogHandler) RateProduct(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	productID := chi.URLParam(r, "id")
	if err := h.ratings.Submit(r.Context(), productID, req.Rating); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusCreated, map[string]any{"product_id": productID, "rating": req.Rating})
}

// Refresh handles POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"products":     h.catalog.Len(),
		"refreshed_at": h.catalog.RefreshedAt().Format(time.RFC3339),
	})
}
