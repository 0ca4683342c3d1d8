package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// RelatedLimit caps the related products shown on a product page.
const RelatedLimit = 5

// CatalogBackend is the part of the shop backend the catalog reads from.
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// ProductDetail is the product page view.
type ProductDetail struct {
	Product domain.Product   `json:"product"`
	Sizes   []string         `json:"sizes"`
	Related []domain.Product `json:"related"`
}

// CatalogService holds the catalog snapshot the cart is priced against.
type CatalogService struct {
	backend CatalogBackend
	logger  *slog.Logger

	mu        sync.RWMutex
	products  []domain.Product
	lookup    domain.ProductLookup
	refreshed time.Time
}

// NewCatalogService creates a catalog with an empty snapshot.
func NewCatalogService(backend CatalogBackend, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		backend: backend,
		logger:  logger,
		lookup:  domain.LookupFrom(nil),
	}
}

// Refresh replaces the snapshot with the backend's product list. On failure
// the previous snapshot is kept as is.
func (s *CatalogService) Refresh(ctx context.Context) error {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh catalog, keeping previous snapshot",
			slog.Int("snapshot_size", s.Len()),
			slog.String("error", err.Error()),
		)
		return fetchFailed(err)
	}

	s.mu.Lock()
	s.products = products
	s.lookup = domain.LookupFrom(products)
	s.refreshed = time.Now().UTC()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "catalog refreshed", slog.Int("products", len(products)))
	return nil
}

// Products returns a copy of the snapshot.
func (s *CatalogService) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Len returns the number of products in the snapshot.
func (s *CatalogService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// RefreshedAt returns when the snapshot was last loaded, zero if never.
func (s *CatalogService) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

// Lookup resolves product ids against the current snapshot.
func (s *CatalogService) Lookup() domain.ProductLookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup
}

// Get fetches one product from the backend.
func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, apperrors.InvalidInput("product id is required")
	}
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Product{}, apperrors.NotFound("product", id)
		}
		s.logger.ErrorContext(ctx, "failed to fetch product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return domain.Product{}, fetchFailed(err)
	}
	return p, nil
}

// List filters, sorts and paginates the snapshot.
func (s *CatalogService) List(filter domain.CollectionFilter, params pagination.Params) (pagination.Result[domain.Product], error) {
	if filter.Sort != "" && !domain.ValidSort(filter.Sort) {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput("sort must be one of relevant, low-high, high-low")
	}
	return pagination.Paginate(filter.Apply(s.Products()), params), nil
}

// Detail builds the product page: the product itself, the sizes on offer and
// up to RelatedLimit products from the same category.
func (s *CatalogService) Detail(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{
		Product: p,
		Sizes:   p.AvailableSizes(),
		Related: domain.Related(p, s.Products(), RelatedLimit),
	}, nil
}

func fetchFailed(err error) error {
	return apperrors.Upstream("FETCH_FAILED", "could not load products from the shop backend", err)
}
