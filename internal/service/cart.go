package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Catalog resolves cart lines to products at read time.
type Catalog interface {
	Lookup() domain.ProductLookup
}

// CartView is the cart page: the priced quote plus the raw quantities.
type CartView struct {
	domain.Quote
	Items    domain.Cart `json:"items"`
	Currency string      `json:"currency"`
}

// CartService owns the shopper's cart. Every mutation is written through to
// the store before the lock is released and returns the new snapshot.
type CartService struct {
	store       *storage.Store
	catalog     Catalog
	logger      *slog.Logger
	currency    string
	deliveryFee domain.Money

	mu   sync.Mutex
	cart domain.Cart
}

// NewCartService creates a service holding an empty cart.
func NewCartService(store *storage.Store, catalog Catalog, logger *slog.Logger, currency string, deliveryFee domain.Money) *CartService {
	return &CartService{
		store:       store,
		catalog:     catalog,
		logger:      logger,
		currency:    currency,
		deliveryFee: deliveryFee,
		cart:        domain.NewCart(),
	}
}

// Rehydrate loads the persisted cart. A missing or unreadable document
// yields an empty cart.
func (s *CartService) Rehydrate(ctx context.Context) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c domain.Cart
	if !s.store.Load(ctx, storage.KeyCart, &c) {
		c = domain.NewCart()
	}
	s.cart = c
	s.logger.InfoContext(ctx, "cart rehydrated",
		slog.Int("lines", c.Len()),
		slog.Int("item_count", c.ItemCount()),
	)
	return c
}

// Snapshot returns the current cart.
func (s *CartService) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Add puts one unit of productID in size into the cart.
func (s *CartService) Add(ctx context.Context, productID, size string) (domain.Cart, error) {
	if productID == "" || size == "" {
		notify.Error(ctx, "Select product size")
		return s.Snapshot(), apperrors.InvalidInput("select product size")
	}

	s.mu.Lock()
	if s.cart.Quantity(productID, size) >= domain.MaxLineQuantity {
		c := s.cart
		s.mu.Unlock()
		notify.Error(ctx, "Maximum quantity reached")
		return c, errQuantityTooLarge()
	}
	s.cart = s.cart.Add(productID, size)
	s.persistLocked(ctx)
	c := s.cart
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", productID),
		slog.String("size", size),
		slog.Int("quantity", c.Quantity(productID, size)),
	)
	notify.Success(ctx, "Item added to cart!")
	return c, nil
}

// Remove takes one unit of productID in size out of the cart. Removing an
// absent line changes nothing and writes nothing.
func (s *CartService) Remove(ctx context.Context, productID, size string) domain.Cart {
	s.mu.Lock()
	next, removed := s.cart.Remove(productID, size)
	if !removed {
		c := s.cart
		s.mu.Unlock()
		return c
	}
	s.cart = next
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("product_id", productID),
		slog.String("size", size),
	)
	notify.Success(ctx, "Item removed from cart!")
	return next
}

// SetQuantity sets the quantity of a line. A quantity of zero or less
// deletes the line.
func (s *CartService) SetQuantity(ctx context.Context, productID, size string, qty int) (domain.Cart, error) {
	if productID == "" || size == "" {
		notify.Error(ctx, "Select product size")
		return s.Snapshot(), apperrors.InvalidInput("select product size")
	}
	if qty > domain.MaxLineQuantity {
		notify.Error(ctx, "Maximum quantity reached")
		return s.Snapshot(), errQuantityTooLarge()
	}

	s.mu.Lock()
	if qty <= 0 && !s.cart.Has(productID, size) {
		c := s.cart
		s.mu.Unlock()
		return c, nil
	}
	s.cart = s.cart.SetQuantity(productID, size, qty)
	s.persistLocked(ctx)
	c := s.cart
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("product_id", productID),
		slog.String("size", size),
		slog.Int("quantity", qty),
	)
	if qty <= 0 {
		notify.Success(ctx, "Item removed from cart!")
	} else {
		notify.Success(ctx, "Quantity updated!")
	}
	return c, nil
}

// Clear empties the cart and deletes the persisted copy.
func (s *CartService) Clear(ctx context.Context) domain.Cart {
	s.clear(ctx)
	s.logger.InfoContext(ctx, "cart cleared")
	notify.Success(ctx, "Cart cleared!")
	return domain.NewCart()
}

// Count returns the number of units in the cart.
func (s *CartService) Count() int {
	return s.Snapshot().ItemCount()
}

// Total prices the cart against the catalog snapshot.
func (s *CartService) Total() domain.Money {
	return s.Price(s.Snapshot())
}

// Price totals c against the catalog snapshot.
func (s *CartService) Price(c domain.Cart) domain.Money {
	return c.Total(s.catalog.Lookup())
}

// Quote prices c including the delivery fee.
func (s *CartService) Quote(c domain.Cart) domain.Quote {
	return domain.QuoteCart(c, s.catalog.Lookup(), s.deliveryFee)
}

// View builds the cart page.
func (s *CartService) View(ctx context.Context) CartView {
	c := s.Snapshot()
	q := s.Quote(c)
	if len(q.Unavailable) > 0 {
		s.logger.WarnContext(ctx, "cart holds products missing from the catalog",
			slog.Int("unavailable_lines", len(q.Unavailable)),
		)
	}
	return CartView{Quote: q, Items: c, Currency: s.currency}
}

// clear empties the cart and deletes the persisted copy without notifying.
func (s *CartService) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = domain.NewCart()
	s.store.Remove(ctx, storage.KeyCart)
}

// settle takes a submitted snapshot off the cart after checkout. Units added
// while the order was in flight stay; the persisted copy is removed once
// nothing is left.
func (s *CartService) settle(ctx context.Context, submitted domain.Cart) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Subtract(submitted)
	if s.cart.IsEmpty() {
		s.store.Remove(ctx, storage.KeyCart)
	} else {
		s.persistLocked(ctx)
	}
	return s.cart
}

func errQuantityTooLarge() error {
	return apperrors.InvalidInput(fmt.Sprintf("quantity cannot exceed %d", domain.MaxLineQuantity))
}

func (s *CartService) persistLocked(ctx context.Context) {
	s.store.Save(ctx, storage.KeyCart, s.cart)
}
