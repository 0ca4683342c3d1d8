package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// OrderBackend is the part of the shop backend that takes orders.
type OrderBackend interface {
	CreateOrder(ctx context.Context, token string, order domain.Order) (domain.Order, error)
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}

// PlaceOrderInput holds the checkout form.
type PlaceOrderInput struct {
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cod stripe razorpay"`
	Address       *domain.Address `json:"address"`
}

// OrderService submits the cart as an order.
type OrderService struct {
	cart     *CartService
	session  *SessionService
	backend  OrderBackend
	producer *event.Producer
	store    *storage.Store
	logger   *slog.Logger
	currency string

	// mu serializes checkouts so one cart cannot be submitted twice.
	mu sync.Mutex
}

// NewOrderService creates a new order service.
func NewOrderService(
	cart *CartService,
	session *SessionService,
	backend OrderBackend,
	producer *event.Producer,
	store *storage.Store,
	logger *slog.Logger,
	currency string,
) *OrderService {
	return &OrderService{
		cart:     cart,
		session:  session,
		backend:  backend,
		producer: producer,
		store:    store,
		logger:   logger,
		currency: currency,
	}
}

// Place submits the cart. Validation and missing credentials are reported
// before any request is made. Once the backend accepts the order the
// submitted lines are taken off the cart; anything added meanwhile stays.
func (s *OrderService) Place(ctx context.Context, input PlaceOrderInput) (domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	submitted := s.cart.Snapshot()
	if submitted.IsEmpty() {
		notify.Error(ctx, "Your cart is empty")
		return domain.Order{}, apperrors.InvalidInput("cart is empty")
	}

	token := s.session.Token()
	if token == "" {
		notify.Error(ctx, "You must be logged in to place an order.")
		return domain.Order{}, apperrors.LoginRequired("log in to place an order")
	}

	quote := s.cart.Quote(submitted)
	if len(quote.Unavailable) > 0 {
		s.logger.WarnContext(ctx, "skipping cart lines missing from the catalog",
			slog.Int("unavailable_lines", len(quote.Unavailable)),
		)
	}
	if len(quote.Lines) == 0 {
		notify.Error(ctx, "The items in your cart are no longer available")
		return domain.Order{}, apperrors.InvalidInput("cart items are unavailable")
	}

	order := domain.NewOrderFromQuote(quote, s.currency)
	order.Reference = uuid.New().String()
	order.UserID = s.session.UserID()
	order.PaymentMethod = input.PaymentMethod
	if order.PaymentMethod == "" {
		order.PaymentMethod = domain.PaymentCOD
	}
	order.Address = input.Address
	order.CreatedAt = time.Now().UTC()

	placed, err := s.backend.CreateOrder(ctx, token, order)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			s.session.Invalidate(ctx)
			return domain.Order{}, apperrors.LoginRequired("your session has expired, log in again to place the order")
		}
		s.logger.ErrorContext(ctx, "order submission failed",
			slog.String("reference", order.Reference),
			slog.String("error", err.Error()),
		)
		notify.Error(ctx, "Failed to place order. Please try again.")
		return domain.Order{}, apperrors.Upstream("ORDER_FAILED", "the order could not be placed, your cart was kept", err)
	}

	left := s.cart.settle(ctx, submitted)
	if !left.IsEmpty() {
		s.logger.InfoContext(ctx, "items added during checkout kept in cart",
			slog.Int("item_count", left.ItemCount()),
		)
	}
	s.store.Save(ctx, storage.KeyOrders, []domain.Order{placed})

	if err := s.producer.PublishOrderPlaced(ctx, placed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("reference", placed.Reference),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", placed.ID),
		slog.String("reference", placed.Reference),
		slog.Int("lines", len(placed.Items)),
		slog.String("total", placed.Total.String()),
	)
	notify.Success(ctx, "Order placed successfully!")
	return placed, nil
}

// ListOrders fetches the shopper's order history from the backend.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	token := s.session.Token()
	if token == "" {
		return nil, apperrors.LoginRequired("log in to see your orders")
	}

	orders, err := s.backend.ListOrders(ctx, token)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			s.session.Invalidate(ctx)
			return nil, apperrors.LoginRequired("your session has expired, log in again to see your orders")
		}
		s.logger.ErrorContext(ctx, "failed to fetch orders", slog.String("error", err.Error()))
		return nil, apperrors.Upstream("FETCH_FAILED", "could not load your orders", err)
	}
	return orders, nil
}

// LastOrder returns the locally mirrored last order.
func (s *OrderService) LastOrder(ctx context.Context) (domain.Order, bool) {
	var orders []domain.Order
	if !s.store.Load(ctx, storage.KeyOrders, &orders) || len(orders) == 0 {
		return domain.Order{}, false
	}
	return orders[0], true
}
