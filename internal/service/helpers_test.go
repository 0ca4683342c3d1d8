package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/memory"
)

// --- Mock backends ---

type mockCatalogBackend struct {
	mock.Mock
}

func (m *mockCatalogBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogBackend) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type mockAuthBackend struct {
	mock.Mock
}

func (m *mockAuthBackend) Login(ctx context.Context, creds backend.Credentials) (backend.Tokens, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(backend.Tokens), args.Error(1)
}

func (m *mockAuthBackend) Register(ctx context.Context, form backend.Registration) (string, error) {
	args := m.Called(ctx, form)
	return args.String(0), args.Error(1)
}

type mockOrderBackend struct {
	mock.Mock
}

func (m *mockOrderBackend) CreateOrder(ctx context.Context, token string, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, token, order)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderBackend) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockRatingBackend struct {
	mock.Mock
}

func (m *mockRatingBackend) CreateRating(ctx context.Context, token string, r backend.Rating) error {
	return m.Called(ctx, token, r).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() (*storage.Store, *memory.Backend) {
	mem := memory.New()
	return storage.New(mem, newTestLogger()), mem
}

// staticCatalog prices carts against a fixed product list.
type staticCatalog []domain.Product

func (c staticCatalog) Lookup() domain.ProductLookup {
	return domain.LookupFrom(c)
}

func product(id, price string) domain.Product {
	p, err := domain.ParseMoney(price)
	if err != nil {
		panic(err)
	}
	return domain.Product{ID: id, Name: "Product " + id, Price: p, Images: []string{"http://img/" + id + ".jpg"}}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func noEvents() *event.Producer {
	return event.NewProducer(nil, newTestLogger())
}
