package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

// ServiceName labels backend errors, logs and the circuit breaker.
const ServiceName = "shop-backend"

// Backend endpoints.
const (
	pathProducts = "/products/"
	pathOrders   = "/orders/"
	pathRatings  = "/ratings/create/"
	pathLogin    = "/api/user/login/"
	pathRegister = "/api/user/register/"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback answers for the backend while the circuit breaker is
// open, so callers get a structured error instead of the raw breaker error.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("the shop backend is temporarily unavailable, please retry shortly")
}

// Client talks to the shop backend's REST API. Non-2xx answers come back as
// *httpclient.StatusError, which unwraps to the matching apperrors sentinel.
type Client struct {
	http    HTTPDoer
	baseURL *url.URL
	logger  *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	return &Client{
		http:    doer,
		baseURL: u,
		logger:  logger,
	}, nil
}

// BaseURL returns the backend root the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var payload []productPayload
	if err := c.doJSON(ctx, "backend.ListProducts", http.MethodGet, pathProducts, "", nil, &payload); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, p.toDomain(c.baseURL))
	}
	return products, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var payload productPayload
	path := pathProducts + url.PathEscape(id) + "/"
	if err := c.doJSON(ctx, "backend.GetProduct", http.MethodGet, path, "", nil, &payload); err != nil {
		return domain.Product{}, err
	}
	return payload.toDomain(c.baseURL), nil
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, creds Credentials) (Tokens, error) {
	var tokens Tokens
	if err := c.doJSON(ctx, "backend.Login", http.MethodPost, pathLogin, "", creds, &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.Access == "" {
		return Tokens{}, fmt.Errorf("login response carried no access token")
	}
	return tokens, nil
}

// Register creates an account and returns the backend's message, if any.
func (c *Client) Register(ctx context.Context, form Registration) (string, error) {
	var msg messagePayload
	if err := c.doJSON(ctx, "backend.Register", http.MethodPost, pathRegister, "", form, &msg); err != nil {
		return "", err
	}
	if msg.Message != "" {
		return msg.Message, nil
	}
	return msg.Detail, nil
}

// CreateOrder submits an order with the shopper's bearer token. The returned
// order carries the backend id when the backend reports one.
func (c *Client) CreateOrder(ctx context.Context, token string, order domain.Order) (domain.Order, error) {
	var created orderPayload
	if err := c.doJSON(ctx, "backend.CreateOrder", http.MethodPost, pathOrders, token, newOrderRequest(order), &created); err != nil {
		return domain.Order{}, err
	}
	order.ID = string(created.ID)
	if created.Status != "" {
		order.Status = created.Status
	}
	return order, nil
}

// ListOrders fetches the shopper's order history.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var payload []orderPayload
	if err := c.doJSON(ctx, "backend.ListOrders", http.MethodGet, pathOrders, token, nil, &payload); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(payload))
	for _, p := range payload {
		orders = append(orders, p.toDomain(c.baseURL))
	}
	return orders, nil
}

// CreateRating posts a rating as a multipart form.
func (c *Client) CreateRating(ctx context.Context, token string, r Rating) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := r.fields()
	for _, name := range []string{"rating", "user", "product"} {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return fmt.Errorf("write rating field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close rating form: %w", err)
	}

	ctx, span := tracing.Tracer("storefront/backend").Start(ctx, "backend.CreateRating")
	defer span.End()

	req, err := c.newRequest(ctx, http.MethodPost, pathRatings, token, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// doJSON sends an optional JSON body and decodes a JSON answer into out.
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, in, out any) error {
	ctx, span := tracing.Tracer("storefront/backend").Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("backend.path", path))

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		span.SetStatus(codes.Error, "undecodable response")
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)
	return req, nil
}

// send executes req and turns any non-2xx answer into a *httpclient.StatusError.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("call %s: %w", ServiceName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := httpclient.ParseResponseError(resp, ServiceName)
		c.logger.WarnContext(ctx, "backend rejected request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, statusErr
	}
	return resp, nil
}
