package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/file"
	"github.com/utafrali/storefront/internal/storage/memory"
	redisstore "github.com/utafrali/storefront/internal/storage/redis"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "storefront"

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *storage.Store
	producer       *pkgkafka.Producer
	breaker        *httpclient.CircuitBreakerClient
	services       handler.Services
	router         http.Handler
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stop           context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// Persisted state is rehydrated and the catalog is fetched once; a catalog
// failure is logged and leaves the storefront running with an empty catalog.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Local persistence.
	storeBackend, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store := storage.New(storeBackend, logger)

	// Kafka producer, only when brokers are configured.
	var producer *pkgkafka.Producer
	if cfg.EventsEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(producer, logger)

	// Shop backend client with circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.BackendTimeoutSeconds) * time.Second,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         backend.ServiceName,
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(backend.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	client, err := backend.NewClient(cbClient, cfg.BackendURL, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	// Build the dependency graph.
	catalog := service.NewCatalogService(client, logger)
	session := service.NewSessionService(store, client, logger)
	cart := service.NewCartService(store, catalog, logger, cfg.Currency, cfg.DeliveryFee)
	svc := handler.Services{
		Catalog: catalog,
		Cart:    cart,
		Session: session,
		Orders:  service.NewOrderService(cart, session, client, eventProducer, store, logger, cfg.Currency),
		Ratings: service.NewRatingService(session, client, eventProducer, logger),
	}

	session.Rehydrate(ctx)
	cart.Rehydrate(ctx)
	if err := catalog.Refresh(ctx); err != nil {
		logger.Warn("initial catalog fetch failed",
			slog.String("backend_url", client.BaseURL()),
			slog.String("error", err.Error()),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("storage", store.Ping)
	healthHandler.RegisterNonCritical(backend.ServiceName, func(context.Context) error {
		if cbClient.State() == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker %s is open", cbClient.Name())
		}
		return nil
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router. runCtx bounds background work owned by the middleware.
	runCtx, stop := context.WithCancel(context.Background())
	router := handler.NewRouter(runCtx, svc, healthHandler, logger, handler.Options{
		Currency:            cfg.Currency,
		CatalogCacheSeconds: cfg.CatalogCacheSeconds,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		RequestTimeout: 30 * time.Second,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		producer:       producer,
		breaker:        cbClient,
		services:       svc,
		router:         router,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stop:           stop,
	}, nil
}

// openStore builds the storage backend selected by STORE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return redisstore.New(rdb, cfg.RedisKeyPrefix, time.Duration(cfg.RedisTTLHours)*time.Hour), nil
	case config.StoreMemory:
		logger.Warn("using in-memory store, state will not survive a restart")
		return memory.New(), nil
	default:
		b, err := file.Open(cfg.StorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		logger.Info("opened file store", slog.String("path", cfg.StorePath))
		return b, nil
	}
}

// Handler returns the HTTP handler serving the storefront API.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, then the store.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stop()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
