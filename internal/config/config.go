package config

import (
	"fmt"
	"net/url"

	"github.com/utafrali/storefront/internal/domain"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Storage backends accepted by STORE_BACKEND.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Shop backend. A zero timeout means requests are not cut short.
	BackendURL            string `env:"BACKEND_URL" envDefault:"http://127.0.0.1:8000"`
	BackendTimeoutSeconds int    `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"0"`
	BackendMaxRetries     int    `env:"BACKEND_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker settings for backend calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Local persistence
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	StorePath    string `env:"STORE_PATH" envDefault:"storefront-data.json"`

	// Redis (STORE_BACKEND=redis)
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass      string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"storefront:"`
	RedisTTLHours  int    `env:"REDIS_TTL_HOURS" envDefault:"0"`

	// Kafka. Activity events are disabled when no broker is configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Pricing display
	Currency    string       `env:"CURRENCY" envDefault:"$"`
	DeliveryFee domain.Money `env:"DELIVERY_FEE" envDefault:"10.00"`

	// Inbound protection
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Max-age for catalog responses, in seconds. 0 disables caching headers.
	CatalogCacheSeconds int `env:"CATALOG_CACHE_SECONDS" envDefault:"60"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("invalid BACKEND_URL %q: %w", c.BackendURL, err)
	}
	if c.BackendTimeoutSeconds < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_SECONDS must not be negative, got %d", c.BackendTimeoutSeconds)
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative, got %d", c.BackendMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	switch c.StoreBackend {
	case StoreFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be one of file, redis, memory", c.StoreBackend)
	}
	if c.RedisTTLHours < 0 {
		return fmt.Errorf("REDIS_TTL_HOURS must not be negative, got %d", c.RedisTTLHours)
	}
	if c.DeliveryFee < 0 {
		return fmt.Errorf("DELIVERY_FEE must not be negative, got %s", c.DeliveryFee)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.CatalogCacheSeconds < 0 {
		return fmt.Errorf("CATALOG_CACHE_SECONDS must not be negative, got %d", c.CatalogCacheSeconds)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// EventsEnabled reports whether activity events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
