package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Keys persisted by the storefront.
const (
	KeyCart   = "cartItems"
	KeyToken  = "userToken"
	KeyUserID = "userId"
	KeyOrders = "orders"
)

// Backend is a string key/value store. Get returns an error wrapping
// apperrors.ErrNotFound when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Store is the only component that touches persistent storage. Values are
// JSON encoded. It never returns errors to callers: read failures look like
// a missing key and write failures are logged, counted and otherwise
// ignored, leaving the previously persisted value in place.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a store on top of backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Load decodes the value stored under key into dst. It returns false when the
// key is missing or the stored value cannot be decoded.
func (s *Store) Load(ctx context.Context, key string, dst any) bool {
	raw, ok := s.LoadString(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		readFailures.WithLabelValues(key).Inc()
		s.logger.WarnContext(ctx, "discarding undecodable stored value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// Save encodes value as JSON and stores it under key.
func (s *Store) Save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.writeFailed(ctx, "save", key, err)
		return
	}
	s.SaveString(ctx, key, string(data))
}

// LoadString returns the raw string stored under key.
func (s *Store) LoadString(ctx context.Context, key string) (string, bool) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			readFailures.WithLabelValues(key).Inc()
			s.logger.ErrorContext(ctx, "failed to read from storage",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}
	return raw, true
}

// SaveString stores a raw string under key.
func (s *Store) SaveString(ctx context.Context, key, value string) {
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.writeFailed(ctx, "save", key, err)
	}
}

// Remove deletes key. A missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.writeFailed(ctx, "remove", key, err)
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) writeFailed(ctx context.Context, op, key string, err error) {
	writeFailures.WithLabelValues(op, key).Inc()
	s.logger.ErrorContext(ctx, "failed to write to storage",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
