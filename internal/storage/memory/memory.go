package memory

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Backend implements storage.Backend using an in-memory map. Nothing
// survives a restart; it serves tests and throwaway runs.
type Backend struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, apperrors.ErrNotFound)
	}
	return v, nil
}

// Set stores value under key.
func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = value
	return nil
}

// Delete removes key.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error { return nil }

// Close is a no-op.
func (b *Backend) Close() error { return nil }

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}
