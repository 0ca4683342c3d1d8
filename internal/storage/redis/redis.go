package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Backend implements storage.Backend using Redis. Every key is stored under
// a prefix so several storefronts can share one database.
type Backend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed store. A zero ttl keeps values forever.
func New(client *redis.Client, prefix string, ttl time.Duration) *Backend {
	return &Backend{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.client.Get(ctx, b.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("key %q: %w", key, apperrors.ErrNotFound)
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Set stores value under key with the configured TTL.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, b.prefix+key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (b *Backend) Close() error {
	return b.client.Close()
}
