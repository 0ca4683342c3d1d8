package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "storefront:", ttl), mr
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestBackend_Get_Success(t *testing.T) {
	b, mr := setupTestRedis(t, 0)

	require.NoError(t, mr.Set("storefront:cartItems", `{"1":{"M":2}}`))

	got, err := b.Get(context.Background(), "cartItems")
	require.NoError(t, err)
	assert.Equal(t, `{"1":{"M":2}}`, got)
}

func TestBackend_Get_NotFound(t *testing.T) {
	b, _ := setupTestRedis(t, 0)

	_, err := b.Get(context.Background(), "cartItems")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestBackend_Get_ConnectionError(t *testing.T) {
	b, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := b.Get(context.Background(), "cartItems")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

func TestBackend_Set_UsesPrefix(t *testing.T) {
	b, mr := setupTestRedis(t, 0)

	require.NoError(t, b.Set(context.Background(), "userToken", "tok"))

	got, err := mr.Get("storefront:userToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Zero(t, mr.TTL("storefront:userToken"))
}

func TestBackend_Set_AppliesTTL(t *testing.T) {
	b, mr := setupTestRedis(t, 24*time.Hour)

	require.NoError(t, b.Set(context.Background(), "cartItems", "{}"))

	assert.Equal(t, 24*time.Hour, mr.TTL("storefront:cartItems"))

	mr.FastForward(25 * time.Hour)
	_, err := b.Get(context.Background(), "cartItems")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestBackend_Set_Overwrites(t *testing.T) {
	b, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "userToken", "one"))
	require.NoError(t, b.Set(ctx, "userToken", "two"))

	got, err := b.Get(ctx, "userToken")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

// ---------------------------------------------------------------------------
// Delete / Ping
// ---------------------------------------------------------------------------

func TestBackend_Delete(t *testing.T) {
	b, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "userToken", "tok"))
	require.NoError(t, b.Delete(ctx, "userToken"))
	assert.False(t, mr.Exists("storefront:userToken"))

	// Deleting a missing key succeeds.
	require.NoError(t, b.Delete(ctx, "userToken"))
}

func TestBackend_Ping(t *testing.T) {
	b, mr := setupTestRedis(t, 0)
	assert.NoError(t, b.Ping(context.Background()))

	mr.Close()
	assert.Error(t, b.Ping(context.Background()))
}
