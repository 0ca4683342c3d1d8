package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func TestBackend_SetGetDelete(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, err := b.Get(ctx, "userToken")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	require.NoError(t, b.Set(ctx, "userToken", "tok"))
	got, err := b.Get(ctx, "userToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, b.Delete(ctx, "userToken"))
	require.NoError(t, b.Delete(ctx, "userToken"))
	assert.Equal(t, 0, b.Len())
	assert.NoError(t, b.Ping(ctx))
	assert.NoError(t, b.Close())
}
