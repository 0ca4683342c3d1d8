package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/httputil"
)

func TestRecorder(t *testing.T) {
	ctx, rec := NewContext(context.Background())

	Success(ctx, "Item added to cart")
	Error(ctx, "Select product size")
	Info(ctx, "")
	Info(ctx, "Catalog refreshed")

	assert.Equal(t, []httputil.Notice{
		{Level: LevelSuccess, Message: "Item added to cart"},
		{Level: LevelError, Message: "Select product size"},
		{Level: LevelInfo, Message: "Catalog refreshed"},
	}, rec.Notices())
	assert.Equal(t, rec.Notices(), Notices(ctx))
}

func TestRecorder_NoRecorderInContext(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() { Success(ctx, "dropped") })
	assert.Nil(t, Notices(ctx))
}

func TestRecorder_NoticesIsACopy(t *testing.T) {
	_, rec := NewContext(context.Background())
	rec.Add(LevelInfo, "one")

	got := rec.Notices()
	got[0].Message = "changed"
	assert.Equal(t, "one", rec.Notices()[0].Message)
}

func TestMiddleware(t *testing.T) {
	var seen *Recorder
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		Success(r.Context(), "ok")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.Len(t, seen.Notices(), 1)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen.Notices(), 1, "each request gets a fresh recorder")
}
