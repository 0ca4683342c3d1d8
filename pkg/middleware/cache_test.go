package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl_GetOnly(t *testing.T) {
	handler := CacheControl(60)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, "public, max-age=60", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil))
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestCacheControl_ZeroDisables(t *testing.T) {
	rr := httptest.NewRecorder()
	CacheControl(0)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
