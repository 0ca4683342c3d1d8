package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCORS_OriginPolicy(t *testing.T) {
	shopUI := []string{"https://shop.example.com", "https://admin.example.com"}

	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantVary   string
	}{
		{name: "development allows any origin", cfg: CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"}, origin: "https://elsewhere.io", wantOrigin: "*"},
		{name: "development without origin header", cfg: CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"}, wantOrigin: "*"},
		{name: "explicit wildcard in production", cfg: CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, origin: "https://elsewhere.io", wantOrigin: "*"},
		{name: "listed origin echoed", cfg: CORSConfig{AllowedOrigins: shopUI, Environment: "production"}, origin: "https://shop.example.com", wantOrigin: "https://shop.example.com", wantVary: "Origin"},
		{name: "second listed origin echoed", cfg: CORSConfig{AllowedOrigins: shopUI, Environment: "production"}, origin: "https://admin.example.com", wantOrigin: "https://admin.example.com", wantVary: "Origin"},
		{name: "unlisted origin refused", cfg: CORSConfig{AllowedOrigins: shopUI, Environment: "production"}, origin: "https://elsewhere.io"},
		{name: "no origin in production", cfg: CORSConfig{AllowedOrigins: shopUI, Environment: "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveCORS(tt.cfg, http.MethodGet, tt.origin)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, rr.Header().Get("Vary"))
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rr := serveCORS(DefaultCORSConfig(), http.MethodOptions, "https://shop.example.com")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_Defaults(t *testing.T) {
	rr := serveCORS(CORSConfig{AllowedOrigins: []string{"*"}}, http.MethodGet, "")

	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Authorization, Content-Type, X-Correlation-ID", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomHeaders(t *testing.T) {
	rr := serveCORS(CORSConfig{
		AllowedOrigins:   []string{"https://shop.example.com"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		MaxAge:           600,
		AllowCredentials: true,
		Environment:      "production",
	}, http.MethodGet, "https://shop.example.com")

	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Correlation-ID", rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, []string{"X-Correlation-ID"}, cfg.ExposedHeaders)
	assert.NotContains(t, cfg.AllowedHeaders, "X-User-ID")
}
