package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestReadsOpenWithoutKeys(t *testing.T) {
	h := GatewayMiddleware(SecConfig{})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/np/RAx", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMutationsRequireAdminKeyWhenConfigured(t *testing.T) {
	cfg := SecConfig{AdminKeys: map[string]struct{}{"sekrit": {}}}
	h := GatewayMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/np", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/np", nil)
	req2.Header.Set("Authorization", "Bearer sekrit")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer key, got %d", rec2.Code)
	}

	req3 := httptest.NewRequest(http.MethodPost, "/np", nil)
	req3.Header.Set("X-API-Key", "sekrit")
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected 200 with x-api-key, got %d", rec3.Code)
	}

	// reads stay open even with admin keys configured
	req4 := httptest.NewRequest(http.MethodGet, "/nanopubs", nil)
	rec4 := httptest.NewRecorder()
	h.ServeHTTP(rec4, req4)
	if rec4.Code != http.StatusOK {
		t.Fatalf("expected 200 for read, got %d", rec4.Code)
	}
}

func TestMutationsOpenWithoutConfiguredKeys(t *testing.T) {
	h := GatewayMiddleware(SecConfig{})(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/np", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := GatewayMiddleware(SecConfig{RPS: 1, Burst: 2})(okHandler())
	got429 := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/journal", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			got429 = true
		}
	}
	if !got429 {
		t.Fatalf("burst of requests was never rate limited")
	}
}

func TestHealthProbesBypassLimits(t *testing.T) {
	h := GatewayMiddleware(SecConfig{RPS: 1, Burst: 1})(okHandler())
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("probe %d: expected 200, got %d", i, rec.Code)
		}
	}
}
