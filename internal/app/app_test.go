package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"nanopubd/pkg/config"
)

func TestNewAndReadiness(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.PageSize = 10
	eff := config.EffectiveConfigResult{
		Config: cfg,
		Addr:   "127.0.0.1:0",
		DBPath: filepath.Join(t.TempDir(), "np-db"),
	}

	a, err := New(eff, "test", "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.shutdown()

	rec := httptest.NewRecorder()
	a.readyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	healthzHandler(rec2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec2.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec2.Code)
	}
}

func TestNewRequiresDBPath(t *testing.T) {
	if _, err := New(config.EffectiveConfigResult{Config: &config.Config{}}, "test", "", ""); err == nil {
		t.Fatalf("expected error for missing db path")
	}
}
