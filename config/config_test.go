package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DiscoveryWorkers != 20 {
		t.Errorf("DiscoveryWorkers: got %d, want 20", cfg.DiscoveryWorkers)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout: got %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.MaxPages != 50 {
		t.Errorf("MaxPages: got %d, want 50", cfg.MaxPages)
	}
	if cfg.RateLimitCooldown != 5*time.Second {
		t.Errorf("RateLimitCooldown: got %v, want 5s", cfg.RateLimitCooldown)
	}
	if cfg.NullMarker != "None" {
		t.Errorf("NullMarker: got %q, want None", cfg.NullMarker)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DISCOVERY_WORKERS", "7")
	t.Setenv("PAGE_DELAY_MAX_MS", "900")
	t.Setenv("FETCH_BACKEND", "Browser")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("MAX_PAGES", "not-a-number")

	cfg := Load()

	if cfg.DiscoveryWorkers != 7 {
		t.Errorf("DiscoveryWorkers: got %d, want 7", cfg.DiscoveryWorkers)
	}
	if cfg.PageDelayMax != 900*time.Millisecond {
		t.Errorf("PageDelayMax: got %v, want 900ms", cfg.PageDelayMax)
	}
	if cfg.FetchBackend != BackendBrowser {
		t.Errorf("FetchBackend: got %q, want %q", cfg.FetchBackend, BackendBrowser)
	}
	if !cfg.PostgresEnabled {
		t.Error("PostgresEnabled should be true")
	}
	if cfg.MaxPages != 50 {
		t.Errorf("unparseable MAX_PAGES should fall back to 50, got %d", cfg.MaxPages)
	}
}

func TestValidateRejectsUnknownPhase(t *testing.T) {
	t.Setenv("RUN_PHASE", "publish")
	if err := Load().Validate(); err == nil {
		t.Error("expected error for unknown RUN_PHASE")
	}
}
