package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost:5432/promo",
		"REDIS_URL":         "redis://localhost:6379/0",
		"APP_ENV":           "",
		"PORT":              "",
		"LOG_FORMAT":        "",
		"LOG_LEVEL":         "",
		"METRICS_NAMESPACE": "",
		"PRODUCT_CACHE_TTL": "",
		"RATE_LIMIT_WINDOW": "",
		"RATE_LIMIT_MAX":    "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("expected default env, got %q", cfg.AppEnv)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr())
	}
	if cfg.ProductCacheTTL != 10*time.Minute {
		t.Fatalf("expected default cache TTL 10m, got %v", cfg.ProductCacheTTL)
	}
	if cfg.RateLimitMax != 120 {
		t.Fatalf("expected default rate limit 120, got %d", cfg.RateLimitMax)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	if err == nil {
		t.Fatalf("expected missing DATABASE_URL to error")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost:5432/promo",
		"REDIS_URL":         "redis://localhost:6379/0",
		"PORT":              "9090",
		"RATE_LIMIT_WINDOW": "30s",
		"RATE_LIMIT_MAX":    "10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.HTTPAddr())
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %v", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMax != 10 {
		t.Fatalf("expected max 10, got %d", cfg.RateLimitMax)
	}
}
