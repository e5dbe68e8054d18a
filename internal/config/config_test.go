package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_DRIVER", "CHECKIN_TIMEZONE", "ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %s", cfg.ListenAddr)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.CheckinTimezone != "Asia/Shanghai" {
		t.Fatalf("unexpected timezone default: %s", cfg.CheckinTimezone)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("unexpected rate limit: %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_DRIVER", "MySQL")
	t.Setenv("ALLOWED_ORIGINS", "https://jinxi.example, https://m.jinxi.example ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("LOG_COMPRESS", "true")

	cfg := Load()

	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected listen addr :9000, got %s", cfg.ListenAddr)
	}
	if cfg.DatabaseDriver != "mysql" {
		t.Fatalf("expected mysql driver, got %s", cfg.DatabaseDriver)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://m.jinxi.example" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if !cfg.LogCompress {
		t.Fatal("expected log compression enabled")
	}
}
