package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "REDIS_ADDR", "REDIS_DB", "SNAPSHOT_TTL", "DATABASE_URL", "RATE_LIMIT_PER_MINUTE", "LOG_LEVEL", "LOG_FORMAT", "PLAYER_TOKEN_SECRET", "PLAYER_TOKEN_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.AppPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.AppPort)
	}
	if cfg.SnapshotTTL != 24*time.Hour {
		t.Fatalf("expected 24h snapshot ttl, got %v", cfg.SnapshotTTL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected 120 rpm, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.RedisAddr != "" || cfg.DatabaseURL != "" {
		t.Fatalf("expected optional backends disabled by default")
	}
	if cfg.LogJSON {
		t.Fatalf("expected text logs by default")
	}
	if cfg.PlayerTokenSecret != "" || cfg.PlayerTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token defaults: %q %v", cfg.PlayerTokenSecret, cfg.PlayerTokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SNAPSHOT_TTL", "2h")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("PLAYER_TOKEN_SECRET", "s3cret")
	t.Setenv("PLAYER_TOKEN_TTL", "6h")

	cfg := Load()
	if cfg.AppPort != "9000" || cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SnapshotTTL != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", cfg.SnapshotTTL)
	}
	if !cfg.LogJSON {
		t.Fatalf("expected json logs")
	}
	if cfg.PlayerTokenSecret != "s3cret" || cfg.PlayerTokenTTL != 6*time.Hour {
		t.Fatalf("unexpected token config: %q %v", cfg.PlayerTokenSecret, cfg.PlayerTokenTTL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("invalid value must fall back to default, got %d", cfg.RateLimitPerMinute)
	}
}
