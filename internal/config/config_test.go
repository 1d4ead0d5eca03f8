package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != ":8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.JWTSecret != "" {
		t.Fatalf("expected auth disabled by default")
	}
	if !cfg.GeocoderEnabled || cfg.GeocoderTimeout != 10*time.Second {
		t.Fatalf("unexpected geocoder defaults %+v", cfg)
	}

	dev := cfg.Device()
	if !dev.PermissionFine || !dev.PromptGrants || !dev.DialogAccepts || dev.HighAccuracy {
		t.Fatalf("unexpected device defaults %+v", dev)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEOCODER_ENABLED", "false")
	t.Setenv("GEOCODER_TIMEOUT", "2s")
	t.Setenv("DEVICE_PERMISSION_PROMPT", "deny")
	t.Setenv("DEVICE_SETTINGS_DIALOG", "decline")
	t.Setenv("DEVICE_NETWORK_PROVIDER", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.Port != ":9000" || cfg.JWTSecret != "secret" {
		t.Fatalf("expected overrides, got %+v", cfg)
	}
	if cfg.GeocoderEnabled || cfg.GeocoderTimeout != 2*time.Second {
		t.Fatalf("expected geocoder overrides, got %+v", cfg)
	}

	dev := cfg.Device()
	if dev.PromptGrants || dev.DialogAccepts || !dev.NetworkProvider {
		t.Fatalf("expected device overrides, got %+v", dev)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Level())
	}
}

func TestLevelFallback(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	if cfg.Level() != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
}
