package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mimhaad/finance-ledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.FloatClearingCode != "2999" || cfg.RabbitMQExchange != "gl.events" {
		t.Fatalf("unexpected ledger defaults: clearing=%s exchange=%s", cfg.FloatClearingCode, cfg.RabbitMQExchange)
	}

	if len(cfg.RequiredAccountCodes) != 0 {
		t.Fatalf("expected no required codes by default, got %v", cfg.RequiredAccountCodes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("GL_REQUIRED_ACCOUNT_CODES", "1001,4001,2999")
	t.Setenv("FLOAT_SYNC_INTERVAL", "5m")

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	if len(cfg.RequiredAccountCodes) != 3 || cfg.RequiredAccountCodes[2] != "2999" {
		t.Fatalf("expected 3 required codes, got %v", cfg.RequiredAccountCodes)
	}

	if cfg.FloatSyncInterval != 5*time.Minute {
		t.Fatalf("expected float sync interval override, got %s", cfg.FloatSyncInterval)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("RABBITMQ_EXCHANGE=ledger.test\nHTTP_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// The environment takes precedence over the file.
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("RABBITMQ_EXCHANGE", "")
	os.Unsetenv("RABBITMQ_EXCHANGE")

	cfg, err := config.LoadFiles(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.RabbitMQExchange != "ledger.test" {
		t.Fatalf("expected exchange from .env, got %s", cfg.RabbitMQExchange)
	}
	if cfg.HTTPPort != "9191" {
		t.Fatalf("expected environment to win, got %s", cfg.HTTPPort)
	}
}

func TestLoadMissingDotEnvIgnored(t *testing.T) {
	if _, err := config.LoadFiles(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.LoadFiles(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
