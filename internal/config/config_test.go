package config

import (
	"testing"
	"time"
)

func TestLoadRequiresIssuer(t *testing.T) {
	t.Setenv("AUTH_ISSUER_URL", "")
	t.Setenv("AUTH_STUB", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when AUTH_ISSUER_URL is unset and stub auth is off")
	}
}

func TestLoadStubAuthSkipsIssuer(t *testing.T) {
	t.Setenv("AUTH_STUB", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Auth.Stub {
		t.Error("expected stub auth to be enabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_STUB", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("expected default max conns 25, got %d", cfg.Database.MaxConns)
	}
	if cfg.Push.Provider != "console" {
		t.Errorf("expected default push provider console, got %q", cfg.Push.Provider)
	}
	if cfg.Push.Timeout != 10*time.Second {
		t.Errorf("expected default push timeout 10s, got %v", cfg.Push.Timeout)
	}
	if cfg.Email.Provider != "" {
		t.Errorf("expected email disabled by default, got %q", cfg.Email.Provider)
	}
	if cfg.Notifications.TTLDays != 0 {
		t.Errorf("expected expiry disabled by default, got %d", cfg.Notifications.TTLDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_ISSUER_URL", "https://issuer.example.com")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PUSH_PROVIDER", "fcm")
	t.Setenv("FCM_SERVER_KEY", "secret")
	t.Setenv("NOTIF_TTL_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.IssuerURL != "https://issuer.example.com" {
		t.Errorf("unexpected issuer: %q", cfg.Auth.IssuerURL)
	}
	if cfg.Push.Provider != "fcm" || cfg.Push.ServerKey != "secret" {
		t.Errorf("unexpected push config: %+v", cfg.Push)
	}
	if cfg.Notifications.TTLDays != 30 {
		t.Errorf("expected TTL 30 days, got %d", cfg.Notifications.TTLDays)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "pw",
		DBName:   "clanimo",
		SSLMode:  "require",
	}

	want := "postgres://app:pw@db.internal:5433/clanimo?sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	if got := cfg.Addr(); got != "cache.internal:6380" {
		t.Errorf("unexpected addr: %q", got)
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_STUB", "true")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Server.Port)
	}
}
