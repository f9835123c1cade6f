package config

import (
	"net/http"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/accounts")
	t.Setenv("SESSION_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "5000" {
		t.Fatalf("expected port 5000, got %s", cfg.HTTPPort)
	}
	if cfg.SessionCookieName != "session" {
		t.Fatalf("expected cookie name session, got %s", cfg.SessionCookieName)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL())
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SameSite() != http.SameSiteLaxMode {
		t.Fatalf("expected lax samesite, got %v", cfg.SameSite())
	}
	if cfg.GoogleEnabled() {
		t.Fatalf("expected google disabled without credentials")
	}

	maxConns, minConns := cfg.DBPoolSize()
	if maxConns != 10 || minConns != 1 {
		t.Fatalf("unexpected pool size %d/%d", maxConns, minConns)
	}
	if cfg.DBMaxConnLifetime() != 30*time.Minute || cfg.DBMaxConnIdleTime() != 5*time.Minute {
		t.Fatalf("unexpected conn lifetimes %s/%s", cfg.DBMaxConnLifetime(), cfg.DBMaxConnIdleTime())
	}
	if cfg.DBHealthCheckPeriod() != 30*time.Second || cfg.DBConnectTimeout() != 5*time.Second {
		t.Fatalf("unexpected db timings %s/%s", cfg.DBHealthCheckPeriod(), cfg.DBConnectTimeout())
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing required values")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/accounts")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("SESSION_COOKIE_SAMESITE", "None")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_MIN_CONNS", "5")
	t.Setenv("DB_CONNECT_TIMEOUT_SECONDS", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.SessionTTL() != 30*time.Minute {
		t.Fatalf("expected 30m session ttl, got %s", cfg.SessionTTL())
	}
	if cfg.SameSite() != http.SameSiteNoneMode {
		t.Fatalf("expected none samesite, got %v", cfg.SameSite())
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.GoogleEnabled() {
		t.Fatalf("expected google enabled")
	}
	maxConns, minConns := cfg.DBPoolSize()
	if maxConns != 40 || minConns != 5 {
		t.Fatalf("unexpected pool size %d/%d", maxConns, minConns)
	}
	if cfg.DBConnectTimeout() != 2*time.Second {
		t.Fatalf("expected 2s connect timeout, got %s", cfg.DBConnectTimeout())
	}
}

func TestConfigDurations_FallbackOnInvalid(t *testing.T) {
	cfg := &Config{SessionTTLMinutes: -1, LoginRateWindowMinutes: 0, DBMaxConns: -3, DBMinConns: -1}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("expected 24h fallback, got %s", cfg.SessionTTL())
	}
	if cfg.LoginRateWindow() != 15*time.Minute {
		t.Fatalf("expected 15m fallback, got %s", cfg.LoginRateWindow())
	}
	maxConns, minConns := cfg.DBPoolSize()
	if maxConns != 10 || minConns != 0 {
		t.Fatalf("unexpected pool size fallback %d/%d", maxConns, minConns)
	}
	if cfg.DBConnectTimeout() != 5*time.Second {
		t.Fatalf("expected 5s fallback, got %s", cfg.DBConnectTimeout())
	}
}
