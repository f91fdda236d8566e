package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{"ADDR", "DATABASE_URL", "SESSION_TTL", "RATE_LIMIT", "RATE_BURST", "BACKUP_KEEP", "AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.RateLimit != 20 || cfg.RateBurst != 40 {
		t.Errorf("rate = %v/%d, want 20/40", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.BackupKeep != 10 || !cfg.AutoMigrate {
		t.Errorf("BackupKeep = %d AutoMigrate = %v", cfg.BackupKeep, cfg.AutoMigrate)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("RATE_BURST", "5")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper() error = %v", err)
	}

	if !cfg.Production() {
		t.Errorf("Production() = false, want true")
	}
	if cfg.Addr != ":9000" || cfg.DatabaseURL != "postgres://localhost/taskflow" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionTTL != 2*time.Hour || !cfg.CookieSecure || cfg.RateBurst != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Unparseable session ttl", key: "SESSION_TTL", value: "tomorrow"},
		{name: "Negative session ttl", key: "SESSION_TTL", value: "-1h"},
		{name: "Zero burst", key: "RATE_BURST", value: "0"},
		{name: "Zero backups kept", key: "BACKUP_KEEP", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := fromViper(newViper()); err == nil {
				t.Errorf("fromViper() with %s=%q error = nil, want error", tt.key, tt.value)
			}
		})
	}
}
