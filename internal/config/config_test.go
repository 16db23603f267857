package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.SQLitePath != "chat.db" {
		t.Fatalf("expected chat.db, got %q", cfg.SQLitePath)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("expected 3s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("expected history limit 50, got %d", cfg.HistoryLimit)
	}
	if cfg.AdminPassword != "admin123" {
		t.Fatalf("expected default admin password")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://chat@localhost/chat")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("HISTORY_LIMIT", "20")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("expected normalized postgres driver, got %q", cfg.DBDriver)
	}
	if cfg.PollInterval != 500*time.Millisecond || cfg.HistoryLimit != 20 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DBDriver: "postgres"}
	if err := cfg.Validate(); !errors.Is(err, ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}

	cfg = Config{DBDriver: "mongo"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}

	cfg = Config{DBDriver: "sqlite", PollInterval: -1, HistoryLimit: 0}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PollInterval != 3*time.Second || cfg.HistoryLimit != 50 || cfg.SQLitePath != "chat.db" {
		t.Fatalf("expected defaults to be restored, got %+v", cfg)
	}
}
