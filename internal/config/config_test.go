package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != DefaultDBDSN {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Review.DiagnosticMarker != DefaultDiagnosticMarker {
		t.Errorf("DiagnosticMarker = %q", cfg.Review.DiagnosticMarker)
	}
	if cfg.Messages.SaveAndSend != DefaultMessages.SaveAndSend {
		t.Errorf("Messages.SaveAndSend = %q", cfg.Messages.SaveAndSend)
	}
	if cfg.Messages.NotRecorded != DefaultMessages.NotRecorded {
		t.Errorf("Messages.NotRecorded = %q", cfg.Messages.NotRecorded)
	}
	if !strings.Contains(cfg.Messages.MissingCredentials, UserIDPlaceholder) {
		t.Errorf("Messages.MissingCredentials = %q, want %s placeholder", cfg.Messages.MissingCredentials, UserIDPlaceholder)
	}
	if !cfg.JobEnabled("pending_report") || cfg.JobEnabled("sql_maintenance") || cfg.JobEnabled("unknown") {
		t.Errorf("unexpected job defaults: %+v", cfg.Scheduler.Jobs)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
http:
  addr: ":9000"
  admin_user: ops
  admin_password: secret
database:
  dsn: /tmp/replydesk.db
review:
  profile_cache_ttl: 10m
scheduler:
  jobs:
    sql_maintenance:
      enabled: true
      schedule: "0 0 3 * * *"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("REPLYDESK_HTTP_ADDR", ":9100")
	t.Setenv("REPLYDESK_GATEWAY_REQUEST_TIMEOUT", "5s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.HTTP.Addr != ":9100" {
		t.Errorf("HTTP.Addr = %q, want env override :9100", cfg.HTTP.Addr)
	}
	if cfg.HTTP.AdminUser != "ops" || cfg.HTTP.AdminPassword != "secret" {
		t.Errorf("admin credentials = %q/%q", cfg.HTTP.AdminUser, cfg.HTTP.AdminPassword)
	}
	if cfg.Gateway.RequestTimeout != 5*time.Second {
		t.Errorf("Gateway.RequestTimeout = %v, want 5s", cfg.Gateway.RequestTimeout)
	}
	if cfg.Review.ProfileCacheTTL != 10*time.Minute {
		t.Errorf("ProfileCacheTTL = %v, want 10m", cfg.Review.ProfileCacheTTL)
	}
	if !cfg.JobEnabled("sql_maintenance") || cfg.Scheduler.Jobs["sql_maintenance"].Schedule != "0 0 3 * * *" {
		t.Errorf("sql_maintenance = %+v", cfg.Scheduler.Jobs["sql_maintenance"])
	}
	if !cfg.JobEnabled("profile_cache_reset") {
		t.Error("default job lost when file overrides another job")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]string{
		"bad log level":           "log:\n  level: loud\n",
		"bad driver":              "database:\n  driver: mysql\n",
		"user without password":   "http:\n  admin_user: ops\n",
		"enabled job no schedule": "scheduler:\n  jobs:\n    nightly:\n      enabled: true\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path); !errors.Is(err, ErrConfiguration) {
				t.Errorf("Load() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
