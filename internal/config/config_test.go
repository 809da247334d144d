package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "castleos:\n  username: admin\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CastleOS.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.CastleOS.Host)
	}
	if cfg.CastleOS.Timeout.Duration() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.CastleOS.Timeout.Duration())
	}
	if !cfg.CastleOS.GetFollowRedirects() || !cfg.CastleOS.GetInsecureSkipVerify() {
		t.Error("transport settings should default to true")
	}
	if cfg.Log.GetLevel() != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.GetLevel())
	}
	if cfg.Database.Path != "./castleos.sqlite" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Ledger.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.Ledger.RetentionDays)
	}
	if cfg.Ledger.Enabled {
		t.Error("ledger should be disabled by default")
	}
	if cfg.Database.InMemory() {
		t.Error("default database should be on disk")
	}
}

func TestLoad_Values(t *testing.T) {
	path := writeConfig(t, `
castleos:
  host: castle.lan:8080
  username: admin
  password: secret
  token: abc
  timeout: 5s
  follow_redirects: false
  insecure_skip_verify: false
log:
  level: DEBUG
  json: true
database:
  path: ":memory:"
ledger:
  enabled: true
  retention_days: 7
script: lights.lua
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := cfg.CastleOS
	if c.Host != "castle.lan:8080" || c.Username != "admin" || c.Password != "secret" || c.Token != "abc" {
		t.Errorf("castleos = %+v", c)
	}
	if c.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v", c.Timeout.Duration())
	}
	if c.GetFollowRedirects() || c.GetInsecureSkipVerify() {
		t.Error("explicit false transport settings were not honored")
	}
	if cfg.Log.GetLevel() != "debug" || !cfg.Log.UseJSON {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Script != "lights.lua" {
		t.Errorf("Script = %q", cfg.Script)
	}
	if !cfg.Database.InMemory() {
		t.Errorf("Database.Path = %q, want in-memory", cfg.Database.Path)
	}
	if !cfg.Ledger.Enabled || cfg.Ledger.RetentionDays != 7 {
		t.Errorf("ledger = %+v", cfg.Ledger)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CASTLE_PASSWORD", "from-env")

	path := writeConfig(t, `
castleos:
  password: ${CASTLE_PASSWORD}
  host: ${CASTLE_HOST_UNSET:castle.local}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CastleOS.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.CastleOS.Password)
	}
	if cfg.CastleOS.Host != "castle.local" {
		t.Errorf("Host = %q, want default castle.local", cfg.CastleOS.Host)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	if _, err := Load(writeConfig(t, "castleos:\n  timeout: soon\n")); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.CastleOS.Host != "localhost" || cfg.Script != "main.lua" {
		t.Errorf("Default() = %+v", cfg)
	}
}
