package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.ListenAddr != ":8085" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.ManagementAPIURL != "https://api.supabase.com" {
		t.Errorf("management API URL = %q", cfg.ManagementAPIURL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUERYGATE_LOG_LEVEL", "debug")
	t.Setenv("QUERYGATE_POSTGRES_DSN", "postgres://localhost/test")
	t.Setenv("QUERYGATE_LEDGER_TABLE", "ops.change_log")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.PostgresDSN != "postgres://localhost/test" {
		t.Errorf("postgres DSN = %q", cfg.PostgresDSN)
	}
	if cfg.LedgerTable != "ops.change_log" {
		t.Errorf("ledger table = %q", cfg.LedgerTable)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "listen_addr: \":9090\"\nmanagement_api_token: file-token\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.ManagementAPIToken != "file-token" {
		t.Errorf("token = %q", cfg.ManagementAPIToken)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUERYGATE_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("log level = %q, env must win", cfg.LogLevel)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
