package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todosync.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// No file: everything comes from defaults.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("explicit missing file should error")
	}

	// Empty path tolerates a missing todosync.yaml.
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if cfg.Local.Type != TypeFile || cfg.Local.Path != ".todosync/records" {
		t.Errorf("unexpected local defaults: %+v", cfg.Local)
	}
	if cfg.Remote.Type != TypeSQLite {
		t.Errorf("unexpected remote default type: %s", cfg.Remote.Type)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Backoff != time.Second {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
local:
  type: file
  name: laptop
  path: /tmp/records
remote:
  type: http
  name: cloud
  url: https://todos.example.com
  token: secret
retry:
  attempts: 5
  backoff: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Local.Name != "laptop" || cfg.Local.Path != "/tmp/records" {
		t.Errorf("unexpected local: %+v", cfg.Local)
	}
	if cfg.Remote.Type != TypeHTTP || cfg.Remote.URL != "https://todos.example.com" || cfg.Remote.Token != "secret" {
		t.Errorf("unexpected remote: %+v", cfg.Remote)
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.Backoff != 2*time.Second {
		t.Errorf("unexpected retry: %+v", cfg.Retry)
	}
	// Untouched sections keep defaults.
	if cfg.History != ".todosync/history.db" {
		t.Errorf("unexpected history default: %s", cfg.History)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TODOSYNC_REMOTE_TYPE", "http")
	t.Setenv("TODOSYNC_REMOTE_URL", "http://127.0.0.1:8334")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.Type != TypeHTTP || cfg.Remote.URL != "http://127.0.0.1:8334" {
		t.Errorf("env override not applied: %+v", cfg.Remote)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"file without path", func(c *Config) { c.Local = Replica{Type: TypeFile} }, true},
		{"sqlite without path", func(c *Config) { c.Remote = Replica{Type: TypeSQLite} }, true},
		{"http without url", func(c *Config) { c.Remote = Replica{Type: TypeHTTP} }, true},
		{"unknown type", func(c *Config) { c.Local = Replica{Type: "redis"} }, true},
		{"memory needs nothing", func(c *Config) { c.Local = Replica{Type: TypeMemory} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildAccessor(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	tmp := t.TempDir()

	tests := []struct {
		name string
		rep  Replica
	}{
		{"memory", Replica{Type: TypeMemory, Name: "mem"}},
		{"file", Replica{Type: TypeFile, Name: "files", Path: filepath.Join(tmp, "records")}},
		{"sqlite", Replica{Type: TypeSQLite, Name: "db", Path: filepath.Join(tmp, "todos.db")}},
		{"http", Replica{Type: TypeHTTP, Name: "api", URL: "http://127.0.0.1:8334"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, closer, err := BuildAccessor(tt.rep, logger)
			if err != nil {
				t.Fatalf("BuildAccessor failed: %v", err)
			}
			defer closer()

			if acc.Name() != tt.rep.Name {
				t.Errorf("expected name %q, got %q", tt.rep.Name, acc.Name())
			}
		})
	}

	if _, _, err := BuildAccessor(Replica{Type: "redis"}, logger); err == nil {
		t.Error("unknown type should error")
	}
}

func TestStarterRoundTrips(t *testing.T) {
	data, err := Starter()
	if err != nil {
		t.Fatalf("Starter failed: %v", err)
	}

	var parsed starterFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("starter config is not valid yaml: %v", err)
	}
	if parsed.Local["type"] != TypeFile || parsed.Remote["type"] != TypeSQLite {
		t.Errorf("unexpected starter contents: %+v", parsed)
	}

	// The rendered starter must load cleanly.
	path := writeConfig(t, string(data))
	if _, err := Load(path); err != nil {
		t.Errorf("starter config failed to load: %v", err)
	}
}
