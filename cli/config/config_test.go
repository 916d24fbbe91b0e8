package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gangway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
pool:
  dial_timeout: 15s
  keepalive_interval: 30s
  stale_after: 2m
transfer:
  max_concurrent: 5
  chunk_size: 16384
  queue_capacity: 64
emitter:
  type: webhook
  url: https://hooks.internal/gangway
  headers:
    X-Token: abc
audit:
  path: /var/log/gangway/audit.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Pool.DialTimeout.Duration != 15*time.Second {
		t.Errorf("dial_timeout = %s", cfg.Pool.DialTimeout.Duration)
	}
	if cfg.Pool.StaleAfter.Duration != 2*time.Minute {
		t.Errorf("stale_after = %s", cfg.Pool.StaleAfter.Duration)
	}
	if cfg.Transfer.MaxConcurrent != 5 || cfg.Transfer.ChunkSize != 16384 {
		t.Error("transfer section not parsed")
	}
	if cfg.Emitter.Type != "webhook" || cfg.Emitter.Headers["X-Token"] != "abc" {
		t.Error("emitter section not parsed")
	}
	if cfg.Audit.Path != "/var/log/gangway/audit.log" {
		t.Error("audit section not parsed")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "pool:\n  dial_timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_UnknownEmitterType(t *testing.T) {
	path := writeConfig(t, "emitter:\n  type: carrier-pigeon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown emitter type")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("GANGWAY_TEST_URL", "https://hooks.example/x")
	path := writeConfig(t, "emitter:\n  type: webhook\n  url: ${GANGWAY_TEST_URL}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Emitter.URL != "https://hooks.example/x" {
		t.Errorf("env var not expanded, got %q", cfg.Emitter.URL)
	}
}

func TestExpandEnv_Default(t *testing.T) {
	got := ExpandEnv("channel: ${GANGWAY_UNSET_VAR:-gangway:events}")
	if got != "channel: gangway:events" {
		t.Errorf("default not applied, got %q", got)
	}
}

func TestExpandEnv_UnsetWithoutDefault(t *testing.T) {
	got := ExpandEnv("url: ${GANGWAY_UNSET_VAR}")
	if got != "url: " {
		t.Errorf("unset var should expand to empty, got %q", got)
	}
}
