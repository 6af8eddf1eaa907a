package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Limits.Chat.MaxRequests != 10 || cfg.Limits.Chat.Window() != time.Minute {
		t.Errorf("chat limits = %+v", cfg.Limits.Chat)
	}
	if cfg.Limits.Chat.SweepEvery() != 5*time.Minute {
		t.Errorf("chat sweep = %v", cfg.Limits.Chat.SweepEvery())
	}
	if cfg.Limits.VisitorWindow() != time.Hour {
		t.Errorf("visitor window = %v", cfg.Limits.VisitorWindow())
	}
	if cfg.Limits.VisitorSweepEvery() != 10*time.Minute {
		t.Errorf("visitor sweep = %v", cfg.Limits.VisitorSweepEvery())
	}
	if cfg.Upstream.Timeout() != 30*time.Second {
		t.Errorf("upstream timeout = %v", cfg.Upstream.Timeout())
	}
}

func TestLoad_FileOverridesAndEnvSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  addr: ":9090"
limits:
  chat:
    max_requests: 3
    window_ms: 1000
upstream:
  base_url: "https://example.com/v1"
  model: "tiny"
redis:
  addr: "localhost:6379"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMPLETION_API_KEY", "sk_env")
	t.Setenv("RESEND_API_KEY", "rk_env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Limits.Chat.MaxRequests != 3 || cfg.Limits.Chat.Window() != time.Second {
		t.Errorf("chat limits = %+v", cfg.Limits.Chat)
	}
	if cfg.Upstream.BaseURL != "https://example.com/v1" || cfg.Upstream.Model != "tiny" {
		t.Errorf("upstream = %+v", cfg.Upstream)
	}
	if cfg.Upstream.APIKey != "sk_env" || cfg.Notify.APIKey != "rk_env" {
		t.Error("secrets should come from the environment")
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want error for malformed yaml")
	}
}
