package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load("")
	if cfg.Bind != "127.0.0.1:9620" {
		t.Fatalf("bind default: %s", cfg.Bind)
	}
	if cfg.LsblkPath != "lsblk" || cfg.LsblkTimeout != 5*time.Second {
		t.Fatalf("lsblk defaults: %s %s", cfg.LsblkPath, cfg.LsblkTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Fatal("metrics should default on")
	}
	if cfg.LogLevel.String() != "info" {
		t.Fatalf("log level default: %s", cfg.LogLevel)
	}
}

func TestYAMLAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte("" +
		"http:\n  bind: 127.0.0.1:9999\n" +
		"cors:\n  origin: http://example.com\n" +
		"logging:\n  level: debug\n" +
		"lsblk:\n  path: /usr/local/bin/lsblk\n  timeout: 2s\n" +
		"metrics:\n  enabled: false\n")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(cfgPath)
	if cfg.Bind != "127.0.0.1:9999" {
		t.Fatalf("bind from yaml: %s", cfg.Bind)
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Fatalf("cors from yaml: %s", cfg.CORSOrigin)
	}
	if cfg.LogLevel.String() != "debug" {
		t.Fatalf("loglevel from yaml: %s", cfg.LogLevel)
	}
	if cfg.LsblkPath != "/usr/local/bin/lsblk" || cfg.LsblkTimeout != 2*time.Second {
		t.Fatalf("lsblk from yaml: %s %s", cfg.LsblkPath, cfg.LsblkTimeout)
	}
	if cfg.MetricsEnabled {
		t.Fatal("metrics disabled by yaml")
	}

	t.Setenv("BLKD_HTTP_BIND", "0.0.0.0:8080")
	t.Setenv("BLKD_LOG", "warn")
	t.Setenv("BLKD_LSBLK_TIMEOUT", "250ms")
	t.Setenv("BLKD_METRICS", "1")

	cfg2 := Load(cfgPath)
	if cfg2.Bind != "0.0.0.0:8080" {
		t.Fatalf("bind env override: %s", cfg2.Bind)
	}
	if cfg2.LogLevel.String() != "warn" {
		t.Fatalf("loglevel env override: %s", cfg2.LogLevel)
	}
	if cfg2.LsblkTimeout != 250*time.Millisecond {
		t.Fatalf("timeout env override: %s", cfg2.LsblkTimeout)
	}
	if !cfg2.MetricsEnabled {
		t.Fatal("metrics re-enabled by env")
	}
}
