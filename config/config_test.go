package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsMatchFallback(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if want := getDefaultConfig(); !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: ":9090"
  mode: release
optimizer:
  workers: 2
  timeout: 15s
stripper:
  kind: none
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":9090" || cfg.Server.Mode != "release" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Optimizer.Workers != 2 || cfg.Optimizer.Timeout != 15*time.Second {
		t.Errorf("optimizer = %+v", cfg.Optimizer)
	}
	if cfg.Stripper.Kind != "none" {
		t.Errorf("stripper.kind = %q, want none", cfg.Stripper.Kind)
	}
	// Untouched keys keep their defaults
	if cfg.Optimizer.MaxConcurrent != 1 || cfg.Upload.MaxSize != 10*1024*1024 {
		t.Errorf("defaults lost: %+v %+v", cfg.Optimizer, cfg.Upload)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DISCORDGIF_SERVER_PORT", ":7070")
	t.Setenv("DISCORDGIF_OPTIMIZER_MAX_FRAMES", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":7070" {
		t.Errorf("server.port = %q, want :7070", cfg.Server.Port)
	}
	if cfg.Optimizer.MaxFrames != 42 {
		t.Errorf("optimizer.max_frames = %d, want 42", cfg.Optimizer.MaxFrames)
	}
}

func TestNewFallsBackOnMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
	if cfg := New(missing); !reflect.DeepEqual(cfg, getDefaultConfig()) {
		t.Errorf("New(missing) = %+v, want defaults", cfg)
	}
}

func TestNewFallbackKeepsEnvOverrides(t *testing.T) {
	t.Setenv("DISCORDGIF_SERVER_MODE", "release")
	t.Setenv("DISCORDGIF_OPTIMIZER_MAX_FRAMES", "12")

	cfg := New(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Server.Mode != "release" {
		t.Errorf("server.mode = %q, want release", cfg.Server.Mode)
	}
	if cfg.Optimizer.MaxFrames != 12 {
		t.Errorf("optimizer.max_frames = %d, want 12", cfg.Optimizer.MaxFrames)
	}
}
