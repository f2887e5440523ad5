package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinytelemetry/diskconsole/internal/model"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != model.DefaultStubAddr || cfg.LogBuffer != model.DefaultLogBuffer {
		t.Fatalf("cfg = %+v", cfg)
	}

	t.Setenv("DISKSTUB_LOG_BUFFER", "50")
	t.Setenv("DISKSTUB_ADDR", "127.0.0.1:0")
	cfg, err = loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogBuffer != 50 || cfg.Addr != "127.0.0.1:0" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "stub.yml")
	if err := os.WriteFile(path, []byte("addr: nohostport\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for addr without port")
	}
}
