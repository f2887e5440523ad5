package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/diskconsole/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != model.DefaultAPIURL {
		t.Errorf("api-url = %q", cfg.APIURL)
	}
	if cfg.Logs.Limit != model.DefaultLogLimit || cfg.Logs.RefreshInterval != model.DefaultRefreshInterval {
		t.Errorf("logs = %+v", cfg.Logs)
	}
	if cfg.Report.Engine != "outline" || !cfg.ArchiveEnabled || cfg.ArchiveRetention != defaultArchiveRetention {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("request-timeout = %s", cfg.RequestTimeout)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `api-url: http://disks.local:9000
request-timeout: 5s
logs:
  limit: 200
script:
  stop-on-error: true
archive-path: ~/archive/console.duckdb
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DISKCONSOLE_LOGS_REFRESH_INTERVAL", "5s")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://disks.local:9000" || cfg.RequestTimeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Logs.Limit != 200 || cfg.Logs.RefreshInterval != 5*time.Second || !cfg.Script.StopOnError {
		t.Errorf("logs/script = %+v %+v", cfg.Logs, cfg.Script)
	}
	if want := filepath.Join(home, "archive", "console.duckdb"); cfg.ArchivePath != want {
		t.Errorf("archive-path = %q, want %q", cfg.ArchivePath, want)
	}
	if cfg.ConfigPath != path {
		t.Errorf("config path = %q", cfg.ConfigPath)
	}
}

func TestLoadConfig_RejectsBadLimit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DISKCONSOLE_LOGS_LIMIT", "-1")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for negative logs.limit")
	}
}

func TestOptions_Modes(t *testing.T) {
	if n := (options{cmd: "mkdisk", logs: true}).modes(); n != 2 {
		t.Fatalf("modes = %d", n)
	}
	if n := (options{dot: "g.dot", report: "mbr"}).modes(); n != 2 {
		t.Fatalf("modes = %d", n)
	}
	if n := (options{}).modes(); n != 0 {
		t.Fatalf("modes = %d", n)
	}
}
