package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/diskconsole/internal/model"
	"github.com/tinytelemetry/diskconsole/internal/report"
)

const (
	defaultArchiveRetention = 90 // days, 0 = disabled
	defaultBackupKeep       = 10
)

type logsConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	Limit           int           `mapstructure:"limit"`
}

type scriptConfig struct {
	SkipComments bool `mapstructure:"skip-comments"`
	StopOnError  bool `mapstructure:"stop-on-error"`
}

type reportConfig struct {
	Engine    string `mapstructure:"engine"`
	Format    string `mapstructure:"format"`
	DotPath   string `mapstructure:"dot-path"`
	OutputDir string `mapstructure:"output-dir"`
}

// appConfig is the console's runtime configuration.
type appConfig struct {
	APIURL           string        `mapstructure:"api-url"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	Logs             logsConfig    `mapstructure:"logs"`
	Script           scriptConfig  `mapstructure:"script"`
	Report           reportConfig  `mapstructure:"report"`
	ArchiveEnabled   bool          `mapstructure:"archive-enabled"`
	ArchivePath      string        `mapstructure:"archive-path"`
	ArchiveRetention int           `mapstructure:"archive-retention-days"`
	BackupDir        string        `mapstructure:"backup-dir"`
	BackupInterval   time.Duration `mapstructure:"backup-interval"`
	BackupKeepLast   int           `mapstructure:"backup-keep-last"`
	ConfigPath       string        `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".local", "share", "diskconsole")

	v := viper.New()
	v.SetEnvPrefix("DISKCONSOLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("api-url", model.DefaultAPIURL)
	v.SetDefault("request-timeout", time.Duration(0))
	v.SetDefault("logs.refresh-interval", model.DefaultRefreshInterval)
	v.SetDefault("logs.limit", model.DefaultLogLimit)
	v.SetDefault("script.skip-comments", false)
	v.SetDefault("script.stop-on-error", false)
	v.SetDefault("report.engine", report.EngineOutline)
	v.SetDefault("report.format", "svg")
	v.SetDefault("report.dot-path", "dot")
	v.SetDefault("report.output-dir", filepath.Join(dataDir, "reports"))
	v.SetDefault("archive-enabled", true)
	v.SetDefault("archive-path", filepath.Join(dataDir, "archive.duckdb"))
	v.SetDefault("archive-retention-days", defaultArchiveRetention)
	v.SetDefault("backup-dir", "")
	v.SetDefault("backup-interval", time.Duration(0))
	v.SetDefault("backup-keep-last", defaultBackupKeep)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "diskconsole", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Logs.Limit <= 0 {
		return cfg, fmt.Errorf("invalid logs.limit: %d", cfg.Logs.Limit)
	}
	if cfg.Logs.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid logs.refresh-interval: %s", cfg.Logs.RefreshInterval)
	}
	if cfg.RequestTimeout < 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}

	cfg.ArchivePath = expandHome(home, cfg.ArchivePath)
	cfg.Report.OutputDir = expandHome(home, cfg.Report.OutputDir)
	cfg.BackupDir = expandHome(home, cfg.BackupDir)
	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
