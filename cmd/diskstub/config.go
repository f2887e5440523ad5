package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/diskconsole/internal/model"
)

// appConfig is the stub backend's runtime configuration.
type appConfig struct {
	Addr       string `mapstructure:"addr"`
	LogBuffer  int    `mapstructure:"log-buffer"`
	Seed       string `mapstructure:"seed"`
	ConfigPath string `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("DISKSTUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("addr", model.DefaultStubAddr)
	v.SetDefault("log-buffer", model.DefaultLogBuffer)
	v.SetDefault("seed", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "diskconsole", "stub.yml"))
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

	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return cfg, fmt.Errorf("invalid addr %q: %w", cfg.Addr, err)
	}
	if cfg.LogBuffer <= 0 {
		return cfg, fmt.Errorf("invalid log-buffer: %d", cfg.LogBuffer)
	}
	if strings.HasPrefix(cfg.Seed, "~/") {
		cfg.Seed = filepath.Join(home, cfg.Seed[2:])
	}
	return cfg, nil
}
