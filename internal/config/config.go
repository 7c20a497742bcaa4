// Package config resolves where the tracker keeps its files. Each location
// can be overridden with an environment variable, then an optional TOML
// config file, then falls back to a fixed spot under the home directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Environment overrides. The names predate this implementation and are kept
// for compatibility with existing setups.
const (
	EnvRecordPath = "TIMELOG_RECORD_PATH"
	EnvStatePath  = "TIMELOG_STATE_PATH"
	EnvPluginDir  = "TIMELOG_PLUGIN_PATH"
)

// LogConfig mirrors lumberjack's rotation knobs. An empty Dir disables file
// logging entirely.
type LogConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Config is the resolved tracker configuration.
type Config struct {
	RecordPath    string        `toml:"record_path" mapstructure:"record_path"`
	StatePath     string        `toml:"state_path" mapstructure:"state_path"`
	PluginDir     string        `toml:"plugin_dir" mapstructure:"plugin_dir"`
	PluginTimeout time.Duration `toml:"plugin_timeout" mapstructure:"plugin_timeout"`
	Log           LogConfig     `toml:"log" mapstructure:"log"`
}

// Load resolves configuration from the default config file location.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return LoadFrom(filepath.Join(home, ".timelog", "config.toml"))
}

// LoadFrom resolves configuration, reading the given TOML file when it
// exists. Precedence: environment variable, then file, then default.
func LoadFrom(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("record_path", filepath.Join(home, ".timelog-record"))
	v.SetDefault("state_path", filepath.Join(home, ".timelog-state"))
	v.SetDefault("plugin_dir", filepath.Join(home, ".timelog", "plugins"))
	_ = v.BindEnv("record_path", EnvRecordPath)
	_ = v.BindEnv("state_path", EnvStatePath)
	_ = v.BindEnv("plugin_dir", EnvPluginDir)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}
