package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the remote checklist service.
type APIConfig struct {
	// BaseURL is the root URL of the backend (without the /api suffix).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every request. Requests exceeding it are not retried.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns TimeoutSec as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// StorageConfig holds settings for the local mirror database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// CredentialConfig controls which keyring holds the session token.
type CredentialConfig struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	FileDir     string `mapstructure:"file_dir" yaml:"file_dir"`

	// Backend forces a single keyring backend (e.g. "file"). Empty means
	// the first available system backend.
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// SyncConfig tunes background reconnection probes and prefetching.
type SyncConfig struct {
	// ProbeIntervalSec reloads open collections at this interval while
	// offline. Zero disables probing.
	ProbeIntervalSec    int `mapstructure:"probe_interval_sec" yaml:"probe_interval_sec"`
	PrefetchConcurrency int `mapstructure:"prefetch_concurrency" yaml:"prefetch_concurrency"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	DefaultColor string `mapstructure:"default_color" yaml:"default_color"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API         APIConfig        `mapstructure:"api" yaml:"api"`
	Storage     StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Credentials CredentialConfig `mapstructure:"credentials" yaml:"credentials"`
	Sync        SyncConfig       `mapstructure:"sync" yaml:"sync"`
	Log         LogConfig        `mapstructure:"log" yaml:"log"`
	Display     DisplayConfig    `mapstructure:"display" yaml:"display"`
}

// DefaultConfigDir returns ~/.config/stickylist.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "stickylist")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/stickylist/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "https://sticky-list.onrender.com",
			TimeoutSec: 10,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "mirror.db"),
		},
		Credentials: CredentialConfig{
			ServiceName: "stickylist",
			FileDir:     filepath.Join(dir, "credentials"),
		},
		Sync: SyncConfig{
			ProbeIntervalSec:    0,
			PrefetchConcurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "stickylist.log"),
		},
		Display: DisplayConfig{
			DefaultColor: "blue",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// STICKYLIST_* environment variables override file values
// (e.g. STICKYLIST_API_BASE_URL).
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("stickylist")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv can see every key.
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("storage.db_path", def.Storage.DBPath)
	v.SetDefault("credentials.service_name", def.Credentials.ServiceName)
	v.SetDefault("credentials.file_dir", def.Credentials.FileDir)
	v.SetDefault("credentials.backend", def.Credentials.Backend)
	v.SetDefault("sync.probe_interval_sec", def.Sync.ProbeIntervalSec)
	v.SetDefault("sync.prefetch_concurrency", def.Sync.PrefetchConcurrency)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("display.default_color", def.Display.DefaultColor)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = def.API.TimeoutSec
	}
	if cfg.Sync.PrefetchConcurrency <= 0 {
		cfg.Sync.PrefetchConcurrency = def.Sync.PrefetchConcurrency
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Storage.DBPath = expandHome(cfg.Storage.DBPath)
	cfg.Credentials.FileDir = expandHome(cfg.Credentials.FileDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("storage", cfg.Storage)
	v.Set("credentials", cfg.Credentials)
	v.Set("sync", cfg.Sync)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
