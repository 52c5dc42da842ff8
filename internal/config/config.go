package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "FOCUSFLOW_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendFyne   = "fyne"
)

type Config struct {
	AppName   string          `koanf:"app_name"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Bus       BusConfig       `koanf:"bus"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Rewards   RewardsConfig   `koanf:"rewards"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

type StoreConfig struct {
	Backend string `koanf:"backend"` // memory, file, sqlite, fyne
	// Path is resolved under the user config dir when empty.
	Path       string        `koanf:"path"`
	Namespace  string        `koanf:"namespace"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	Secret     string        `koanf:"secret"`
}

type BusConfig struct {
	HistoryCapacity int `koanf:"history_capacity"`
}

type AnalyticsConfig struct {
	SessionCapacity int `koanf:"session_capacity"`
}

type RewardsConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

var defaults = map[string]any{
	"app_name":                   "focusflow",
	"log.level":                  "info",
	"log.development":            false,
	"store.backend":              BackendFile,
	"store.path":                 "",
	"store.namespace":            "focusflow_",
	"store.default_ttl":          "168h",
	"store.secret":               "",
	"bus.history_capacity":       1000,
	"analytics.session_capacity": 100,
	"rewards.ttl":                "8760h",
}

var sections = []string{"log", "store", "bus", "analytics", "rewards"}

// Load layers the defaults, the optional YAML file at path and the
// FOCUSFLOW_ environment. A missing file is not an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// envKey maps FOCUSFLOW_STORE_DEFAULT_TTL to store.default_ttl. Only the
// first underscore after a known section name becomes a separator.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// Validate rejects values the core cannot run with.
func (cfg Config) Validate() error {
	var errs []error
	if strings.TrimSpace(cfg.AppName) == "" {
		errs = append(errs, errors.New("app_name must not be empty"))
	}
	switch cfg.Store.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendFyne:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of memory, file, sqlite, fyne", cfg.Store.Backend))
	}
	if cfg.Store.Namespace == "" {
		errs = append(errs, errors.New("store.namespace must not be empty"))
	}
	if cfg.Store.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("store.default_ttl must be positive, got %s", cfg.Store.DefaultTTL))
	}
	if cfg.Bus.HistoryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("bus.history_capacity must be positive, got %d", cfg.Bus.HistoryCapacity))
	}
	if cfg.Analytics.SessionCapacity <= 0 {
		errs = append(errs, fmt.Errorf("analytics.session_capacity must be positive, got %d", cfg.Analytics.SessionCapacity))
	}
	if cfg.Rewards.TTL <= 0 {
		errs = append(errs, fmt.Errorf("rewards.ttl must be positive, got %s", cfg.Rewards.TTL))
	}
	return errors.Join(errs...)
}
