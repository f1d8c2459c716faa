// Package clientconfig loads storefront CLI settings from an optional YAML
// file overlaid by ERRORFIX_ environment variables.
package clientconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "ERRORFIX_"

// Storage drivers for the durable client snapshots.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Auth modes: remote calls the login endpoint, local only checks the format.
const (
	AuthRemote = "remote"
	AuthLocal  = "local"
)

type Config struct {
	API       APIConfig       `koanf:"api"`
	Purchase  PurchaseConfig  `koanf:"purchase"`
	Storage   StorageConfig   `koanf:"storage"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type APIConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type PurchaseConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver"`
	Path        string `koanf:"path"`
	RedisURL    string `koanf:"redis_url"`
	DatabaseURL string `koanf:"database_url"`
	Owner       string `koanf:"owner"`
}

type AuthConfig struct {
	Mode string `koanf:"mode"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// TelemetryConfig points the CLI at an OTLP collector. An empty endpoint
// turns export off.
type TelemetryConfig struct {
	Endpoint   string  `koanf:"endpoint"`
	SampleRate float64 `koanf:"sample_rate"`
}

// Default returns the settings used when neither file nor environment
// override a key.
func Default() Config {
	return Config{
		API:      APIConfig{URL: "http://localhost:8080", Timeout: 10 * time.Second},
		Purchase: PurchaseConfig{Timeout: 15 * time.Second},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(configDir(), "storefront.db"),
			Owner:  "default",
		},
		Auth:      AuthConfig{Mode: AuthRemote},
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{SampleRate: 1.0},
	}
}

// DefaultPath is where Load looks when no file is named.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// Load reads path (or DefaultPath when empty) and then the environment.
// A missing default file is not an error; a missing named file is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.Replace(key, "_", ".", 1), value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverRedis, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q: want sqlite, redis, postgres or memory", c.Storage.Driver)
	}
	if c.Auth.Mode != AuthRemote && c.Auth.Mode != AuthLocal {
		return fmt.Errorf("auth.mode %q: want remote or local", c.Auth.Mode)
	}
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("api.url is required")
	}
	if c.Purchase.Timeout <= 0 {
		return errors.New("purchase.timeout must be positive")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate %v: want a value between 0 and 1", c.Telemetry.SampleRate)
	}
	return nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "errorfix")
}
