// Package config loads storefront settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Gateway  UpstreamConfig `yaml:"gateway"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Currency string `yaml:"currency"`
}

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Catalog sources.
const (
	CatalogHTTP  = "http"
	CatalogMySQL = "mysql"
)

// CatalogConfig picks where products come from: the catalog service, or a
// products table in the MySQL database named by storage.mysql_dsn.
type CatalogConfig struct {
	UpstreamConfig `yaml:",inline"`
	Source         string `yaml:"source"`
}

type StorageConfig struct {
	Driver   string        `yaml:"driver"`
	File     string        `yaml:"file"`
	MySQLDSN string        `yaml:"mysql_dsn"`
	PGDSN    string        `yaml:"pg_dsn"`
	Redis    string        `yaml:"redis_addr"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// CheckoutConfig holds the payment widget presentation.
type CheckoutConfig struct {
	StoreName    string        `yaml:"store_name"`
	Contact      string        `yaml:"contact"`
	NotesAddress string        `yaml:"notes_address"`
	ThemeColor   string        `yaml:"theme_color"`
	LoginPath    string        `yaml:"login_path"`
	HomePath     string        `yaml:"home_path"`
	HomeDelay    time.Duration `yaml:"home_delay"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Probability float64 `yaml:"probability"`
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "dev",
			Port:     8080,
			LogLevel: "info",
			Currency: "INR",
		},
		Catalog: CatalogConfig{
			UpstreamConfig: UpstreamConfig{BaseURL: "http://localhost:8081", Timeout: 15 * time.Second},
			Source:         CatalogHTTP,
		},
		Gateway: UpstreamConfig{BaseURL: "http://localhost:8082", Timeout: 15 * time.Second},
		Storage: StorageConfig{
			Driver: DriverMemory,
			File:   "storefront-sessions.json",
			TTL:    30 * 24 * time.Hour,
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Checkout: CheckoutConfig{
			StoreName:    "Shoplane",
			Contact:      "9999999999",
			NotesAddress: "Shoplane Office",
			ThemeColor:   "#ff6600",
			LoginPath:    "login.html",
			HomePath:     "index.html",
			HomeDelay:    2 * time.Second,
		},
		Tracing: TracingConfig{Probability: 1.0},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("APP_ENV", &c.App.Env)
	set("LOG_LEVEL", &c.App.LogLevel)
	set("CATALOG_BASE_URL", &c.Catalog.BaseURL)
	set("CATALOG_SOURCE", &c.Catalog.Source)
	set("GATEWAY_BASE_URL", &c.Gateway.BaseURL)
	set("STORAGE_DRIVER", &c.Storage.Driver)
	set("STORAGE_FILE", &c.Storage.File)
	set("MYSQL_DSN", &c.Storage.MySQLDSN)
	set("PG_DSN", &c.Storage.PGDSN)
	set("REDIS_ADDR", &c.Storage.Redis)
	set("JWT_SECRET", &c.Auth.JWTSecret)
	set("OTEL_ENDPOINT", &c.Tracing.Endpoint)

	if v := getenv("APP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.App.Port = n
		}
	}
}

// CurrencyUnit returns the display currency; call after Validate.
func (c *Config) CurrencyUnit() currency.Unit {
	return currency.MustParseISO(c.App.Currency)
}

func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d is out of range", c.App.Port)
	}
	if _, err := currency.ParseISO(c.App.Currency); err != nil {
		return fmt.Errorf("app.currency %q is not an ISO 4217 code", c.App.Currency)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Catalog.Timeout <= 0 || c.Gateway.Timeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.File == "" {
			return fmt.Errorf("storage.file is required for the file driver")
		}
	case DriverMySQL:
		if c.Storage.MySQLDSN == "" {
			return fmt.Errorf("storage.mysql_dsn is required for the mysql driver")
		}
	case DriverPostgres:
		if c.Storage.PGDSN == "" {
			return fmt.Errorf("storage.pg_dsn is required for the postgres driver")
		}
	case DriverRedis:
		if c.Storage.Redis == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	switch c.Catalog.Source {
	case CatalogHTTP:
	case CatalogMySQL:
		if c.Storage.MySQLDSN == "" {
			return fmt.Errorf("storage.mysql_dsn is required for the mysql catalog")
		}
	default:
		return fmt.Errorf("catalog.source %q is not supported", c.Catalog.Source)
	}

	if c.Tracing.Probability < 0 || c.Tracing.Probability > 1 {
		return fmt.Errorf("tracing.probability must be between 0 and 1")
	}
	return nil
}
