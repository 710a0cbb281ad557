// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultConfigDir is where base.yaml and the profile files live.
	DefaultConfigDir = "configs"

	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20 // 1048576 bytes

	// DefaultDatabaseDriver is the default storage backend.
	DefaultDatabaseDriver = "sqlite"

	// DefaultDatabaseDSN is the default SQLite database file.
	DefaultDatabaseDSN = "file:quotes.db"

	// DefaultAuthCacheTTL is how long an API key lookup is remembered.
	DefaultAuthCacheTTL = 5 * time.Minute

	// DefaultRateLimitRequests is the default request budget per window.
	DefaultRateLimitRequests = 120

	// DefaultRandomRetries bounds retries of a random read that raced a delete.
	DefaultRandomRetries = 3

	// DefaultImporterMaxCount caps one import request.
	DefaultImporterMaxCount = 20

	// DefaultImporterConcurrency caps parallel upstream fetches.
	DefaultImporterConcurrency = 4

	// DefaultClientRetryMaxAttempts is the default number of retry attempts.
	DefaultClientRetryMaxAttempts = 3

	// DefaultClientRetryMultiplier is the default exponential backoff multiplier.
	DefaultClientRetryMultiplier = 2.0

	// DefaultClientRetryJitterFactor is the default jitter percentage (±25%).
	DefaultClientRetryJitterFactor = 0.25

	// DefaultClientCircuitMaxFailures is the default failures before circuit opens.
	DefaultClientCircuitMaxFailures = 5

	// DefaultClientCircuitHalfOpenLimit is the default successes to close circuit.
	DefaultClientCircuitHalfOpenLimit = 3

	// DefaultTransportMaxIdleConns is the default max idle connections.
	DefaultTransportMaxIdleConns = 100

	// DefaultTransportMaxIdleConnsPerHost is the default max idle connections per host.
	DefaultTransportMaxIdleConnsPerHost = 10

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig         `koanf:"app"        validate:"required"`
	Server    ServerConfig      `koanf:"server"     validate:"required"`
	Log       LogConfig         `koanf:"log"        validate:"required"`
	Telemetry TelemetryConfig   `koanf:"telemetry"`
	Database  DatabaseConfig    `koanf:"database"   validate:"required"`
	Auth      AuthConfig        `koanf:"auth"`
	RateLimit RateLimitConfig   `koanf:"rate_limit"`
	Catalog   CatalogConfig     `koanf:"catalog"`
	Importer  ImporterConfig    `koanf:"importer"`
	Features  map[string]string `koanf:"features"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=100ms"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	Level      string `koanf:"level"       validate:"omitempty,oneof=trace debug info warn error"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"            validate:"required,oneof=sqlite postgres memory"`
	DSN             string        `koanf:"dsn"               validate:"required_if=Driver postgres"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"min=0"`
}

// AuthConfig contains API key authentication settings.
type AuthConfig struct {
	Enabled  bool          `koanf:"enabled"`
	APIKeys  []APIKey      `koanf:"api_keys"  validate:"required_if=Enabled true,dive"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// APIKey binds a bcrypt hash of a key to the principal that owns it.
type APIKey struct {
	Principal string `koanf:"principal" validate:"required"`
	KeyHash   string `koanf:"key_hash"  validate:"required,startswith=$2"`
}

// RateLimitConfig contains per-principal rate limiting settings.
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Backend  string        `koanf:"backend"  validate:"oneof=memory redis"`
	Requests int           `koanf:"requests" validate:"required_if=Enabled true,omitempty,min=1"`
	Window   time.Duration `koanf:"window"   validate:"required_if=Enabled true,omitempty,min=1s"`
	Redis    RedisConfig   `koanf:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"     validate:"min=0"`
	Prefix   string `koanf:"prefix"`
}

// CatalogConfig tunes the catalog operations.
type CatalogConfig struct {
	RandomRetries int `koanf:"random_retries" validate:"min=0,max=10"`
}

// ImporterConfig configures quote import from the upstream API.
type ImporterConfig struct {
	Enabled     bool         `koanf:"enabled"`
	Name        string       `koanf:"name"        validate:"required_if=Enabled true"`
	BaseURL     string       `koanf:"base_url"    validate:"required_if=Enabled true,omitempty,url"`
	MaxCount    int          `koanf:"max_count"   validate:"min=1,max=100"`
	Concurrency int          `koanf:"concurrency" validate:"min=1,max=32"`
	Client      ClientConfig `koanf:"client"      validate:"required"`
}

// ClientConfig contains HTTP client settings for downstream services.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quotes-service",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "15s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quotes-service",
		"telemetry.sampling_rate": 1.0,

		"database.driver":            DefaultDatabaseDriver,
		"database.dsn":               DefaultDatabaseDSN,
		"database.max_open_conns":    10,
		"database.max_idle_conns":    5,
		"database.conn_max_lifetime": "30m",

		"auth.enabled":   false,
		"auth.cache_ttl": DefaultAuthCacheTTL.String(),

		"rate_limit.enabled":      false,
		"rate_limit.backend":      "memory",
		"rate_limit.requests":     DefaultRateLimitRequests,
		"rate_limit.window":       "1m",
		"rate_limit.redis.addr":   "localhost:6379",
		"rate_limit.redis.db":     0,
		"rate_limit.redis.prefix": "quotes:ratelimit:",

		"catalog.random_retries": DefaultRandomRetries,

		"importer.enabled":     false,
		"importer.name":        "quotable",
		"importer.base_url":    "https://api.quotable.io",
		"importer.max_count":   DefaultImporterMaxCount,
		"importer.concurrency": DefaultImporterConcurrency,

		"importer.client.timeout":                           "10s",
		"importer.client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"importer.client.retry.initial_interval":            "100ms",
		"importer.client.retry.max_interval":                "5s",
		"importer.client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"importer.client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"importer.client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"importer.client.circuit_breaker.timeout":           "30s",
		"importer.client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"importer.client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"importer.client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"importer.client.transport.idle_conn_timeout":       "90s",

		"features.author-cascade-delete": "false",
		"features.quote-import":          "true",
	}
}

// Load reads configuration from DefaultConfigDir. See LoadFrom.
func Load(profile string) (*Config, error) {
	return LoadFrom(DefaultConfigDir, profile)
}

// LoadFrom loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix, "__" separates nested keys)
//  2. Profile config file ({dir}/{profile}.yaml)
//  3. Base config file ({dir}/base.yaml)
//  4. Default values
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, filepath.Join(dir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		err := loadFileIfExists(k, filepath.Join(dir, profile+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix
	err = k.Load(env.Provider("APP_", ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_RATE_LIMIT__REDIS__ADDR to rate_limit.redis.addr.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__", ".")
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil // File doesn't exist, that's fine
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
