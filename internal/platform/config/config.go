// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20 // 1048576 bytes

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

	// DefaultTransportIdleConnTimeout is the default idle connection timeout.
	DefaultTransportIdleConnTimeout = 90 * time.Second

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultQuoteValidity is how long a quote stays open for a client response.
	DefaultQuoteValidity = 30 * 24 * time.Hour

	// DefaultSweepInterval is the pause between expiry sweeps.
	DefaultSweepInterval = time.Minute

	// DefaultSweepBatchSize is the page size of one sweep scan.
	DefaultSweepBatchSize = 100

	// DefaultSweepWorkers is the number of concurrent expiry writers.
	DefaultSweepWorkers = 4

	// DefaultNotificationQueueSize is the capacity of the notification buffer.
	DefaultNotificationQueueSize = 256
)

// Supported store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverDynamoDB = "dynamodb"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`

	Store         StoreConfig        `koanf:"store"         validate:"required"`
	Quotes        QuotesConfig       `koanf:"quotes"        validate:"required"`
	Sweep         SweepConfig        `koanf:"sweep"`
	Notifications NotificationConfig `koanf:"notifications"`
	Events        EventsConfig       `koanf:"events"`
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
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"       validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"   validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"    validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	JWKSEndpoint  string `koanf:"jwks_endpoint"  validate:"required_if=Enabled true,omitempty,url"`
	Issuer        string `koanf:"issuer"         validate:"required_if=Enabled true"`
	Audience      string `koanf:"audience"       validate:"required_if=Enabled true"`
	ClaimsHeader  string `koanf:"claims_header"`
	RolesHeader   string `koanf:"roles_header"`
	ScopesHeader  string `koanf:"scopes_header"`
	SubjectHeader string `koanf:"subject_header"`
	// StaffRoles admits callers holding any of these roles to the staff API.
	// Empty admits every authenticated caller.
	StaffRoles []string `koanf:"staff_roles"`
	// SweepScope is required to trigger a manual expiry sweep.
	SweepScope string `koanf:"sweep_scope"`
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
	MaxIdleConns        int           `koanf:"max_idle_conns"         validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"      validate:"required,min=1s"`
}

// ServicesConfig contains configuration for downstream services.
type ServicesConfig struct {
	// Notification receives lifecycle events (POST /events).
	Notification ServiceEndpointConfig `koanf:"notification"`
	// Attachments answers whether a file reference exists (HEAD /files/{ref}).
	Attachments ServiceEndpointConfig `koanf:"attachments"`
}

// ServiceEndpointConfig contains configuration for a downstream service endpoint.
// A disabled endpoint is never called.
type ServiceEndpointConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	Name    string `koanf:"name"     validate:"required"`
}

// StoreConfig selects and configures the quote store.
type StoreConfig struct {
	Driver             string         `koanf:"driver"               validate:"required,oneof=memory postgres sqlite dynamodb"`
	MaxOpenConns       int            `koanf:"max_open_conns"       validate:"min=0"`
	SlowQueryThreshold time.Duration  `koanf:"slow_query_threshold"`
	Postgres           PostgresConfig `koanf:"postgres"`
	SQLite             SQLiteConfig   `koanf:"sqlite"`
	DynamoDB           DynamoDBConfig `koanf:"dynamodb"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DynamoDBConfig contains DynamoDB settings. Endpoint targets DynamoDB Local.
type DynamoDBConfig struct {
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"          validate:"omitempty,url"`
	TablePrefix     string `koanf:"table_prefix"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

// QuotesConfig contains quote defaults.
type QuotesConfig struct {
	DefaultTenant   string        `koanf:"default_tenant"   validate:"required,alphanum,max=16"`
	DefaultCurrency string        `koanf:"default_currency" validate:"required,len=3"`
	ValidityWindow  time.Duration `koanf:"validity_window"  validate:"required,min=1m"`
	// PublicBaseURL prefixes response tokens in the links sent to clients.
	PublicBaseURL string `koanf:"public_base_url" validate:"required,url"`
}

// SweepConfig controls the background expiry sweep.
type SweepConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval"   validate:"required_if=Enabled true,omitempty,min=1s"`
	BatchSize int           `koanf:"batch_size" validate:"omitempty,min=1,max=1000"`
	Workers   int           `koanf:"workers"    validate:"omitempty,min=1,max=64"`
}

// EventsConfig controls the staff websocket event stream.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string `koanf:"allowed_origins" validate:"dive,url"`
}

// NotificationConfig controls asynchronous lifecycle notifications.
type NotificationConfig struct {
	Enabled   bool          `koanf:"enabled"`
	QueueSize int           `koanf:"queue_size" validate:"omitempty,min=1"`
	Timeout   time.Duration `koanf:"timeout"    validate:"omitempty,min=10ms"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-lifecycle-service",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
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
		"telemetry.service_name":  "quote-lifecycle-service",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      false,

		"auth.enabled":        false,
		"auth.jwks_endpoint":  "",
		"auth.issuer":         "",
		"auth.audience":       "",
		"auth.claims_header":  "X-User-Claims",
		"auth.roles_header":   "X-User-Roles",
		"auth.scopes_header":  "X-User-Scopes",
		"auth.subject_header": "X-User-ID",
		"auth.staff_roles":    []string{"sales", "quote-admin"},
		"auth.sweep_scope":    "quotes:sweep",

		"client.timeout":                           "30s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"services.notification.enabled":  false,
		"services.notification.base_url": "",
		"services.notification.name":     "notification-service",
		"services.attachments.enabled":   false,
		"services.attachments.base_url":  "",
		"services.attachments.name":      "attachment-service",

		"store.driver":                StoreDriverMemory,
		"store.max_open_conns":        10,
		"store.slow_query_threshold":  "200ms",
		"store.postgres.dsn":          "",
		"store.sqlite.path":           "./data/quotes.db",
		"store.dynamodb.region":       "us-east-1",
		"store.dynamodb.endpoint":     "",
		"store.dynamodb.table_prefix": "",

		"quotes.default_tenant":   "ACME",
		"quotes.default_currency": "EUR",
		"quotes.validity_window":  DefaultQuoteValidity.String(),
		"quotes.public_base_url":  "http://localhost:8080/q",

		"sweep.enabled":    true,
		"sweep.interval":   DefaultSweepInterval.String(),
		"sweep.batch_size": DefaultSweepBatchSize,
		"sweep.workers":    DefaultSweepWorkers,

		"notifications.enabled":    true,
		"notifications.queue_size": DefaultNotificationQueueSize,
		"notifications.timeout":    "5s",

		"events.enabled":         true,
		"events.allowed_origins": []string{},
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix), including those read from .env
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	// Variables already in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix
	err = k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "APP_")),
			"_",
			".",
		)
	}), nil)
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

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil // File doesn't exist, that's fine
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
