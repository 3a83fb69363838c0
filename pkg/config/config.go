package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
	Alerts  AlertsConfig
	Export  ExportConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKROOM_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOCKROOM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKROOM_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOCKROOM_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOCKROOM_LOG_WARN_STACK" default:"false"`
	MetricsPort  string `envconfig:"STOCKROOM_METRICS_PORT" default:"9090"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKROOM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	Driver      string `envconfig:"STOCKROOM_DB_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"STOCKROOM_DB_DSN" default:"file:stockroom.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"`
	AutoMigrate bool   `envconfig:"STOCKROOM_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"STOCKROOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKROOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKROOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKROOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQuery time.Duration `envconfig:"STOCKROOM_DB_SLOW_QUERY" default:"250ms"`
	TxRetries int           `envconfig:"STOCKROOM_DB_TX_RETRIES" default:"3"`
}

// IsSQLite reports whether the embedded store is selected.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), DBDriverSQLite)
}

func (d DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.Driver)) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres, d.Driver)
	}
	if strings.TrimSpace(d.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// RedisConfig is optional; an empty URL and address disables the distributed scan lock.
type RedisConfig struct {
	URL          string        `envconfig:"STOCKROOM_REDIS_URL"`
	Address      string        `envconfig:"STOCKROOM_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKROOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKROOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKROOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKROOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKROOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKROOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKROOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// HTTPConfig tunes the API surface. Idempotency replay and rate limiting need Redis.
type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"STOCKROOM_CORS_ORIGINS" default:"http://localhost:3000"`
	IdempotencyTTL  time.Duration `envconfig:"STOCKROOM_IDEMPOTENCY_TTL" default:"24h"`
	RateLimitWindow time.Duration `envconfig:"STOCKROOM_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitHeavy  int           `envconfig:"STOCKROOM_RATE_LIMIT_HEAVY" default:"10"`
}

type AlertsConfig struct {
	ScanInterval          time.Duration `envconfig:"STOCKROOM_ALERT_SCAN_INTERVAL" default:"5m"`
	LockTTL               time.Duration `envconfig:"STOCKROOM_ALERT_LOCK_TTL" default:"10m"`
	NotificationRetention int           `envconfig:"STOCKROOM_NOTIFICATION_RETENTION_DAYS" default:"30"`
	CleanupInterval       time.Duration `envconfig:"STOCKROOM_NOTIFICATION_CLEANUP_INTERVAL" default:"1h"`
}

type ExportConfig struct {
	Version string `envconfig:"STOCKROOM_EXPORT_VERSION" default:"1.0"`
}
