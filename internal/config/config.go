package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"ProductCatalog/pkg/kit"
)

const (
	EnvPrefix = "CATALOG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LockPolicyExclusive  = "exclusive"
	LockPolicySharedRead = "shared-read"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	HTTP     HTTPConfig
	Metrics  MetricsConfig
	Generate GenerateConfig
	Admin    AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"CATALOG_APP_ENV" default:"dev"`
	Port     string `envconfig:"CATALOG_APP_PORT" default:"8080"`
	LogLevel string `envconfig:"CATALOG_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) Addr() string {
	return ":" + strings.TrimPrefix(a.Port, ":")
}

type DBConfig struct {
	Driver     string `envconfig:"CATALOG_DB_DRIVER" default:"sqlite"`
	DSN        string `envconfig:"CATALOG_DB_DSN" default:"products.db"`
	LockPolicy string `envconfig:"CATALOG_DB_LOCK_POLICY" default:"exclusive"`

	MaxOpenConns    int           `envconfig:"CATALOG_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"CATALOG_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"CATALOG_DB_CONN_MAX_LIFETIME" default:"1h"`

	QueryTimeout    time.Duration `envconfig:"CATALOG_DB_QUERY_TIMEOUT" default:"3s"`
	GenerateTimeout time.Duration `envconfig:"CATALOG_DB_GENERATE_TIMEOUT" default:"60s"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"CATALOG_HTTP_CORS_ORIGINS" default:"*"`
	TrustedProxies  []string      `envconfig:"CATALOG_HTTP_TRUSTED_PROXIES"`
	ShutdownTimeout time.Duration `envconfig:"CATALOG_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"CATALOG_METRICS_ENABLED" default:"true"`
	Token   string `envconfig:"CATALOG_METRICS_TOKEN"`
}

type GenerateConfig struct {
	Count     int `envconfig:"CATALOG_GENERATE_COUNT" default:"1000"`
	RateLimit int `envconfig:"CATALOG_GENERATE_RATE_LIMIT" default:"6"`
}

// AdminConfig guards the generate endpoint. An empty secret leaves it open.
type AdminConfig struct {
	JWTSecret string `envconfig:"CATALOG_ADMIN_JWT_SECRET"`
	JWTIssuer string `envconfig:"CATALOG_ADMIN_JWT_ISSUER" default:"product-catalog"`
}

func (a AdminConfig) Enabled() bool {
	return a.JWTSecret != ""
}

func (c *Config) Validate() error {
	var errs []error

	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DB.Driver))
	}
	switch c.DB.LockPolicy {
	case LockPolicyExclusive, LockPolicySharedRead:
	default:
		errs = append(errs, fmt.Errorf("unsupported db lock policy %q", c.DB.LockPolicy))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db dsn is required"))
	}
	if c.DB.QueryTimeout <= 0 || c.DB.GenerateTimeout <= 0 {
		errs = append(errs, errors.New("db timeouts must be positive"))
	}
	if _, err := kit.ParseProxies(c.HTTP.TrustedProxies); err != nil {
		errs = append(errs, err)
	}
	if c.Generate.Count <= 0 {
		errs = append(errs, fmt.Errorf("generate count must be positive, got %d", c.Generate.Count))
	}
	if c.Admin.Enabled() && len(c.Admin.JWTSecret) < 32 {
		errs = append(errs, errors.New("admin jwt secret must be at least 32 chars"))
	}

	return errors.Join(errs...)
}
