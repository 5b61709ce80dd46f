package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Session SessionConfig
	Notice  NoticeConfig
	Metrics MetricsConfig
	Stub    StubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(cfg.Storage); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Driver     string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s StorageConfig) validate() error {
	switch s.NormalizedDriver() {
	case StorageDriverMemory, StorageDriverSQLite, StorageDriverPostgres, StorageDriverRedis:
		return nil
	}
	return fmt.Errorf("unsupported storage driver %q", s.Driver)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Driver is derived from StorageConfig; it is not read from the environment.
	Driver string `ignored:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"STOREFRONT_REDIS_NAMESPACE" default:"sf"`
}

type CatalogConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"https://dummyjson.com"`
	RefreshURL   string        `envconfig:"STOREFRONT_REFRESH_URL" default:"https://dummyjson.com/auth/refresh"`
	Timeout      time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
	RateLimit    float64       `envconfig:"STOREFRONT_CATALOG_RATE_LIMIT" default:"5"`
	RateBurst    int           `envconfig:"STOREFRONT_CATALOG_RATE_BURST" default:"5"`
	RelatedLimit int           `envconfig:"STOREFRONT_CATALOG_RELATED_LIMIT" default:"5"`
}

// SessionConfig holds the placeholder token pair issued by the local verifier.
type SessionConfig struct {
	PlaceholderAccessToken  string `envconfig:"STOREFRONT_PLACEHOLDER_ACCESS_TOKEN" default:"local_dummy_token"`
	PlaceholderRefreshToken string `envconfig:"STOREFRONT_PLACEHOLDER_REFRESH_TOKEN" default:"local_dummy_refresh_token"`
}

type NoticeConfig struct {
	TTL time.Duration `envconfig:"STOREFRONT_NOTICE_TTL" default:"2s"`
}

type MetricsConfig struct {
	Addr string `envconfig:"STOREFRONT_METRICS_ADDR"`
}

type StubConfig struct {
	Port              string `envconfig:"STOREFRONT_STUB_PORT" default:"8089"`
	JWTSecret         string `envconfig:"STOREFRONT_STUB_JWT_SECRET" default:"stub-secret"`
	JWTIssuer         string `envconfig:"STOREFRONT_STUB_JWT_ISSUER" default:"storefront-stub"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_STUB_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshToken      string `envconfig:"STOREFRONT_STUB_REFRESH_TOKEN" default:"local_dummy_refresh_token"`

	RefreshRateLimit float64  `envconfig:"STOREFRONT_STUB_REFRESH_RATE_LIMIT" default:"2"`
	RefreshRateBurst int      `envconfig:"STOREFRONT_STUB_REFRESH_RATE_BURST" default:"5"`
	CORSOrigins      []string `envconfig:"STOREFRONT_STUB_CORS_ORIGINS" default:"http://localhost:8081,http://localhost:19006"`
}

// AccessTTL returns the lifetime of stub-issued access tokens.
func (s StubConfig) AccessTTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

func (db *DBConfig) ensureDSN(storage StorageConfig) error {
	db.Driver = storage.NormalizedDriver()
	switch db.Driver {
	case StorageDriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required for the postgres storage driver", EnvDBDSN)
		}
	case StorageDriverSQLite:
		if db.DSN != "" {
			return nil
		}
		path := strings.TrimSpace(storage.SQLitePath)
		if path == "" {
			return fmt.Errorf("%s is required for the sqlite storage driver", EnvSQLitePath)
		}
		db.DSN = "file:" + filepath.ToSlash(path) + "?_busy_timeout=5000"
	}
	return nil
}
