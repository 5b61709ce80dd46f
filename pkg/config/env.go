package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

const (
	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvLogLevel      = "STOREFRONT_LOG_LEVEL"
	EnvStorageDriver = "STOREFRONT_STORAGE_DRIVER"
	EnvSQLitePath    = "STOREFRONT_SQLITE_PATH"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvCatalogURL    = "STOREFRONT_CATALOG_BASE_URL"
	EnvRefreshURL    = "STOREFRONT_REFRESH_URL"
	EnvNoticeTTL     = "STOREFRONT_NOTICE_TTL"
	EnvStubPort      = "STOREFRONT_STUB_PORT"
)
