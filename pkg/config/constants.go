package config

const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv         = "STOCKROOM_APP_ENV"
	EnvPort           = "STOCKROOM_APP_PORT"
	EnvLogLevel       = "STOCKROOM_LOG_LEVEL"
	EnvDBDriver       = "STOCKROOM_DB_DRIVER"
	EnvDBDSN          = "STOCKROOM_DB_DSN"
	EnvRedisURL       = "STOCKROOM_REDIS_URL"
	EnvAlertScanEvery = "STOCKROOM_ALERT_SCAN_INTERVAL"
)
