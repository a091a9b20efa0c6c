package config

// EnvPrefix is the envconfig prefix; every key below is also looked up verbatim.
const EnvPrefix = "TILLPOINT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "TILLPOINT_APP_ENV"
	EnvPort     = "TILLPOINT_APP_PORT"
	EnvLogLevel = "TILLPOINT_LOG_LEVEL"

	EnvDBDSN    = "TILLPOINT_DB_DSN"
	EnvDBDriver = "TILLPOINT_DB_DRIVER"
	EnvDBHost   = "TILLPOINT_DB_HOST"
	EnvDBUser   = "TILLPOINT_DB_USER"
	EnvDBName   = "TILLPOINT_DB_NAME"

	EnvRedisURL = "TILLPOINT_REDIS_URL"

	EnvJWTSecret  = "TILLPOINT_JWT_SECRET"
	EnvJWTIssuer  = "TILLPOINT_JWT_ISSUER"
	EnvJWTExpMins = "TILLPOINT_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "TILLPOINT_USE_SQLITE"
	EnvAutoMigrate = "TILLPOINT_AUTO_MIGRATE"

	EnvStoreCurrency       = "TILLPOINT_STORE_CURRENCY"
	EnvStoreNearestValue   = "TILLPOINT_STORE_NEAREST_VALUE"
	EnvStoreTaxBase        = "TILLPOINT_STORE_TAX_BASE"
	EnvStoreHonorTaxExempt = "TILLPOINT_STORE_HONOR_TAX_EXEMPT"
	EnvManagerPINHash      = "TILLPOINT_MANAGER_PIN_HASH"

	EnvGCPProjectID       = "TILLPOINT_GCP_PROJECT_ID"
	EnvPubSubEventsTopic  = "TILLPOINT_PUBSUB_EVENTS_TOPIC"
	EnvOutboxMaxAttempts  = "TILLPOINT_OUTBOX_MAX_ATTEMPTS"
	EnvPINRateLimitWindow = "TILLPOINT_PIN_RATE_LIMIT_WINDOW"

	EnvCronInterval           = "TILLPOINT_CRON_INTERVAL"
	EnvCronMaxRegisterSession = "TILLPOINT_CRON_MAX_REGISTER_SESSION"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
