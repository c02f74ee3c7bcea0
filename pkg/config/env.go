package config

const (
	EnvPrefix = "LIBRARY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "LIBRARY_APP_ENV"
	EnvPort         = "LIBRARY_APP_PORT"
	EnvLogLevel     = "LIBRARY_LOG_LEVEL"
	EnvLogWarnStack = "LIBRARY_LOG_WARN_STACK"
	EnvServiceKind  = "LIBRARY_SERVICE_KIND"

	EnvDBDSN      = "LIBRARY_DB_DSN"
	EnvDBHost     = "LIBRARY_DB_HOST"
	EnvDBPort     = "LIBRARY_DB_PORT"
	EnvDBUser     = "LIBRARY_DB_USER"
	EnvDBPassword = "LIBRARY_DB_PASSWORD"
	EnvDBName     = "LIBRARY_DB_NAME"
	EnvDBSSLMode  = "LIBRARY_DB_SSLMODE"

	EnvRedisURL = "LIBRARY_REDIS_URL"

	EnvJWTSecret  = "LIBRARY_JWT_SECRET"
	EnvJWTIssuer  = "LIBRARY_JWT_ISSUER"
	EnvJWTExpMins = "LIBRARY_JWT_EXPIRATION_MINUTES"

	EnvAutoMigrate = "LIBRARY_AUTO_MIGRATE"

	EnvFineMultiplier = "LIBRARY_FINE_MULTIPLIER"
	EnvPublicBaseURL  = "LIBRARY_PUBLIC_BASE_URL"

	EnvStripeAPIKey   = "LIBRARY_STRIPE_API_KEY"
	EnvStripeEnv      = "LIBRARY_STRIPE_ENV"
	EnvStripeCurrency = "LIBRARY_STRIPE_CURRENCY"

	EnvTelegramBotToken = "LIBRARY_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "LIBRARY_TELEGRAM_CHAT_ID"

	EnvCronInterval = "LIBRARY_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
