package config

// EnvPrefix is applied by envconfig to every variable below.
const EnvPrefix = "RETORO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "RETORO_APP_ENV"
	EnvPort     = "RETORO_APP_PORT"
	EnvDBDSN    = "RETORO_DB_DSN"
	EnvDBHost   = "RETORO_DB_HOST"
	EnvDBUser   = "RETORO_DB_USER"
	EnvDBName   = "RETORO_DB_NAME"
	EnvRedisURL = "RETORO_REDIS_URL"

	EnvSessionTTLHours     = "RETORO_SESSION_TTL_HOURS"
	EnvMagicLinkTTLMinutes = "RETORO_MAGIC_LINK_TTL_MINUTES"

	EnvAppleBundleID      = "RETORO_APPLE_BUNDLE_ID"
	EnvGoogleClientID     = "RETORO_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "RETORO_GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURI  = "RETORO_GOOGLE_REDIRECT_URI"

	EnvExchangeAPIKey    = "RETORO_EXCHANGE_RATE_API_KEY"
	EnvInvoiceWebhookURL = "RETORO_INVOICE_WEBHOOK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
