package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Apple         AppleConfig
	Google        GoogleConfig
	Exchange      ExchangeConfig
	Mailgun       MailgunConfig
	Invoice       InvoiceConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETORO_APP_ENV" required:"true"`
	Port         string `envconfig:"RETORO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETORO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETORO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETORO_DB_DSN"`
	Driver string `envconfig:"RETORO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETORO_DB_HOST"`
	LegacyPort     int    `envconfig:"RETORO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETORO_DB_USER"`
	LegacyPassword string `envconfig:"RETORO_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETORO_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETORO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETORO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETORO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETORO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETORO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETORO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RETORO_REDIS_ADDR"`
	Password     string        `envconfig:"RETORO_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETORO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETORO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETORO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETORO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETORO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETORO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the opaque bearer tokens stored in Postgres.
type SessionConfig struct {
	TokenTTLHours       int `envconfig:"RETORO_SESSION_TTL_HOURS" default:"720"`
	MagicLinkTTLMinutes int `envconfig:"RETORO_MAGIC_LINK_TTL_MINUTES" default:"15"`
}

// TokenTTL returns the session lifetime (30 days by default). A
// non-positive value falls back to the default rather than issuing
// tokens that expire at creation.
func (s SessionConfig) TokenTTL() time.Duration {
	if s.TokenTTLHours <= 0 {
		return 720 * time.Hour
	}
	return time.Duration(s.TokenTTLHours) * time.Hour
}

// MagicLinkTTL returns how long a magic-link token stays redeemable
// (15 minutes by default).
func (s SessionConfig) MagicLinkTTL() time.Duration {
	if s.MagicLinkTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.MagicLinkTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETORO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETORO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETORO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETORO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETORO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RETORO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RETORO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RETORO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RETORO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RETORO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RETORO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	MagicLinkWindow    time.Duration `envconfig:"RETORO_AUTH_RATE_LIMIT_MAGIC_WINDOW" default:"5m"`
	MagicLinkLimit     int           `envconfig:"RETORO_AUTH_RATE_LIMIT_MAGIC_EMAIL_LIMIT" default:"3"`
}

type AppleConfig struct {
	BundleID string `envconfig:"RETORO_APPLE_BUNDLE_ID" default:"com.retoro.app"`
	JWKSURL  string `envconfig:"RETORO_APPLE_JWKS_URL" default:"https://appleid.apple.com/auth/keys"`
	Issuer   string `envconfig:"RETORO_APPLE_ISSUER" default:"https://appleid.apple.com"`
}

type GoogleConfig struct {
	ClientID     string `envconfig:"RETORO_GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"RETORO_GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `envconfig:"RETORO_GOOGLE_REDIRECT_URI"`
	CallbackURI  string `envconfig:"RETORO_GOOGLE_APP_CALLBACK" default:"retoro://callback"`
}

// Configured reports whether the Google OAuth flow can be served.
func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURI != ""
}

type ExchangeConfig struct {
	APIKey   string        `envconfig:"RETORO_EXCHANGE_RATE_API_KEY"`
	BaseURL  string        `envconfig:"RETORO_EXCHANGE_RATE_BASE_URL" default:"https://v6.exchangerate-api.com/v6"`
	CacheTTL time.Duration `envconfig:"RETORO_EXCHANGE_RATE_CACHE_TTL" default:"1h"`
}

type MailgunConfig struct {
	Domain       string `envconfig:"RETORO_MAILGUN_DOMAIN"`
	APIKey       string `envconfig:"RETORO_MAILGUN_API_KEY"`
	Sender       string `envconfig:"RETORO_MAILGUN_FROM_EMAIL" default:"noreply@retoro.app"`
	SupportEmail string `envconfig:"RETORO_SUPPORT_EMAIL" default:"support@retoro.app"`
	LinkBaseURL  string `envconfig:"RETORO_MAGIC_LINK_BASE_URL" default:"https://retoro.app/auth/verify"`
}

type InvoiceConfig struct {
	WebhookURL  string `envconfig:"RETORO_INVOICE_WEBHOOK_URL"`
	MaxUploadMB int    `envconfig:"RETORO_INVOICE_MAX_UPLOAD_MB" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETORO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
