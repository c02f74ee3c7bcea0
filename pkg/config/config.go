package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Library      LibraryConfig
	Stripe       StripeConfig
	Telegram     TelegramConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Library.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LIBRARY_APP_ENV" required:"true"`
	Port         string `envconfig:"LIBRARY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LIBRARY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIBRARY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"LIBRARY_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LIBRARY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LIBRARY_DB_DSN"`
	Driver string `envconfig:"LIBRARY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LIBRARY_DB_HOST"`
	LegacyPort     int    `envconfig:"LIBRARY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LIBRARY_DB_USER"`
	LegacyPassword string `envconfig:"LIBRARY_DB_PASSWORD"`
	LegacyName     string `envconfig:"LIBRARY_DB_NAME"`
	LegacySSLMode  string `envconfig:"LIBRARY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LIBRARY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LIBRARY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LIBRARY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LIBRARY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIBRARY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LIBRARY_REDIS_ADDR"`
	Password     string        `envconfig:"LIBRARY_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIBRARY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIBRARY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIBRARY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIBRARY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIBRARY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LIBRARY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"LIBRARY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LIBRARY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LIBRARY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LIBRARY_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	NotifyTimeout time.Duration `envconfig:"LIBRARY_EVENTING_NOTIFY_TIMEOUT" default:"10s"`
}

// LibraryConfig carries the borrowing and payment business settings.
type LibraryConfig struct {
	FineMultiplier decimal.Decimal `envconfig:"LIBRARY_FINE_MULTIPLIER" required:"true"`
	PublicBaseURL  string          `envconfig:"LIBRARY_PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

func (l LibraryConfig) validate() error {
	if !l.FineMultiplier.IsPositive() {
		return fmt.Errorf("%s must be positive", EnvFineMultiplier)
	}
	if _, err := url.ParseRequestURI(l.PublicBaseURL); err != nil {
		return fmt.Errorf("%s is not a valid url: %w", EnvPublicBaseURL, err)
	}
	return nil
}

type StripeConfig struct {
	APIKey   string `envconfig:"LIBRARY_STRIPE_API_KEY"`
	Env      string `envconfig:"LIBRARY_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"LIBRARY_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type TelegramConfig struct {
	BotToken string `envconfig:"LIBRARY_TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"LIBRARY_TELEGRAM_CHAT_ID"`
}

// Enabled reports whether both Telegram credentials are present.
func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && t.ChatID != 0
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LIBRARY_CRON_INTERVAL" default:"24h"`
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
