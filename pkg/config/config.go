package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "indipaws"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "INDIPAWS_DB_DSN"
	EnvDBHost = "INDIPAWS_DB_HOST"
	EnvDBUser = "INDIPAWS_DB_USER"
	EnvDBName = "INDIPAWS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	Cart         CartConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"INDIPAWS_APP_ENV" required:"true"`
	Port         string `envconfig:"INDIPAWS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INDIPAWS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INDIPAWS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INDIPAWS_DB_DSN"`
	Driver string `envconfig:"INDIPAWS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INDIPAWS_DB_HOST"`
	LegacyPort     int    `envconfig:"INDIPAWS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INDIPAWS_DB_USER"`
	LegacyPassword string `envconfig:"INDIPAWS_DB_PASSWORD"`
	LegacyName     string `envconfig:"INDIPAWS_DB_NAME"`
	LegacySSLMode  string `envconfig:"INDIPAWS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INDIPAWS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INDIPAWS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INDIPAWS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INDIPAWS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INDIPAWS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INDIPAWS_REDIS_ADDR"`
	Password     string        `envconfig:"INDIPAWS_REDIS_PASSWORD"`
	DB           int           `envconfig:"INDIPAWS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INDIPAWS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INDIPAWS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INDIPAWS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INDIPAWS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INDIPAWS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig covers token *verification* only; tokens are issued by the
// identity service, not this backend.
type JWTConfig struct {
	Secret string `envconfig:"INDIPAWS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"INDIPAWS_JWT_ISSUER" required:"true"`
}

type StripeConfig struct {
	APIKey   string        `envconfig:"INDIPAWS_STRIPE_API_KEY"`
	Env      string        `envconfig:"INDIPAWS_STRIPE_ENV" default:"test"`
	Timeout  time.Duration `envconfig:"INDIPAWS_STRIPE_TIMEOUT" default:"10s"`
	Currency string        `envconfig:"INDIPAWS_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	TaxRateBasisPoints int           `envconfig:"INDIPAWS_CHECKOUT_TAX_RATE_BP" default:"800"`
	NotifyTimeout      time.Duration `envconfig:"INDIPAWS_CHECKOUT_NOTIFY_TIMEOUT" default:"5s"`
}

type CartConfig struct {
	AnonymousTTL time.Duration `envconfig:"INDIPAWS_CART_ANONYMOUS_TTL" default:"168h"`
	OwnedTTL     time.Duration `envconfig:"INDIPAWS_CART_OWNED_TTL" default:"720h"`
	SweepEvery   time.Duration `envconfig:"INDIPAWS_CART_SWEEP_INTERVAL" default:"1h"`
}

// AdminConfig guards the fulfillment endpoints. The key is shared with the
// back-office tooling; an empty key disables the admin surface entirely.
type AdminConfig struct {
	APIKey string `envconfig:"INDIPAWS_ADMIN_API_KEY"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INDIPAWS_AUTO_MIGRATE" default:"false"`
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
