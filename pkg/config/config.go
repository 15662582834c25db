package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	IPaymu       IPaymuConfig
	Midtrans     MidtransConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PUSTAKA_APP_ENV" required:"true"`
	Port         string `envconfig:"PUSTAKA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PUSTAKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PUSTAKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PUSTAKA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PUSTAKA_DB_DSN"`
	Driver string `envconfig:"PUSTAKA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PUSTAKA_DB_HOST"`
	LegacyPort     int    `envconfig:"PUSTAKA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PUSTAKA_DB_USER"`
	LegacyPassword string `envconfig:"PUSTAKA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PUSTAKA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PUSTAKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PUSTAKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PUSTAKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PUSTAKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PUSTAKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PUSTAKA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PUSTAKA_REDIS_ADDR"`
	Password     string        `envconfig:"PUSTAKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PUSTAKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PUSTAKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PUSTAKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PUSTAKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PUSTAKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PUSTAKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PUSTAKA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PUSTAKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PUSTAKA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// IPaymuConfig carries the credentials for the HMAC-signed gateway.
type IPaymuConfig struct {
	VA          string        `envconfig:"PUSTAKA_IPAYMU_VA"`
	APIKey      string        `envconfig:"PUSTAKA_IPAYMU_API_KEY"`
	BaseURL     string        `envconfig:"PUSTAKA_IPAYMU_BASE_URL" default:"https://sandbox.ipaymu.com"`
	CallbackURL string        `envconfig:"PUSTAKA_IPAYMU_CALLBACK_URL"`
	ReturnURL   string        `envconfig:"PUSTAKA_IPAYMU_RETURN_URL"`
	Timeout     time.Duration `envconfig:"PUSTAKA_IPAYMU_TIMEOUT" default:"8s"`
}

// MidtransConfig carries the server key for the SHA-512 signed gateway.
type MidtransConfig struct {
	ServerKey string        `envconfig:"PUSTAKA_MIDTRANS_SERVER_KEY"`
	BaseURL   string        `envconfig:"PUSTAKA_MIDTRANS_BASE_URL" default:"https://app.sandbox.midtrans.com"`
	Timeout   time.Duration `envconfig:"PUSTAKA_MIDTRANS_TIMEOUT" default:"8s"`
}

type CheckoutConfig struct {
	DefaultGateway string        `envconfig:"PUSTAKA_CHECKOUT_DEFAULT_GATEWAY" default:"midtrans"`
	PendingTTL     time.Duration `envconfig:"PUSTAKA_CHECKOUT_PENDING_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PUSTAKA_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PUSTAKA_CRON_LOCK_TTL" default:"2h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PUSTAKA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	BillingTopic        string `envconfig:"PUSTAKA_PUBSUB_BILLING_TOPIC" default:"pustaka-billing-events"`
	BillingSubscription string `envconfig:"PUSTAKA_PUBSUB_BILLING_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PUSTAKA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PUSTAKA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PUSTAKA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PUSTAKA_AUTO_MIGRATE" default:"false"`
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
