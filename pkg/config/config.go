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
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	RateLimit    RateLimitConfig
	Inventory    InventoryConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STOCKROUTE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKROUTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKROUTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKROUTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKROUTE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKROUTE_DB_DSN"`
	Driver string `envconfig:"STOCKROUTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKROUTE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKROUTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKROUTE_DB_USER"`
	LegacyPassword string `envconfig:"STOCKROUTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKROUTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKROUTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKROUTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKROUTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKROUTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKROUTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKROUTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKROUTE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKROUTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKROUTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKROUTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKROUTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKROUTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKROUTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKROUTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig validates bearer tokens minted by the identity service. Tokens are optional on
// requests; when present their tenant claim must match X-Tenant-ID.
type JWTConfig struct {
	Secret string `envconfig:"STOCKROUTE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOCKROUTE_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"STOCKROUTE_AUTO_MIGRATE" default:"false"`
	RequireToken bool `envconfig:"STOCKROUTE_REQUIRE_TOKEN" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"STOCKROUTE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"STOCKROUTE_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

// RateLimitConfig throttles mutating requests per tenant. A zero limit disables throttling.
type RateLimitConfig struct {
	TenantWriteWindow time.Duration `envconfig:"STOCKROUTE_RATE_LIMIT_TENANT_WRITE_WINDOW" default:"1m"`
	TenantWriteLimit  int           `envconfig:"STOCKROUTE_RATE_LIMIT_TENANT_WRITE_LIMIT" default:"0"`
}

type InventoryConfig struct {
	ExpiryWindowDays int `envconfig:"STOCKROUTE_INVENTORY_EXPIRY_WINDOW_DAYS" default:"30"`
}

// ExpiryWindow returns the look-ahead used for batch expiry alerts.
func (i InventoryConfig) ExpiryWindow() time.Duration {
	days := i.ExpiryWindowDays
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"STOCKROUTE_CRON_INTERVAL" default:"24h"`
	LockTTL               time.Duration `envconfig:"STOCKROUTE_CRON_LOCK_TTL" default:"30m"`
	OutboxRetention       time.Duration `envconfig:"STOCKROUTE_CRON_OUTBOX_RETENTION" default:"720h"`
	ExpirySweepBatchLimit int           `envconfig:"STOCKROUTE_CRON_EXPIRY_SWEEP_LIMIT" default:"500"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKROUTE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOCKROUTE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKROUTE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"STOCKROUTE_PUBSUB_DOMAIN_TOPIC" default:"sr-domain-events"`
	AlertsTopic           string `envconfig:"STOCKROUTE_PUBSUB_ALERTS_TOPIC" default:"sr-alert-events"`
	AnalyticsSubscription string `envconfig:"STOCKROUTE_PUBSUB_ANALYTICS_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"STOCKROUTE_BIGQUERY_DATASET" default:"stockroute"`
	InventoryTable string `envconfig:"STOCKROUTE_BIGQUERY_INVENTORY_TABLE" default:"inventory_events"`
	DispatchTable  string `envconfig:"STOCKROUTE_BIGQUERY_DISPATCH_TABLE" default:"dispatch_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKROUTE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKROUTE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKROUTE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
