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
	Password     PasswordConfig
	PINRateLimit PINRateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Store        StoreConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TILLPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TILLPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TILLPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TILLPOINT_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the till and back-office origins, comma separated.
	CORSOrigins []string `envconfig:"TILLPOINT_CORS_ORIGINS" default:"https://till.tillpoint.app,https://backoffice.tillpoint.app"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TILLPOINT_SERVICE_KIND" default:"api"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN    string `envconfig:"TILLPOINT_DB_DSN"`
	Driver string `envconfig:"TILLPOINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TILLPOINT_DB_HOST"`
	LegacyPort     int    `envconfig:"TILLPOINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TILLPOINT_DB_USER"`
	LegacyPassword string `envconfig:"TILLPOINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TILLPOINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TILLPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TILLPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TILLPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TILLPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TILLPOINT_REDIS_URL"`
	Address      string        `envconfig:"TILLPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"TILLPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TILLPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TILLPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TILLPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TILLPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TILLPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TILLPOINT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TILLPOINT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TILLPOINT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// PasswordConfig holds the argon2id parameters used for manager PIN hashes.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TILLPOINT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TILLPOINT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TILLPOINT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TILLPOINT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TILLPOINT_ARGON_KEY_LEN" default:"32"`
}

// PINRateLimitConfig throttles endpoints that verify a manager PIN.
type PINRateLimitConfig struct {
	Window    time.Duration `envconfig:"TILLPOINT_PIN_RATE_LIMIT_WINDOW" default:"5m"`
	IPLimit   int           `envconfig:"TILLPOINT_PIN_RATE_LIMIT_IP_LIMIT" default:"20"`
	UserLimit int           `envconfig:"TILLPOINT_PIN_RATE_LIMIT_USER_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TILLPOINT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TILLPOINT_AUTO_MIGRATE" default:"false"`
}

// StoreConfig carries the store-level defaults used when no settings row exists.
type StoreConfig struct {
	Currency         string          `envconfig:"TILLPOINT_STORE_CURRENCY" default:"USD"`
	NearestValue     decimal.Decimal `envconfig:"TILLPOINT_STORE_NEAREST_VALUE" default:"0"`
	TaxBase          string          `envconfig:"TILLPOINT_STORE_TAX_BASE" default:"pre_discount"`
	HonorTaxExempt   bool            `envconfig:"TILLPOINT_STORE_HONOR_TAX_EXEMPT" default:"false"`
	ManagerPINHash   string          `envconfig:"TILLPOINT_MANAGER_PIN_HASH"`
	SettingsCacheTTL time.Duration   `envconfig:"TILLPOINT_STORE_SETTINGS_CACHE_TTL" default:"5m"`
}

func (s StoreConfig) validate() error {
	if s.NearestValue.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvStoreNearestValue)
	}
	switch s.TaxBase {
	case "pre_discount", "post_discount":
	default:
		return fmt.Errorf("%s must be pre_discount or post_discount, got %q", EnvStoreTaxBase, s.TaxBase)
	}
	return nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"TILLPOINT_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"TILLPOINT_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"TILLPOINT_PUBSUB_EVENTS_TOPIC" default:"tillpoint-pos-events"`
	EventsSubscription string `envconfig:"TILLPOINT_PUBSUB_EVENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TILLPOINT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TILLPOINT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TILLPOINT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig tunes the maintenance jobs run by cmd/cron-worker.
type CronConfig struct {
	Interval           time.Duration `envconfig:"TILLPOINT_CRON_INTERVAL" default:"15m"`
	OutboxRetention    time.Duration `envconfig:"TILLPOINT_CRON_OUTBOX_RETENTION" default:"720h"`
	OutboxBacklogWarn  int64         `envconfig:"TILLPOINT_CRON_OUTBOX_BACKLOG_WARN" default:"500"`
	MaxRegisterSession time.Duration `envconfig:"TILLPOINT_CRON_MAX_REGISTER_SESSION" default:"16h"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"TILLPOINT_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"TILLPOINT_METRICS_PATH" default:"/metrics"`

	// WorkerAddr is where cron-worker and outbox-publisher listen; empty disables it.
	WorkerAddr string `envconfig:"TILLPOINT_METRICS_WORKER_ADDR" default:":9464"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:tillpoint.db?_foreign_keys=on"
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
