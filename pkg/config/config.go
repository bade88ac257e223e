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
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Dispatch     DispatchConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TALENTMATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"TALENTMATCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALENTMATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALENTMATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TALENTMATCH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TALENTMATCH_DB_DSN"`
	Driver string `envconfig:"TALENTMATCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TALENTMATCH_DB_HOST"`
	LegacyPort     int    `envconfig:"TALENTMATCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALENTMATCH_DB_USER"`
	LegacyPassword string `envconfig:"TALENTMATCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALENTMATCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALENTMATCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALENTMATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALENTMATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALENTMATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALENTMATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALENTMATCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TALENTMATCH_REDIS_ADDR"`
	Password     string        `envconfig:"TALENTMATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALENTMATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALENTMATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALENTMATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALENTMATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALENTMATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALENTMATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALENTMATCH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALENTMATCH_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TALENTMATCH_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TALENTMATCH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TALENTMATCH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DispatchTopic            string `envconfig:"TALENTMATCH_PUBSUB_DISPATCH_TOPIC" default:"tm-dispatch-events"`
	DispatchSubscription     string `envconfig:"TALENTMATCH_PUBSUB_DISPATCH_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"TALENTMATCH_PUBSUB_NOTIFICATION_TOPIC" default:"tm-notification-events"`
	NotificationSubscription string `envconfig:"TALENTMATCH_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TALENTMATCH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TALENTMATCH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TALENTMATCH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// DispatchConfig tunes the auto-assignment engine.
type DispatchConfig struct {
	OfferWindow         time.Duration `envconfig:"TALENTMATCH_DISPATCH_OFFER_WINDOW" default:"24h"`
	RecencyLookback     time.Duration `envconfig:"TALENTMATCH_DISPATCH_RECENCY_LOOKBACK" default:"336h"`
	ReassignCascadeSlop int           `envconfig:"TALENTMATCH_DISPATCH_CASCADE_SLOP" default:"1"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"TALENTMATCH_CRON_INTERVAL" default:"5m"`
	LockTTL       time.Duration `envconfig:"TALENTMATCH_CRON_LOCK_TTL" default:"10m"`
	WakeRetention time.Duration `envconfig:"TALENTMATCH_CRON_WAKE_RETENTION" default:"168h"`
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
