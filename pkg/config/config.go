package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mintforge/collections-backend/pkg/evm"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Chain        ChainConfig
	Committee    CommitteeConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	RateLimit    RateLimitConfig
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
	if err := cfg.Chain.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MINTFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"MINTFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MINTFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MINTFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MINTFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MINTFORGE_DB_DSN"`
	Driver string `envconfig:"MINTFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MINTFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"MINTFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MINTFORGE_DB_USER"`
	LegacyPassword string `envconfig:"MINTFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MINTFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MINTFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MINTFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MINTFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MINTFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MINTFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MINTFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MINTFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"MINTFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MINTFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MINTFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MINTFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MINTFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MINTFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MINTFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MINTFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MINTFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MINTFORGE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MINTFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MINTFORGE_AUTO_MIGRATE" default:"false"`
}

// ChainConfig pins the deterministic deployment parameters. The factory and
// implementation addresses are part of every computed proxy address, so they
// must be identical across all instances pointed at the same database.
type ChainConfig struct {
	FactoryAddress        string `envconfig:"MINTFORGE_CHAIN_FACTORY_ADDRESS" required:"true"`
	ImplementationAddress string `envconfig:"MINTFORGE_CHAIN_IMPLEMENTATION_ADDRESS" required:"true"`
	ForwarderAddress      string `envconfig:"MINTFORGE_CHAIN_FORWARDER_ADDRESS"`

	GracePeriod time.Duration `envconfig:"MINTFORGE_CHAIN_GRACE_PERIOD" default:"168h"`
}

func (c ChainConfig) validate() error {
	if _, err := evm.ParseAddress(c.FactoryAddress); err != nil {
		return fmt.Errorf("%s: %w", EnvChainFactoryAddress, err)
	}
	if _, err := evm.ParseAddress(c.ImplementationAddress); err != nil {
		return fmt.Errorf("%s: %w", EnvChainImplementationAddress, err)
	}
	if c.ForwarderAddress != "" {
		if _, err := evm.ParseAddress(c.ForwarderAddress); err != nil {
			return fmt.Errorf("MINTFORGE_CHAIN_FORWARDER_ADDRESS: %w", err)
		}
	}
	return nil
}

// Factory returns the parsed factory address. validate runs at Load time, so
// parsing cannot fail here.
func (c ChainConfig) Factory() evm.Address {
	return evm.MustAddress(c.FactoryAddress)
}

func (c ChainConfig) Implementation() evm.Address {
	return evm.MustAddress(c.ImplementationAddress)
}

func (c ChainConfig) Forwarder() evm.Address {
	if c.ForwarderAddress == "" {
		return evm.ZeroAddress
	}
	return evm.MustAddress(c.ForwarderAddress)
}

// CommitteeConfig configures the fee layer in front of collection creation.
// CreationFee is a base-unit integer amount of the accepted pay token.
type CommitteeConfig struct {
	AcceptedToken string `envconfig:"MINTFORGE_COMMITTEE_ACCEPTED_TOKEN"`
	CreationFee   string `envconfig:"MINTFORGE_COMMITTEE_CREATION_FEE" default:"0"`
	FeesCollector string `envconfig:"MINTFORGE_COMMITTEE_FEES_COLLECTOR"`
	Admin         string `envconfig:"MINTFORGE_COMMITTEE_ADMIN"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MINTFORGE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MINTFORGE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MINTFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MINTFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MINTFORGE_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"MINTFORGE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type RateLimitConfig struct {
	Requests int64         `envconfig:"MINTFORGE_RATE_LIMIT_REQUESTS" default:"120"`
	Window   time.Duration `envconfig:"MINTFORGE_RATE_LIMIT_WINDOW" default:"1m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MINTFORGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MINTFORGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MINTFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
