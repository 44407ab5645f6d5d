package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrJWTSecretMissing is returned by Validate when no signing secret is configured.
var ErrJWTSecretMissing = errors.New("config: jwt.secret is required")

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Store     StoreSettings     `mapstructure:"store"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Elastic   ElasticSettings   `mapstructure:"elastic"`
	Sentry    SentrySettings    `mapstructure:"sentry"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Security  SecuritySettings  `mapstructure:"security"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	Sessions  SessionSettings   `mapstructure:"sessions"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreSettings selects the credential store backend.
type StoreSettings struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS. Host empty disables Redis.
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the event producer. No brokers selects the stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// ElasticSettings configures the login-attempt audit index. No addresses disables it.
type ElasticSettings struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	AuditIndex string   `mapstructure:"audit_index"`
}

// SentrySettings configures error reporting. Empty DSN disables it.
type SentrySettings struct {
	DSN string `mapstructure:"dsn"`
}

type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RememberMeTTL   time.Duration `mapstructure:"remember_me_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// SecuritySettings configures password hashing and policy.
type SecuritySettings struct {
	Hasher           string         `mapstructure:"hasher"`
	BcryptCost       int            `mapstructure:"bcrypt_cost"`
	HashConcurrency  int            `mapstructure:"hash_concurrency"`
	Argon2           Argon2Settings `mapstructure:"argon2"`
	MinPasswordScore int            `mapstructure:"min_password_score"`
	DeniedDomains    []string       `mapstructure:"denied_domains"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// LockoutSettings configures progressive account lockout.
type LockoutSettings struct {
	Threshold    int           `mapstructure:"threshold"`
	Duration     time.Duration `mapstructure:"duration"`
	AuditTimeout time.Duration `mapstructure:"audit_timeout"`
}

// SessionSettings bounds refresh sessions per user.
type SessionSettings struct {
	Keep int `mapstructure:"keep"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	Backend             string        `mapstructure:"backend"`
	WindowDuration      time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts    int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts int           `mapstructure:"register_max_attempts"`
	RefreshMaxAttempts  int           `mapstructure:"refresh_max_attempts"`
	GCThreshold         int           `mapstructure:"gc_threshold"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("FOCUS")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"store.driver",
		"store.sqlite_path",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"elastic.addresses",
		"elastic.username",
		"elastic.password",
		"elastic.audit_index",
		"sentry.dsn",
		"jwt.secret",
		"jwt.issuer",
		"jwt.audience",
		"jwt.access_token_ttl",
		"jwt.remember_me_ttl",
		"jwt.refresh_token_ttl",
		"security.hasher",
		"security.bcrypt_cost",
		"security.hash_concurrency",
		"security.argon2.memory",
		"security.argon2.iterations",
		"security.argon2.parallelism",
		"security.argon2.salt_length",
		"security.argon2.key_length",
		"security.min_password_score",
		"security.denied_domains",
		"lockout.threshold",
		"lockout.duration",
		"lockout.audit_timeout",
		"sessions.keep",
		"rate_limit.backend",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.register_max_attempts",
		"rate_limit.refresh_max_attempts",
		"rate_limit.gc_threshold",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrJWTSecretMissing
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
	case StoreDriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("config: store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unsupported store.driver %q", c.Store.Driver)
	}

	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if strings.TrimSpace(c.Redis.Host) == "" {
			return fmt.Errorf("config: rate_limit.backend=redis requires redis.host")
		}
	default:
		return fmt.Errorf("config: unsupported rate_limit.backend %q", c.RateLimit.Backend)
	}

	if c.Lockout.Threshold <= 0 {
		return fmt.Errorf("config: lockout.threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return fmt.Errorf("config: lockout.duration must be positive")
	}
	if c.Sessions.Keep <= 0 {
		return fmt.Errorf("config: sessions.keep must be positive")
	}
	// A per-IP login limit at or below the lockout threshold answers 429 before the lock is ever reported.
	if c.RateLimit.LoginMaxAttempts > 0 && c.RateLimit.LoginMaxAttempts <= c.Lockout.Threshold {
		return fmt.Errorf("config: rate_limit.login_max_attempts (%d) must exceed lockout.threshold (%d)",
			c.RateLimit.LoginMaxAttempts, c.Lockout.Threshold)
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("config: rate_limit.window_duration must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "focusmate-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.allowed_origins", []string{"*"})

	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("store.sqlite_path", "focusmate.db")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "focusmate")
	v.SetDefault("postgres.password", "focusmate_password")
	v.SetDefault("postgres.database", "focusmate")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "focus:ratelimit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "focusmate")
	v.SetDefault("kafka.async", true)

	v.SetDefault("elastic.addresses", []string{})
	v.SetDefault("elastic.audit_index", "focusmate-login-attempts")

	v.SetDefault("sentry.dsn", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "focusmate-app")
	v.SetDefault("jwt.audience", "focusmate-users")
	v.SetDefault("jwt.access_token_ttl", "24h")
	v.SetDefault("jwt.remember_me_ttl", "720h")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("security.hasher", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.hash_concurrency", 0)
	v.SetDefault("security.argon2.memory", 65536) // 64 MB
	v.SetDefault("security.argon2.iterations", 3)
	v.SetDefault("security.argon2.parallelism", 4)
	v.SetDefault("security.argon2.salt_length", 16)
	v.SetDefault("security.argon2.key_length", 32)
	v.SetDefault("security.min_password_score", 0)
	v.SetDefault("security.denied_domains", []string{})

	v.SetDefault("lockout.threshold", 5)
	v.SetDefault("lockout.duration", "30m")
	v.SetDefault("lockout.audit_timeout", "2s")

	v.SetDefault("sessions.keep", 5)

	v.SetDefault("rate_limit.backend", RateLimitBackendMemory)
	v.SetDefault("rate_limit.window_duration", "15m")
	v.SetDefault("rate_limit.login_max_attempts", 20)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.refresh_max_attempts", 10)
	v.SetDefault("rate_limit.gc_threshold", 10000)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "focusmate-auth")
	v.SetDefault("telemetry.sampling_rate", 1.0)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "FOCUS_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
