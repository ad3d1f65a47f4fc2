package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	MLM       MLMConfig
	Reconcile ReconcileConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	// MigrateOnStart applies the embedded SQL migrations before serving
	MigrateOnStart bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	InviteTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
	// RequestTimeout bounds each request's context; zero disables it.
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// MLMConfig holds the referral tree and commission engine settings
type MLMConfig struct {
	// MaxPlacementDepth bounds the level-order search below a referrer.
	// A search that goes deeper fails with TREE_FULL.
	MaxPlacementDepth int
	// PlacementRetries is how many times a lost slot claim is retried
	// before PLACEMENT_CONTENTION is returned.
	PlacementRetries int
	// MaxTreeDepth caps the depth served by descendant tree queries.
	MaxTreeDepth          int
	MaxProfilesPerAccount int
	// IdempotencyBackend selects the processed-orders cache: "memory" or "redis".
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
}

// ReconcileConfig controls the nightly earnings ledger sweep
type ReconcileConfig struct {
	Enabled bool
	// Schedule is "minute hour * * *"; only the first two fields are honored.
	Schedule   string
	Workers    int
	JobTimeout time.Duration
	Retries    int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MLM_ prefix (e.g., MLM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			InviteTokenExpiration: v.GetDuration("jwt.invite_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			RequestTimeout: v.GetDuration("http.request_timeout"),
			MaxBodyBytes:   v.GetInt64("http.max_body_bytes"),
		},
		MLM: MLMConfig{
			MaxPlacementDepth:     v.GetInt("mlm.max_placement_depth"),
			PlacementRetries:      v.GetInt("mlm.placement_retries"),
			MaxTreeDepth:          v.GetInt("mlm.max_tree_depth"),
			MaxProfilesPerAccount: v.GetInt("mlm.max_profiles_per_account"),
			IdempotencyBackend:    v.GetString("mlm.idempotency_backend"),
			IdempotencyTTL:        v.GetDuration("mlm.idempotency_ttl"),
		},
		Reconcile: ReconcileConfig{
			Enabled:    v.GetBool("reconcile.enabled"),
			Schedule:   v.GetString("reconcile.schedule"),
			Workers:    v.GetInt("reconcile.workers"),
			JobTimeout: v.GetDuration("reconcile.job_timeout"),
			Retries:    v.GetInt("reconcile.retries"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mlm-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "mlmshop"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.InviteTokenExpiration == 0 {
		cfg.JWT.InviteTokenExpiration = 72 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "mlm-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if cfg.MLM.MaxPlacementDepth == 0 {
		cfg.MLM.MaxPlacementDepth = 64
	}
	if cfg.MLM.PlacementRetries == 0 {
		cfg.MLM.PlacementRetries = 5
	}
	if cfg.MLM.MaxTreeDepth == 0 {
		cfg.MLM.MaxTreeDepth = 6
	}
	if cfg.MLM.MaxProfilesPerAccount == 0 {
		cfg.MLM.MaxProfilesPerAccount = 5
	}
	if cfg.MLM.IdempotencyBackend == "" {
		cfg.MLM.IdempotencyBackend = "memory"
	}
	if cfg.MLM.IdempotencyTTL == 0 {
		cfg.MLM.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Reconcile.Schedule == "" {
		cfg.Reconcile.Schedule = "0 2 * * *"
	}
	if cfg.Reconcile.Workers == 0 {
		cfg.Reconcile.Workers = 4
	}
	if cfg.Reconcile.JobTimeout == 0 {
		cfg.Reconcile.JobTimeout = time.Minute
	}
	if cfg.Reconcile.Retries == 0 {
		cfg.Reconcile.Retries = 3
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.MLM.MaxPlacementDepth < 1 {
		return fmt.Errorf("mlm.max_placement_depth must be positive")
	}
	if c.MLM.PlacementRetries < 1 {
		return fmt.Errorf("mlm.placement_retries must be positive")
	}
	if c.MLM.MaxTreeDepth < 1 {
		return fmt.Errorf("mlm.max_tree_depth must be positive")
	}
	if c.MLM.MaxProfilesPerAccount < 1 {
		return fmt.Errorf("mlm.max_profiles_per_account must be positive")
	}
	switch c.MLM.IdempotencyBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("mlm.idempotency_backend must be 'memory' or 'redis', got %q", c.MLM.IdempotencyBackend)
	}

	if c.Reconcile.Workers < 1 {
		return fmt.Errorf("reconcile.workers must be positive")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.MLM.IdempotencyBackend == "memory" {
			return fmt.Errorf("mlm.idempotency_backend must be 'redis' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
