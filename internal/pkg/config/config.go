package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Registry RegistryConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	// AdminPassphraseHash is a bcrypt hash. When empty, AdminPassphrase is
	// hashed at startup instead.
	AdminPassphraseHash string        `env:"ADMIN_PASSPHRASE_HASH"`
	AdminPassphrase     string        `env:"ADMIN_PASSPHRASE"`
	SessionTTL          time.Duration `env:"SESSION_TTL, default=24h"`
}

type RegistryConfig struct {
	IdentityKeyPolicy string        `env:"IDENTITY_KEY_POLICY, default=account"`
	DraftTTL          time.Duration `env:"DRAFT_TTL,           default=72h"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT,       default=5s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,     default=15s"`
	UpsertWorkers     int           `env:"UPSERT_WORKERS,      default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=intern_registry"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AdminPassphraseHash == "" && c.Auth.AdminPassphrase == "" {
		errs = append(errs, errors.New("one of ADMIN_PASSPHRASE_HASH or ADMIN_PASSPHRASE is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Registry.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
