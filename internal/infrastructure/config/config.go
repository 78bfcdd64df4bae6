package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string        `env:"PORT,        default=8080"`
	Env         string        `env:"ENV,         default=development"`
	LogLevel    string        `env:"LOG_LEVEL,   default=info"`
	CORSOrigins []string      `env:"CORS_ORIGINS, default=*"`
	NotifyDelay time.Duration `env:"NOTIFY_DELAY, default=1s"`

	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Daily    DailyConfig
	Email    EmailConfig
	Admin    AdminConfig
}

type PostgresConfig struct {
	URL     string `env:"DATABASE_URL"`
	Migrate bool   `env:"DB_MIGRATE, default=true"`
}

// MongoConfig is optional; an empty URI disables the audit trail.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=counseling"`
}

// RedisConfig is optional; an empty Addr disables the distributed accept guard.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER, default=counseling-api"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type DailyConfig struct {
	APIKey  string        `env:"DAILY_API_KEY"`
	BaseURL string        `env:"DAILY_API_URL, default=https://api.daily.co/v1"`
	Timeout time.Duration `env:"DAILY_TIMEOUT, default=10s"`
}

type EmailConfig struct {
	APIKey  string        `env:"RESEND_API_KEY"`
	BaseURL string        `env:"RESEND_API_URL, default=https://api.resend.com"`
	From    string        `env:"EMAIL_FROM,     default=CampusCare <no-reply@campuscare.app>"`
	AppURL  string        `env:"APP_URL,        default=http://localhost:5173"`
	Timeout time.Duration `env:"EMAIL_TIMEOUT,  default=10s"`
}

// AdminConfig seeds the first admin account when both fields are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME, default=Administrator"`
}

// Load reads a .env file when present, then the environment, using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Postgres.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.NotifyDelay < 0 {
		errs = append(errs, errors.New("NOTIFY_DELAY must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
