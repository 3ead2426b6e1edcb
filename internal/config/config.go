// Package config loads runtime settings with viper: defaults, then an optional
// config file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const developmentJWTSecret = "development-only-secret"

// Config holds runtime configuration for the application.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver string
	DBDSN    string

	JWTSecret          string
	TokenTTL           time.Duration
	TokenPruneInterval time.Duration

	RedisAddr     string
	SessionCookie string
	SessionTTL    time.Duration

	RabbitMQURL string

	LoginRateLimit int
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:articles.db?cache=shared&_foreign_keys=1")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("TOKEN_PRUNE_INTERVAL", "1h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("SESSION_COOKIE", "articles_session")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOGIN_RATE_LIMIT", 60)
}

// New returns a viper instance with defaults, an optional config.yaml from
// the working directory or /etc/articles, and environment overrides.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/articles")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads a Config out of v and checks it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                v.GetString("APP_ENV"),
		Port:               v.GetString("APP_PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		DBDriver:           v.GetString("DB_DRIVER"),
		DBDSN:              v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		TokenPruneInterval: v.GetDuration("TOKEN_PRUNE_INTERVAL"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		SessionCookie:      v.GetString("SESSION_COOKIE"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		LoginRateLimit:     v.GetInt("LOGIN_RATE_LIMIT"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = developmentJWTSecret
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
