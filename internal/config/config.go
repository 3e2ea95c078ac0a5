package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	AdminAPIBaseURL string `env:"ADMIN_API_BASE_URL"`
	AdminAPIToken   string `env:"ADMIN_API_TOKEN"`

	PollInterval     time.Duration `env:"POLL_INTERVAL" default:"5s"`
	CountersInterval time.Duration `env:"COUNTERS_INTERVAL" default:"30s"`
	PageSize         int           `env:"PAGE_SIZE" default:"10"`

	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"ADMIN_API_BASE_URL": cfg.AdminAPIBaseURL,
		"ADMIN_API_TOKEN":    cfg.AdminAPIToken,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if !strings.HasPrefix(cfg.AdminAPIBaseURL, "http://") && !strings.HasPrefix(cfg.AdminAPIBaseURL, "https://") {
		return fmt.Errorf("ADMIN_API_BASE_URL must start with http:// or https://")
	}

	if cfg.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", cfg.PollInterval)
	}
	if cfg.CountersInterval < cfg.PollInterval {
		return fmt.Errorf("COUNTERS_INTERVAL must not be shorter than POLL_INTERVAL")
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", cfg.PageSize)
	}

	return nil
}
