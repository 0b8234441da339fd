package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	OperatorKey    string        `env:"OPERATOR_KEY,required,notEmpty"`
	JwtSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"60s"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5s"`
	CookieMaxAge   time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"24h"`
	StateFile      string        `env:"STATE_FILE"`
	StaticDir      string        `env:"STATIC_DIR"`
	PollRateLimit  int           `env:"POLL_RATE_LIMIT" envDefault:"120"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownAfter  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func LoadConfig() (*Config, error) {
	godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %v", cfg.SessionTTL)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %v", cfg.SweepInterval)
	}
	if cfg.PollRateLimit <= 0 {
		return nil, fmt.Errorf("POLL_RATE_LIMIT must be positive, got %d", cfg.PollRateLimit)
	}
	return cfg, nil
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
