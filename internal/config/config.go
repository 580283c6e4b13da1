package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Hub tuning. HeartbeatInterval bounds stale-connection detection at two
	// intervals worst case; MaxConnsPerTenant rejects connections beyond the
	// cap to keep one tenant from exhausting the process.
	HeartbeatInterval time.Duration `env:"WS_HEARTBEAT_INTERVAL" envDefault:"30s"`
	MaxConnsPerTenant int           `env:"WS_MAX_CONNS_PER_TENANT" envDefault:"200"`
	SendBufferSize    int           `env:"WS_SEND_BUFFER_SIZE" envDefault:"16"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HeartbeatInterval < time.Second {
		return nil, fmt.Errorf("WS_HEARTBEAT_INTERVAL must be at least 1s, got %s", cfg.HeartbeatInterval)
	}
	if cfg.MaxConnsPerTenant < 1 {
		return nil, fmt.Errorf("WS_MAX_CONNS_PER_TENANT must be positive, got %d", cfg.MaxConnsPerTenant)
	}
	if cfg.SendBufferSize < 1 {
		return nil, fmt.Errorf("WS_SEND_BUFFER_SIZE must be positive, got %d", cfg.SendBufferSize)
	}

	return cfg, nil
}
