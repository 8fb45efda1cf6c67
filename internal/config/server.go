package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig holds HTTP server settings read from TALLY_* environment
// variables.
type ServerConfig struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	RateLimit      int           `envconfig:"RATE_LIMIT" default:"60"` // requests per client per minute
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// LoadServer reads ServerConfig from the environment.
func LoadServer() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("tally", &cfg); err != nil {
		return nil, fmt.Errorf("reading server environment: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("TALLY_RATE_LIMIT must not be negative, got %d", cfg.RateLimit)
	}
	return &cfg, nil
}
