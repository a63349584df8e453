package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// Config is the process-wide configuration shared by every command.
type Config struct {
	DBPath    string  `env:"SSTS_DB"`
	TauLow    float64 `env:"SSTS_TAU_LOW" envDefault:"0.57"`
	TauHigh   float64 `env:"SSTS_TAU_HIGH" envDefault:"0.67"`
	Workers   int     `env:"SSTS_WORKERS"`
	LogLevel  string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string  `env:"LOG_FORMAT" envDefault:"console"`
	HTTPAddr  string  `env:"SSTS_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr  string  `env:"SSTS_GRPC_ADDR" envDefault:":9090"`
	Trace     bool    `env:"SSTS_TRACE" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads optional dotenv files, then the environment. Missing dotenv
// files are not an error; already-set variables win over file values.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Thresholds().Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Thresholds returns the configured gate thresholds.
func (c Config) Thresholds() gate.ThresholdConfig {
	return gate.ThresholdConfig{Low: c.TauLow, High: c.TauHigh}
}
