// Package config loads srctl settings from SRCTL_* environment variables
package config

import (
	"log/slog"

	"github.com/caarlos0/env"

	"github.com/jpfielding/dicomsr.go/pkg/logging"
)

type Config struct {
	LogLevel       string  `env:"SRCTL_LOG_LEVEL" envDefault:"info"`
	LogFile        string  `env:"SRCTL_LOG_FILE"`
	LogJSON        bool    `env:"SRCTL_LOG_JSON" envDefault:"false"`
	LogMaxSizeMB   int     `env:"SRCTL_LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups  int     `env:"SRCTL_LOG_MAX_BACKUPS" envDefault:"3"`
	PlaneTolerance float64 `env:"SRCTL_PLANE_TOLERANCE_MM" envDefault:"5"`
	DBPath         string  `env:"SRCTL_DB" envDefault:"srctl.db"`
	UIDRoot        string  `env:"SRCTL_UID_ROOT" envDefault:"2.25"`
}

func New() (*Config, error) {
	cfg := &Config{}
	return cfg, env.Parse(cfg)
}

// Level returns the configured slog level
func (c *Config) Level() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}
