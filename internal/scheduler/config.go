package scheduler

import (
	"time"

	"github.com/smallbiznis/villadesk/internal/config"
)

// Config controls scheduler intervals.
type Config struct {
	Enabled           bool
	ReconcileInterval time.Duration
	JobTimeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		ReconcileInterval: time.Hour,
		JobTimeout:        5 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:           cfg.Scheduler.Enabled,
		ReconcileInterval: cfg.Scheduler.ReconcileInterval,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = defaults.ReconcileInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
