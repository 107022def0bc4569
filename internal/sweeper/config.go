package sweeper

import (
	"sort"
	"time"

	"github.com/subsurfio/wellstore/internal/config"
)

// Config controls the sweep period and per-object-type idle timeouts.
type Config struct {
	Interval    time.Duration
	JobTimeout  time.Duration
	ObjectTypes []string
	IdleTimeout map[string]time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:    90 * time.Second,
		JobTimeout:  30 * time.Second,
		ObjectTypes: []string{"log", "mudLog", "trajectory"},
		IdleTimeout: map[string]time.Duration{},
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if len(c.ObjectTypes) == 0 {
		c.ObjectTypes = defaults.ObjectTypes
	}
	if c.IdleTimeout == nil {
		c.IdleTimeout = map[string]time.Duration{}
	}
	return c
}

func (c Config) idleTimeoutFor(objectType string) time.Duration {
	if d, ok := c.IdleTimeout[objectType]; ok && d > 0 {
		return d
	}
	return time.Hour
}

func ProvideConfig(cfg config.Config) Config {
	types := make([]string, 0, len(cfg.GrowingIdleTimeout))
	for t := range cfg.GrowingIdleTimeout {
		types = append(types, t)
	}
	sort.Strings(types)
	return Config{
		Interval:    cfg.SweepInterval,
		JobTimeout:  cfg.SweepJobTimeout,
		ObjectTypes: types,
		IdleTimeout: cfg.GrowingIdleTimeout,
	}
}
