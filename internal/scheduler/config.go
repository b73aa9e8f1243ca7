package scheduler

import "time"

// Config controls the periodic status refresh loop.
type Config struct {
	RefreshInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RefreshInterval: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaults.RefreshInterval
	}
	return c
}
