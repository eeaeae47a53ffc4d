package searchadvisors

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout     time.Duration
	DefaultSize int
	// Fallback serves results from Postgres when the directory is unavailable.
	Fallback bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultSize: 20,
		Fallback:    true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultSize <= 0 {
		return fmt.Errorf("default size must be positive")
	}
	return nil
}
