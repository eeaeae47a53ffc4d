package completeadvisorprofile

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout        time.Duration
	MaxCapacity    int
	RequireIndexed bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		MaxCapacity: 50,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive")
	}
	return nil
}
