package completestudentprofile

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout      time.Duration
	MaxInterests int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		MaxInterests: 20,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxInterests <= 0 {
		return fmt.Errorf("max interests must be positive")
	}
	return nil
}
