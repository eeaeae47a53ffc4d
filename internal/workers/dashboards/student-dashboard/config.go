package studentdashboard

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout            time.Duration
	MaxRecommendations int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:            10 * time.Second,
		MaxRecommendations: 3,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRecommendations < 0 {
		return fmt.Errorf("max recommendations must not be negative")
	}
	return nil
}
