package sendmatchnotification

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout       time.Duration
	NotifyAdvisor bool
	PortalURL     string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		NotifyAdvisor: true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
