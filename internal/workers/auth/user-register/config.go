package userregister

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout         time.Duration
	BcryptCost      int
	MinPasswordLen  int
	AdvisorCapacity int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		BcryptCost:      10,
		MinPasswordLen:  8,
		AdvisorCapacity: 5,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}
	if c.MinPasswordLen < 1 {
		return fmt.Errorf("min password length must be positive")
	}
	return nil
}
