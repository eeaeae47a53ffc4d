package runbatchmatch

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout      time.Duration
	MaxBatchSize int
	LockScope    string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		MaxBatchSize: 500,
		LockScope:    "batch",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.LockScope == "" {
		return fmt.Errorf("lock scope is required")
	}
	return nil
}
