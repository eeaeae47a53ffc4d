// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Connect creates a Zeebe client and verifies it with a topology request.
func Connect(ctx context.Context, gatewayAddress string, plaintext bool) (zbc.Client, error) {
	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         gatewayAddress,
		UsePlaintextConnection: plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		_ = client.Close()
		return nil, mapZeebeError(err, "topology")
	}
	return client, nil
}

// RetryWithBackoff runs operation until it succeeds, the attempts are exhausted or ctx ends.
// Delays double from BaseDelay and are capped at MaxDelay.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, log logger.Logger, operationName string, operation func(ctx context.Context) error) error {
	var err error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  cfg.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, cfg.MaxRetries, err)
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError converts gateway errors into StandardErrors.
func mapZeebeError(err error, operation string) error {
	wrapped := fmt.Errorf("zeebe operation '%s' failed: %w", operation, err)
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", wrapped)
	case isRetryableZeebeError(err):
		return errors.NewExternalServiceError("zeebe", wrapped)
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "unauthenticated"):
		return errors.NewBusinessRuleError("zeebe rejected credentials", wrapped.Error())
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}
