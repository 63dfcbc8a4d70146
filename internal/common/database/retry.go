// internal/common/database/retry.go
package database

import (
	"context"
	"fmt"
	"time"
)

// Logger is the subset of logger.Logger used while connecting.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// RetryWithBackoff calls op until it succeeds, doubling the delay after
// each failure. It gives up after maxAttempts or when ctx is done.
func RetryWithBackoff(ctx context.Context, log Logger, name string, maxAttempts int, initialDelay time.Duration, op func(context.Context) error) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, attempt, ctx.Err())
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, err)
}
