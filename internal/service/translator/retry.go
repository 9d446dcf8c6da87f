package translator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxRetries        = 3
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 60 * time.Second
	backoffFactor     = 2
)

func retryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= backoffFactor
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// isRetryable reports whether an upstream failure is worth another
// attempt: transient network conditions, rate limits, and 5xx statuses.
// Validation and API-key problems are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"rate limit",
		"too many requests",
		"service unavailable",
		"internal server error",
		"bad gateway",
		"gateway timeout",
		"429",
		"500",
		"502",
		"503",
		"504",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to maxRetries times with exponential backoff,
// aborting early for non-retryable errors or context cancellation.
func withRetry(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries-1 || !isRetryable(lastErr) {
			break
		}

		delay := retryDelay(attempt)
		logger.Warn("Retryable failure, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
