package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the exponential backoff loop.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// ShouldRetry classifies an error as transient. A nil classifier
	// retries every error.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns the defaults used for background work
// such as asynchronous interaction logging.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
	}
}

// Retry runs fn up to MaxRetries+1 times with exponential backoff and
// full jitter: delay = rand(0, min(maxDelay, baseDelay * 2^attempt)).
// Context cancellation is honored before each attempt and during each
// backoff sleep.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: context cancelled: %w", ctx.Err())
		default:
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(lastErr) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: context cancelled during backoff: %w", ctx.Err())
		case <-time.After(backoffDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)):
		}
	}

	return fmt.Errorf("retry: max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

func backoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	exp := float64(baseDelay) * math.Pow(2, float64(attempt))
	if exp > float64(maxDelay) {
		exp = float64(maxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
