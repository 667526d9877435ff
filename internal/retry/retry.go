// Package retry provides context-aware exponential backoff for transient
// failures, such as perf_event_open returning EBUSY while another consumer
// holds the counters.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior for exponential backoff operations.
// The zero value is not usable; MaxRetries and InitialBackoff must be set.
type Config struct {
	// MaxRetries is the maximum number of attempts. Must be > 0.
	MaxRetries int

	// InitialBackoff is the base backoff duration; attempt n waits
	// InitialBackoff * 2^(n-1). Must be > 0.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Zero means no cap.
	MaxBackoff time.Duration

	// Jitter adds randomness proportional to the attempt number (0.0-1.0).
	// Zero means no jitter.
	Jitter float64
}

// ShouldRetryFunc decides whether an error is worth another attempt.
// A nil function retries every error.
type ShouldRetryFunc func(error) bool

// Do executes fn with exponential backoff retry.
//
// fn is called up to cfg.MaxRetries times. A nil return stops immediately;
// a non-retryable error (per shouldRetry) is returned as-is; exhausting all
// attempts wraps the last error. Context cancellation during a backoff wait
// returns the context error immediately.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(cfg, attempt)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

func calculateBackoff(cfg Config, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt-1))
	backoff := time.Duration(multiplier * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	if cfg.Jitter > 0 {
		jitterAmount := float64(backoff) * cfg.Jitter * float64(attempt) / float64(cfg.MaxRetries)
		backoff += time.Duration(jitterAmount)
	}

	return backoff
}
