// Package resilience provides bounded retry for network operations.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Backoff computes the sleep before retry attempt+1 from the zero-based
	// attempt that just failed and its error. Defaults to
	// LinearBackoff(2s, 0).
	Backoff func(attempt int, err error) time.Duration

	// ShouldRetry overrides IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// LinearRetryConfig waits base×(attempt+1) between attempts, or rateLimited
// when the failure was an HTTP 429.
func LinearRetryConfig(maxAttempts int, base, rateLimited time.Duration) RetryConfig {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return RetryConfig{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(base, rateLimited),
	}
}

// LinearBackoff returns a Backoff func for LinearRetryConfig.
func LinearBackoff(base, rateLimited time.Duration) func(int, error) time.Duration {
	return func(attempt int, err error) time.Duration {
		if IsRateLimited(err) && rateLimited > 0 {
			return rateLimited
		}
		return base * time.Duration(attempt+1)
	}
}

// DoVal executes fn, retrying transient failures, and returns its value. The
// zero value is returned on failure. Context cancellation stops retries
// immediately and returns the last error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff == nil {
		cfg.Backoff = LinearBackoff(defaultBaseDelay, 0)
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt >= cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		if !sleep(ctx, cfg.Backoff(attempt, err)) {
			break
		}
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryLogger returns an OnRetry callback that logs each retry at warn level.
func RetryLogger(operation, url string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying request",
			zap.String("operation", operation),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
