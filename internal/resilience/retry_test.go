package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	return LinearRetryConfig(attempts, time.Millisecond, 2*time.Millisecond)
}

func do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func TestDoVal_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := do(context.Background(), RetryConfig{}, func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := do(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ExhaustsRetries(t *testing.T) {
	var calls int
	err := do(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	err := do(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		return errors.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	cfg := LinearRetryConfig(5, 50*time.Millisecond, 0)
	err := do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoVal_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastConfig(3)
	cfg.ShouldRetry = func(err error) bool { return err.Error() == "retry me" }

	err := do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_ = do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 500)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoVal_ReturnsValueOnSuccess(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(3), func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(errors.New("fail"), 500)
		}
		return "hello", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", val)
}

func TestDoVal_ReturnsZeroOnFailure(t *testing.T) {
	val, err := DoVal(context.Background(), fastConfig(2), func(_ context.Context) (int, error) {
		return 42, NewTransientError(errors.New("fail"), 500)
	})
	require.Error(t, err)
	assert.Zero(t, val)
}

func TestLinearBackoff(t *testing.T) {
	b := LinearBackoff(100*time.Millisecond, 400*time.Millisecond)

	plain := NewTransientError(errors.New("unavailable"), 503)
	assert.Equal(t, 100*time.Millisecond, b(0, plain))
	assert.Equal(t, 200*time.Millisecond, b(1, plain))
	assert.Equal(t, 300*time.Millisecond, b(2, plain))

	limited := NewTransientError(errors.New("slow down"), 429)
	assert.Equal(t, 400*time.Millisecond, b(0, limited))
	assert.Equal(t, 400*time.Millisecond, b(3, limited))
}

func TestLinearRetryConfig_UsesBackoff(t *testing.T) {
	var delays []time.Duration
	cfg := LinearRetryConfig(3, time.Millisecond, 2*time.Millisecond)
	inner := cfg.Backoff
	cfg.Backoff = func(attempt int, err error) time.Duration {
		d := inner(attempt, err)
		delays = append(delays, d)
		return d
	}

	var calls int
	_ = do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return NewTransientError(errors.New("busy"), 429)
		}
		return NewTransientError(errors.New("down"), 502)
	})
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDoVal_DefaultsToThreeAttempts(t *testing.T) {
	var calls int
	cfg := RetryConfig{Backoff: func(int, error) time.Duration { return 0 }}
	_, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("fail"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryLogger_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RetryLogger("fetch", "https://example.test")(1, errors.New("x"))
	})
}
