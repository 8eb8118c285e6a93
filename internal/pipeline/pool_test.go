package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
)

func TestPool_RespectsConcurrency(t *testing.T) {
	p := NewPool(2, 0)
	var inFlight, peak atomic.Int64

	errs := p.Run(context.Background(), 8, func(_ context.Context, _ int) error {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	assert.Len(t, errs, 8)
	assert.LessOrEqual(t, peak.Load(), int64(2))
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestPool_ErrorsDoNotAbort(t *testing.T) {
	p := NewPool(3, 0)
	var ran atomic.Int64

	errs := p.Run(context.Background(), 5, func(_ context.Context, i int) error {
		ran.Add(1)
		if i == 1 {
			return errors.New("boom")
		}
		return nil
	})

	assert.Equal(t, int64(5), ran.Load())
	assert.EqualError(t, errs[1], "boom")
	assert.NoError(t, errs[4])
}

func TestPool_PanicIsRecordedAsError(t *testing.T) {
	p := NewPool(2, 0)

	errs := p.Run(context.Background(), 3, func(_ context.Context, i int) error {
		if i == 0 {
			panic("bad row")
		}
		return nil
	})

	require.Error(t, errs[0])
	assert.Contains(t, errs[0].Error(), "task 0 panicked: bad row")
	assert.NoError(t, errs[1])
	assert.NoError(t, errs[2])
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int64
	errs := NewPool(1, 0).Run(ctx, 3, func(_ context.Context, _ int) error {
		ran.Add(1)
		return nil
	})

	assert.Zero(t, ran.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestPool_MinimumConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewPool(0, 0).Concurrency())
	assert.Equal(t, 4, NewPool(4, 0).Concurrency())
}

func TestPool_ThrottleSpacesRequests(t *testing.T) {
	p := NewPool(4, 20*time.Millisecond)
	start := time.Now()
	for range 3 {
		require.NoError(t, p.Throttle(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestPool_ThrottleDisabled(t *testing.T) {
	p := NewPool(1, 0)
	start := time.Now()
	for range 100 {
		require.NoError(t, p.Throttle(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	var nilPool *Pool
	assert.NoError(t, nilPool.Throttle(context.Background()))
}

func TestPool_ThrottleHonoursContext(t *testing.T) {
	p := NewPool(1, time.Hour)
	require.NoError(t, p.Throttle(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Throttle(ctx))
}

func TestPool_PaceDelegates(t *testing.T) {
	m := new(mockFetcher)
	m.On("Fetch", mock.Anything, "https://example.org/a").
		Return(&fetcher.Response{URL: "https://example.org/a", StatusCode: 200}, nil)
	m.On("Head", mock.Anything, "https://example.org/b").Return(200, nil)

	paced := NewPool(1, time.Millisecond).Pace(m)
	resp, err := paced.Fetch(context.Background(), "https://example.org/a")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	code, err := paced.Head(context.Background(), "https://example.org/b")
	require.NoError(t, err)
	assert.Equal(t, 200, code)
	m.AssertExpectations(t)
}

func TestPool_PaceStopsOnCancel(t *testing.T) {
	m := new(mockFetcher)
	p := NewPool(1, time.Hour)
	require.NoError(t, p.Throttle(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Pace(m).Fetch(ctx, "https://example.org/a")
	assert.Error(t, err)
	m.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
