package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
)

// Pool runs a fixed number of tasks with bounded concurrency and paces
// outbound requests through a shared limiter.
type Pool struct {
	concurrency int
	limiter     *rate.Limiter
}

// NewPool creates a Pool. A concurrency below 1 runs tasks one at a time; a
// non-positive delay disables throttling.
func NewPool(concurrency int, delay time.Duration) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	p := &Pool{concurrency: concurrency}
	if delay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return p
}

// Concurrency returns the worker limit.
func (p *Pool) Concurrency() int { return p.concurrency }

// Throttle blocks until the next request may start. It is shared by every
// worker, so the delay holds across the whole pool.
func (p *Pool) Throttle(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Run calls fn for each index in [0, n). A task's error is recorded at its
// index and never cancels the others; a panicking task is recorded as an
// error too. Tasks not yet started when ctx is cancelled get ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = runTask(ctx, i, fn)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func runTask(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: task %d panicked: %v", i, r)
		}
	}()
	return fn(ctx, i)
}

// Pace wraps next so every network request waits on the pool's limiter.
// Place it beneath the cache so cache hits are not delayed.
func (p *Pool) Pace(next fetcher.Fetcher) fetcher.Fetcher {
	return &pacedFetcher{next: next, pool: p}
}

type pacedFetcher struct {
	next fetcher.Fetcher
	pool *Pool
}

func (f *pacedFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	if err := f.pool.Throttle(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: throttle")
	}
	return f.next.Fetch(ctx, url)
}

func (f *pacedFetcher) Head(ctx context.Context, url string) (int, error) {
	if err := f.pool.Throttle(ctx); err != nil {
		return 0, eris.Wrap(err, "pipeline: throttle")
	}
	return f.next.Head(ctx, url)
}
