package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/cache"
	"github.com/sells-group/disclosure-cli/internal/fetcher"
	"github.com/sells-group/disclosure-cli/internal/locate"
	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/output"
	"github.com/sells-group/disclosure-cli/internal/pdftext"
	"github.com/sells-group/disclosure-cli/internal/pipeline"
	"github.com/sells-group/disclosure-cli/internal/resilience"
	"github.com/sells-group/disclosure-cli/internal/seed"
)

// runEnv holds the stores and the pipeline used by discover and fetch.
type runEnv struct {
	Store    cache.Store
	Writer   *output.Writer
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *runEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// loadSubjects enforces the opt-in guard and reads the seed list. Both
// checks happen before any network access.
func loadSubjects(mode, path, sheet string, limit int) ([]model.Subject, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	if path == "" {
		path = cfg.Input.Path
	}
	if sheet == "" {
		sheet = cfg.Input.Sheet
	}
	subjects, err := seed.Load(path, seed.Options{Sheet: sheet, Limit: limit})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded subjects", zap.String("path", path), zap.Int("count", len(subjects)))
	return subjects, nil
}

// openStore opens the configured cache backend.
func openStore(ctx context.Context) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		return cache.NewSQLite(ctx, cfg.Cache.SQLitePath)
	case "memory":
		return cache.NewMemoryStore(), nil
	case "file", "":
		return cache.NewFileStore(cfg.Cache.Dir)
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// initEnv wires the HTTP fetcher, the paced and cached fetch path, discovery
// and the output writer into a Pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context, concurrency int, rediscover bool) (*runEnv, error) {
	if concurrency <= 0 {
		concurrency = cfg.Fetch.Concurrency
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	w, err := output.NewWriter(cfg.Output.Dir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout(),
		Retry: resilience.LinearRetryConfig(
			cfg.Fetch.MaxAttempts,
			cfg.Fetch.BaseDelay(),
			cfg.Fetch.RateLimitBackoff(),
		),
	})

	pool := pipeline.NewPool(concurrency, cfg.Fetch.RequestDelay())
	cached := cache.NewCachingFetcher(pool.Pace(httpFetcher), st, cfg.Cache.MaxAge())

	disc := locate.NewDiscoverer(cached, st, locate.Options{
		BaseURL:      cfg.Locate.BaseURL,
		PathTemplate: cfg.Locate.PathTemplate,
		MinScore:     cfg.Locate.MinScore,
	})

	p := pipeline.New(cached, st, disc, pdftext.NewPdfToText(cfg.PDF.PdfToTextPath), w, pool, pipeline.Options{
		Changelog:  cfg.Output.Changelog,
		Rediscover: rediscover,
	})

	return &runEnv{Store: st, Writer: w, Pipeline: p}, nil
}
