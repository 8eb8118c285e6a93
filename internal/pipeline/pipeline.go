package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/extract"
	"github.com/sells-group/disclosure-cli/internal/fetcher"
	"github.com/sells-group/disclosure-cli/internal/model"
)

// CachedFetcher retrieves documents through the cache.
type CachedFetcher interface {
	FetchCached(ctx context.Context, url string) (*fetcher.Response, bool, error)
}

// MetadataStore reads discovery outcomes saved by earlier runs.
type MetadataStore interface {
	GetMetadata(ctx context.Context, subjectID string) (*model.SubjectMetadata, error)
}

// Discoverer locates a subject's declaration and saves the outcome.
type Discoverer interface {
	Discover(ctx context.Context, subject model.Subject) (model.SubjectMetadata, error)
}

// RecordStore persists records, the changelog and the index.
type RecordStore interface {
	ReadRecord(subjectID string) (*model.DeclarationRecord, error)
	WriteRecord(rec *model.DeclarationRecord) error
	AppendChangelog(entries ...model.ChangelogEntry) error
	WriteIndex(idx model.Index) error
	Summaries() ([]model.IndexSummary, error)
}

// Options tunes a Pipeline.
type Options struct {
	// Changelog appends one entry per processed subject.
	Changelog bool
	// Rediscover ignores saved metadata and locates every declaration again.
	Rediscover bool
}

// Pipeline runs discovery, retrieval, extraction and assembly for subjects.
type Pipeline struct {
	fetch CachedFetcher
	meta  MetadataStore
	disc  Discoverer
	pdf   extract.TextExtractor
	out   RecordStore
	pool  *Pool
	opts  Options
	runID string
	now   func() time.Time
}

// New creates a Pipeline. The pool bounds batch concurrency; the same pool
// should pace the fetcher beneath the cache (see Pool.Pace).
func New(
	fetch CachedFetcher,
	meta MetadataStore,
	disc Discoverer,
	pdf extract.TextExtractor,
	out RecordStore,
	pool *Pool,
	opts Options,
) *Pipeline {
	if pool == nil {
		pool = NewPool(1, 0)
	}
	return &Pipeline{
		fetch: fetch,
		meta:  meta,
		disc:  disc,
		pdf:   pdf,
		out:   out,
		pool:  pool,
		opts:  opts,
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID identifies this pipeline's run in the changelog.
func (p *Pipeline) RunID() string { return p.runID }

// Discover locates one subject's declaration without fetching it. Subjects
// whose saved metadata already holds a URL are skipped unless Rediscover is
// set.
func (p *Pipeline) Discover(ctx context.Context, subject model.Subject) model.RunOutcome {
	out := model.RunOutcome{SubjectID: subject.ID, Name: subject.Name, Stage: model.StageDiscover}
	if saved := p.savedMetadata(ctx, subject); saved != nil {
		out.Success = true
		out.Stage = model.StageDone
		out.Method = saved.Method
		out.Skipped = true
		return out
	}
	meta, err := p.disc.Discover(ctx, subject)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if meta.URL() == "" {
		out.Error = discoveryError(meta)
		return out
	}
	out.Success = true
	out.Stage = model.StageDone
	out.Method = meta.Method
	return out
}

// Process runs every stage for one subject. Failures are reported on the
// outcome and in the changelog; they never escape as errors.
func (p *Pipeline) Process(ctx context.Context, subject model.Subject) model.RunOutcome {
	log := zap.L().With(zap.String("subject_id", subject.ID), zap.String("name", subject.Name))
	start := time.Now()
	out := model.RunOutcome{SubjectID: subject.ID, Name: subject.Name}

	// Stage: discover
	out.Stage = model.StageDiscover
	meta, err := p.metadata(ctx, subject)
	if err != nil {
		return p.fail(out, err.Error(), log)
	}
	if meta.URL() == "" {
		return p.fail(out, discoveryError(meta), log)
	}

	// Stage: fetch
	out.Stage = model.StageFetch
	resp, cached, err := p.fetch.FetchCached(ctx, meta.URL())
	if err != nil {
		return p.fail(out, eris.Wrapf(err, "pipeline: fetch %s", meta.URL()).Error(), log)
	}
	log.Debug("pipeline: fetched declaration", zap.String("url", resp.URL), zap.Bool("cached", cached))

	// Stage: extract
	out.Stage = model.StageExtract
	res := p.extract(ctx, resp, &meta, log)

	// Stage: validate
	out.Stage = model.StageValidate
	rec, err := assemble.Assemble(meta, res, p.now())
	var ve *assemble.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return p.fail(out, err.Error(), log)
	}

	// Stage: write
	out.Stage = model.StageWrite
	prev, err := p.out.ReadRecord(subject.ID)
	if err != nil {
		log.Warn("pipeline: previous record unreadable", zap.Error(err))
		prev = nil
	}
	if err := p.out.WriteRecord(rec); err != nil {
		return p.fail(out, err.Error(), log)
	}
	p.changelog(changeEntry(prev, rec, p.now()), log)

	out.Stage = model.StageDone
	out.Success = true
	out.Confidence = rec.DataQuality.Confidence
	out.Method = string(rec.DataQuality.ParsingMethod)
	out.Entries = len(rec.Income) + len(rec.Gifts)
	log.Info("pipeline: subject complete",
		zap.String("confidence", string(out.Confidence)),
		zap.String("method", out.Method),
		zap.Int("entries", out.Entries),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

// metadata returns saved metadata with a declaration URL, discovering it
// when none is saved.
func (p *Pipeline) metadata(ctx context.Context, subject model.Subject) (model.SubjectMetadata, error) {
	if saved := p.savedMetadata(ctx, subject); saved != nil {
		return *saved, nil
	}
	return p.disc.Discover(ctx, subject)
}

// savedMetadata returns metadata from an earlier run when it holds a
// declaration URL and Rediscover is off.
func (p *Pipeline) savedMetadata(ctx context.Context, subject model.Subject) *model.SubjectMetadata {
	if p.opts.Rediscover {
		return nil
	}
	saved, err := p.meta.GetMetadata(ctx, subject.ID)
	if err != nil {
		zap.L().Warn("pipeline: metadata read failed, rediscovering",
			zap.String("subject_id", subject.ID), zap.Error(err))
		return nil
	}
	if saved == nil || saved.URL() == "" {
		return nil
	}
	return saved
}

// extract dispatches on the document format. An HTML listing page that links
// to the declaration PDF is followed; if the PDF cannot be fetched the HTML
// result is kept.
func (p *Pipeline) extract(ctx context.Context, resp *fetcher.Response, meta *model.SubjectMetadata, log *zap.Logger) extract.Result {
	if resp.IsPDF() {
		return p.extractPDF(ctx, resp.Body, log)
	}
	res := guarded(model.MethodHTML, log, func() extract.Result {
		return extract.ExtractHTMLFrom(fetcher.DecodeBody(resp), resp.URL)
	})
	if res.PDFLink == "" {
		return res
	}

	link := res.PDFLink
	pdfResp, _, err := p.fetch.FetchCached(ctx, link)
	if err != nil {
		log.Warn("pipeline: linked PDF fetch failed", zap.String("url", link), zap.Error(err))
		return res
	}
	log.Debug("pipeline: following declaration PDF", zap.String("url", link))
	meta.DeclarationURL = &link
	return p.extractPDF(ctx, pdfResp.Body, log)
}

func (p *Pipeline) extractPDF(ctx context.Context, body []byte, log *zap.Logger) extract.Result {
	return guarded(model.MethodPDF, log, func() extract.Result {
		return extract.ExtractPDF(ctx, p.pdf, body)
	})
}

// guarded runs an extractor, turning a panic into a low-confidence result
// carrying the failure as an issue.
func guarded(method model.ParsingMethod, log *zap.Logger, fn func() extract.Result) (res extract.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: extractor panicked", zap.String("method", string(method)), zap.Any("panic", r))
			res = extract.Result{
				Method:     method,
				Confidence: model.ConfidenceLow,
				Issues:     []string{fmt.Sprintf("%s parse error: %v", strings.ToUpper(string(method)), r)},
			}
		}
	}()
	return fn()
}

func (p *Pipeline) fail(out model.RunOutcome, msg string, log *zap.Logger) model.RunOutcome {
	out.Success = false
	out.Error = msg
	log.Warn("pipeline: subject failed", zap.String("stage", string(out.Stage)), zap.String("error", msg))
	p.changelog(model.ChangelogEntry{
		Timestamp: p.now().UTC(),
		SubjectID: out.SubjectID,
		Action:    model.ChangeError,
		Error:     msg,
	}, log)
	return out
}

func (p *Pipeline) changelog(e model.ChangelogEntry, log *zap.Logger) {
	if !p.opts.Changelog {
		return
	}
	e.RunID = p.runID
	if err := p.out.AppendChangelog(e); err != nil {
		log.Warn("pipeline: changelog append failed", zap.Error(err))
	}
}

func changeEntry(prev, next *model.DeclarationRecord, now time.Time) model.ChangelogEntry {
	e := model.ChangelogEntry{Timestamp: now.UTC(), SubjectID: next.SubjectID, Action: model.ChangeCreated}
	if prev != nil {
		e.Action = model.ChangeUpdated
		e.Changes = assemble.Diff(prev, next)
	}
	return e
}

func discoveryError(meta model.SubjectMetadata) string {
	switch {
	case meta.Error != "":
		return "no declaration URL: " + meta.Error
	case meta.Note != "":
		return "no declaration URL: " + meta.Note
	}
	return "no declaration URL"
}
