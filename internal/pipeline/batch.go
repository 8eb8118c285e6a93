package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/model"
)

// Summary is the run-end report.
type Summary struct {
	RunID     string             `json:"run_id"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	High      int                `json:"high"`
	Medium    int                `json:"medium"`
	Low       int                `json:"low"`
	Skipped   int                `json:"skipped"`
	Elapsed   time.Duration      `json:"elapsed"`
	Outcomes  []model.RunOutcome `json:"outcomes"`
}

// Summarize tallies outcomes.
func Summarize(runID string, outcomes []model.RunOutcome, elapsed time.Duration) Summary {
	s := Summary{RunID: runID, Total: len(outcomes), Elapsed: elapsed, Outcomes: outcomes}
	for _, o := range outcomes {
		if !o.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		if o.Skipped {
			s.Skipped++
		}
		switch o.Confidence {
		case model.ConfidenceHigh:
			s.High++
		case model.ConfidenceMedium:
			s.Medium++
		case model.ConfidenceLow:
			s.Low++
		}
	}
	return s
}

// Failures returns the outcomes that did not succeed, in input order.
func (s Summary) Failures() []model.RunOutcome {
	var out []model.RunOutcome
	for _, o := range s.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Print writes the human-readable summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s: %d subjects in %s\n", s.RunID, s.Total, s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  succeeded: %d (high %d, medium %d, low %d)\n", s.Succeeded, s.High, s.Medium, s.Low)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "  skipped:   %d (already located)\n", s.Skipped)
	}
	fmt.Fprintf(w, "  failed:    %d\n", s.Failed)
	for _, o := range s.Failures() {
		fmt.Fprintf(w, "    %s %s [%s]: %s\n", o.SubjectID, o.Name, o.Stage, o.Error)
	}
}

// Batch processes subjects on the pool and then rewrites the index from
// every stored record. One subject's failure never stops the others.
func (p *Pipeline) Batch(ctx context.Context, subjects []model.Subject) (Summary, error) {
	start := time.Now()
	outcomes := make([]model.RunOutcome, len(subjects))

	zap.L().Info("pipeline: batch starting",
		zap.String("run_id", p.runID),
		zap.Int("subjects", len(subjects)),
		zap.Int("concurrency", p.pool.Concurrency()),
	)

	errs := p.pool.Run(ctx, len(subjects), func(ctx context.Context, i int) error {
		outcomes[i] = p.Process(ctx, subjects[i])
		return nil
	})
	for i, err := range errs {
		if err != nil {
			outcomes[i] = model.RunOutcome{
				SubjectID: subjects[i].ID,
				Name:      subjects[i].Name,
				Stage:     model.StageDiscover,
				Error:     err.Error(),
			}
		}
	}

	summary := Summarize(p.runID, outcomes, time.Since(start))
	if err := p.WriteIndex(p.now()); err != nil {
		return summary, err
	}

	zap.L().Info("pipeline: batch complete",
		zap.String("run_id", p.runID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// WriteIndex rebuilds the index from the records on disk. The refresh time
// is stamped as the last full refresh.
func (p *Pipeline) WriteIndex(refreshed time.Time) error {
	summaries, err := p.out.Summaries()
	if err != nil {
		return eris.Wrap(err, "pipeline: collect summaries")
	}
	refreshed = refreshed.UTC()
	if err := p.out.WriteIndex(assemble.BuildIndex(summaries, p.now(), &refreshed)); err != nil {
		return eris.Wrap(err, "pipeline: write index")
	}
	return nil
}

// DiscoverBatch locates declarations for subjects on the pool.
func (p *Pipeline) DiscoverBatch(ctx context.Context, subjects []model.Subject) Summary {
	start := time.Now()
	outcomes := make([]model.RunOutcome, len(subjects))
	errs := p.pool.Run(ctx, len(subjects), func(ctx context.Context, i int) error {
		outcomes[i] = p.Discover(ctx, subjects[i])
		return nil
	})
	for i, err := range errs {
		if err != nil {
			outcomes[i] = model.RunOutcome{SubjectID: subjects[i].ID, Name: subjects[i].Name, Stage: model.StageDiscover, Error: err.Error()}
		}
	}
	return Summarize(p.runID, outcomes, time.Since(start))
}
