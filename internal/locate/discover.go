package locate

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
	"github.com/sells-group/disclosure-cli/internal/model"
)

// MetadataSaver persists discovery outcomes.
type MetadataSaver interface {
	SaveMetadata(ctx context.Context, meta model.SubjectMetadata) error
}

// Discoverer fetches a subject's profile page, locates the declaration and
// saves the outcome as SubjectMetadata.
type Discoverer struct {
	locator *Locator
	fetch   fetcher.Fetcher
	store   MetadataSaver
	now     func() time.Time
}

// NewDiscoverer wires a Discoverer. fetch is also used as the Prober.
func NewDiscoverer(fetch fetcher.Fetcher, store MetadataSaver, opts Options) *Discoverer {
	return &Discoverer{
		locator: New(fetch, opts),
		fetch:   fetch,
		store:   store,
		now:     time.Now,
	}
}

// Discover always returns the metadata it saved. Only a failure to persist is
// an error: an unreachable profile, a missing link or a failed probe is
// recorded on the metadata instead.
func (d *Discoverer) Discover(ctx context.Context, subject model.Subject) (model.SubjectMetadata, error) {
	log := zap.L().With(zap.String("subject_id", subject.ID), zap.String("name", subject.Name))
	meta := model.NewSubjectMetadata(subject, d.now())

	var profileHTML string
	if subject.ProfileURL != "" {
		resp, err := d.fetch.Fetch(ctx, subject.ProfileURL)
		if err != nil {
			log.Warn("locate: profile fetch failed", zap.String("url", subject.ProfileURL), zap.Error(err))
		} else {
			profileHTML = fetcher.DecodeBody(resp)
		}
	}

	res, err := d.locator.Locate(ctx, subject, profileHTML)
	switch {
	case errors.Is(err, ErrNotFound):
		meta.Note = "No declaration link found"
		log.Info("locate: no declaration found")
	case err != nil:
		meta.Error = err.Error()
		log.Warn("locate: failed", zap.Error(err))
	default:
		meta.Method = string(res.Method)
		meta.Note = res.Note
		if res.Accessible {
			u := res.URL
			meta.DeclarationURL = &u
			log.Info("locate: declaration found", zap.String("url", u), zap.String("method", meta.Method))
		} else {
			log.Warn("locate: declaration not accessible", zap.String("url", res.URL), zap.Int("status", res.StatusCode))
		}
	}

	if err := d.store.SaveMetadata(ctx, meta); err != nil {
		return meta, eris.Wrapf(err, "locate: save metadata for %s", subject.ID)
	}
	return meta, nil
}
