// Package locate resolves a subject to the URL of its financial declaration.
package locate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

// DefaultPathTemplate builds the canonical declaration page of a member.
const DefaultPathTemplate = "https://www.europarl.europa.eu/meps/en/{id}/{slug}/declarations"

// DefaultMinScore is the lowest anchor score accepted by the scored strategy.
const DefaultMinScore = 40

// ErrNotFound means no strategy produced a candidate URL.
var ErrNotFound = errors.New("locate: declaration not found")

// NoteNotAccessible is recorded when a probe of the candidate fails outright.
const NoteNotAccessible = "Declaration URL not accessible"

// Method names the strategy that produced a URL.
type Method string

const (
	MethodExplicit    Method = "explicit"
	MethodConstructed Method = "constructed"
	MethodScored      Method = "scored"
)

// Prober checks that a URL answers before it is trusted.
type Prober interface {
	Head(ctx context.Context, url string) (int, error)
}

// Result is the outcome of Locate.
type Result struct {
	URL        string
	Method     Method
	Score      int
	Accessible bool
	StatusCode int
	Note       string
}

// Options configures a Locator.
type Options struct {
	// BaseURL resolves relative links when the subject has no profile URL.
	BaseURL      string
	PathTemplate string
	MinScore     int
}

// Locator finds declaration URLs. It has no side effects beyond probing.
type Locator struct {
	prober Prober
	opts   Options
}

// New creates a Locator. A nil prober skips accessibility checks.
func New(prober Prober, opts Options) *Locator {
	if opts.PathTemplate == "" {
		opts.PathTemplate = DefaultPathTemplate
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	return &Locator{prober: prober, opts: opts}
}

var profileSlug = regexp.MustCompile(`/meps/[^/]+/(\d+)/([^/?#]+)`)

// Locate tries, in order: an explicit /declarations link on the profile page,
// the URL template filled with the subject id and name slug, and the best
// scoring anchor on the profile page. The chosen candidate is probed; a
// failed probe is noted on the result and is not an error.
func (l *Locator) Locate(ctx context.Context, subject model.Subject, profileHTML string) (Result, error) {
	base := subject.ProfileURL
	if base == "" {
		base = l.opts.BaseURL
	}

	var doc *goquery.Document
	if strings.TrimSpace(profileHTML) != "" {
		d, err := goquery.NewDocumentFromReader(strings.NewReader(profileHTML))
		if err != nil {
			return Result{}, eris.Wrap(err, "locate: parse profile")
		}
		doc = d
	}

	res, ok := l.candidate(doc, subject, base)
	if !ok {
		return Result{}, ErrNotFound
	}

	res.Accessible = true
	if l.prober != nil {
		code, err := l.prober.Head(ctx, res.URL)
		res.StatusCode = code
		switch {
		case err != nil:
			res.Accessible = false
			res.Note = NoteNotAccessible
		case !IsSuccess(code):
			res.Accessible = false
			res.Note = fmt.Sprintf("Declaration page returned %d", code)
		}
	}
	return res, nil
}

func (l *Locator) candidate(doc *goquery.Document, subject model.Subject, base string) (Result, bool) {
	if doc != nil {
		if href := explicitLink(doc); href != "" {
			if u, ok := resolve(base, href); ok {
				return Result{URL: u, Method: MethodExplicit, Score: 100}, true
			}
		}
	}

	if u := l.construct(subject, doc); u != "" {
		return Result{URL: u, Method: MethodConstructed}, true
	}

	if doc != nil {
		if href, score := l.bestAnchor(doc); href != "" {
			if u, ok := resolve(base, href); ok {
				return Result{URL: u, Method: MethodScored, Score: score}, true
			}
		}
	}
	return Result{}, false
}

func explicitLink(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "/declarations") {
			found = strings.TrimSpace(href)
			return false
		}
		return true
	})
	return found
}

// construct fills the path template. The id comes from the subject or its
// profile URL; the slug prefers the profile URL segment, then the display
// name, then the page title.
func (l *Locator) construct(subject model.Subject, doc *goquery.Document) string {
	id := strings.TrimSpace(subject.ID)
	slug := ""
	if m := profileSlug.FindStringSubmatch(subject.ProfileURL); m != nil {
		if id == "" {
			id = m[1]
		}
		slug = m[2]
	}
	if slug == "" {
		slug = normalize.Slug(subject.Name)
	}
	if slug == "" && doc != nil {
		title := doc.Find("title").First().Text()
		parts := strings.FieldsFunc(title, func(r rune) bool { return r == '|' || r == '-' })
		if len(parts) > 0 {
			slug = normalize.Slug(parts[0])
		}
	}
	if id == "" || slug == "" {
		return ""
	}
	r := strings.NewReplacer("{id}", url.PathEscape(id), "{slug}", url.PathEscape(slug))
	return r.Replace(l.opts.PathTemplate)
}

func (l *Locator) bestAnchor(doc *goquery.Document) (string, int) {
	bestHref, bestScore := "", 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		score := ScoreLink(s.Text(), href)
		if score >= l.opts.MinScore && score > bestScore {
			bestHref, bestScore = strings.TrimSpace(href), score
		}
	})
	return bestHref, bestScore
}

// ScoreLink rates 0..100 how likely an anchor points at a declaration.
func ScoreLink(text, href string) int {
	lex := normalize.Lex().Links
	lowerHref := strings.ToLower(href)

	hasDecl := normalize.ContainsAny(text, lex.DeclarationWords)
	hasFin := normalize.ContainsAny(text, lex.FinancialWords)

	score := 0
	switch {
	case hasDecl && hasFin:
		score += 50
	case hasDecl || hasFin:
		score += 30
	}
	if strings.HasSuffix(strings.SplitN(lowerHref, "?", 2)[0], ".pdf") {
		score += 20
	}
	if strings.Contains(lowerHref, "/declaration") {
		score += 15
	}
	if normalize.ContainsAny(text, lex.InterestWords) {
		score += 25
	}
	return min(score, 100)
}

func resolve(base, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	if ref.IsAbs() {
		return ref.String(), true
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", false
	}
	return b.ResolveReference(ref).String(), true
}

// IsSuccess reports whether a probe status means the page exists.
func IsSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusBadRequest
}
