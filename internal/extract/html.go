package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

// DefaultSite resolves relative PDF links when no page URL is known.
const DefaultSite = "https://www.europarl.europa.eu"

var (
	digitRun    = regexp.MustCompile(`\d`)
	numericCell = regexp.MustCompile(`^[\d\s.,'\x{00a0}€$£–—-]+$`)
	entitySplit = regexp.MustCompile(`[,;]`)
)

const (
	minRoleRunes = 5
	maxRoleRunes = 100
)

type tableKind int

const (
	tableNone tableKind = iota
	tableActivities
	tableGifts
	tableBoard
	tableOwnership
)

// ExtractHTML reads an HTML declaration page. A page that links to the
// declaration PDF instead of listing entries comes back with PDFLink set and
// low confidence.
func ExtractHTML(doc string) Result {
	return ExtractHTMLFrom(doc, DefaultSite)
}

// ExtractHTMLFrom is ExtractHTML with relative links resolved against base.
func ExtractHTMLFrom(doc, base string) Result {
	res := Result{Method: model.MethodHTML, Confidence: model.ConfidenceLow}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		res.addIssue(fmt.Sprintf("HTML parse error: %v", err))
		return res
	}

	if link := findPDFLink(page, base); link != "" {
		res.PDFLink = link
		res.addIssue(fmt.Sprintf(issuePDFLinkFormat, link))
		return res
	}

	lex := normalize.Lex().HTML
	page.Find("table").Each(func(_ int, table *goquery.Selection) {
		// Layout tables wrap the data tables; only innermost tables hold rows.
		if table.Find("table").Length() > 0 {
			return
		}
		switch routeTable(table.Text(), lex) {
		case tableActivities:
			res.Income = append(res.Income, activityRows(table)...)
		case tableGifts:
			res.Gifts = append(res.Gifts, giftRows(table)...)
		case tableBoard:
			res.Income = append(res.Income, boardRows(table)...)
		case tableOwnership:
			res.Income = append(res.Income, ownershipRows(table)...)
		}
	})

	page.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		if normalize.ContainsAny(dl.Text(), lex.MetadataKeywords) {
			return
		}
		res.Income = append(res.Income, definitionEntries(dl)...)
	})

	res.Confidence = htmlConfidence(res)
	if res.Empty() {
		res.addIssue(IssueNoHTMLData)
	}
	return res
}

// FindPDFLink returns the absolute URL of a declaration PDF linked from doc,
// or "" when the page has none.
func FindPDFLink(doc, base string) string {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return findPDFLink(page, base)
}

func findPDFLink(page *goquery.Document, base string) string {
	keywords := normalize.Lex().HTML.PDFLinkKeywords
	var href string
	page.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, _ := a.Attr("href")
		if !isPDFHref(h) || !normalize.ContainsAny(a.Text(), keywords) {
			return true
		}
		href = h
		return false
	})
	if href == "" {
		page.Find(".erpl_meps-declaration a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			h, _ := a.Attr("href")
			if !isPDFHref(h) {
				return true
			}
			href = h
			return false
		})
	}
	if href == "" {
		return ""
	}
	return absolute(base, href)
}

func isPDFHref(href string) bool {
	return strings.Contains(strings.ToLower(href), ".pdf")
}

func absolute(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == "" {
		base = DefaultSite
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

func routeTable(text string, lex normalize.HTMLLexicon) tableKind {
	if normalize.ContainsAny(text, lex.MetadataKeywords) {
		return tableNone
	}
	if !normalize.ContainsAny(text, lex.FinancialKeywords) {
		return tableNone
	}
	switch {
	case normalize.ContainsAny(text, lex.ActivityKeywords):
		return tableActivities
	case normalize.ContainsAny(text, lex.GiftKeywords):
		return tableGifts
	case normalize.ContainsAny(text, lex.BoardKeywords):
		return tableBoard
	case normalize.ContainsAny(text, lex.OwnershipKeywords):
		return tableOwnership
	}
	return tableNone
}

// dataRows yields the trimmed cell texts of every row of table itself after
// the header row.
func dataRows(table *goquery.Selection) [][]string {
	var rows [][]string
	ownRows(table).Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, normalize.CollapseSpace(c.Text()))
		})
		rows = append(rows, cells)
	})
	return rows
}

func ownRows(table *goquery.Selection) *goquery.Selection {
	rows := table.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")
	if rows.Length() == 0 {
		rows = table.ChildrenFiltered("tr")
	}
	return rows
}

func entityName(raw string) string {
	if name := normalize.CleanName(raw); name != "" {
		return name
	}
	return "Unknown"
}

// amountFrom parses an amount only from cells that carry a currency marker or
// consist of figures alone, so years and reference numbers are left alone.
func amountFrom(text string) normalize.Amount {
	if normalize.LooksLikeCurrency(text) || numericCell.MatchString(text) {
		return normalize.ParseCurrency(text)
	}
	return normalize.Amount{Confidence: model.ConfidenceLow}
}

func setAmount(e *model.IncomeEntry, a normalize.Amount) {
	if !a.Found() {
		return
	}
	e.AmountMin, e.AmountMax = a.Min, a.Max
}

func plausibleRole(cell string) bool {
	n := len([]rune(cell))
	return n >= minRoleRunes && n <= maxRoleRunes && !digitRun.MatchString(cell)
}

func activityRows(table *goquery.Selection) []model.IncomeEntry {
	var out []model.IncomeEntry
	for _, cells := range dataRows(table) {
		if len(cells) < 2 {
			continue
		}
		e := model.IncomeEntry{
			Category:      model.CategoryOutsideActivity,
			EntityName:    entityName(cells[0]),
			EntityType:    normalize.InferEntityType(cells[0]),
			Period:        model.PeriodUnknown,
			SourceExcerpt: normalize.Excerpt(strings.Join(cells, " | "), 0),
		}
		for _, cell := range cells[1:] {
			if cell == "" {
				continue
			}
			if d, ok := normalize.ParseDate(cell); ok {
				if e.StartDate == "" {
					e.StartDate = d
				} else if e.EndDate == "" {
					e.EndDate = d
				}
				continue
			}
			period := normalize.DetectPeriod(cell)
			if period != model.PeriodUnknown {
				e.Period = period
			}
			if a := amountFrom(cell); a.Found() {
				setAmount(&e, a)
				continue
			}
			if period == model.PeriodUnknown && e.Role == "" && plausibleRole(cell) {
				e.Role = cell
			}
		}
		out = append(out, e)
	}
	return out
}

func giftRows(table *goquery.Selection) []model.GiftEntry {
	var out []model.GiftEntry
	for _, cells := range dataRows(table) {
		if len(cells) < 2 {
			continue
		}
		g := model.GiftEntry{
			Sponsor:       entityName(cells[0]),
			Item:          cells[1],
			SourceExcerpt: normalize.Excerpt(strings.Join(cells, " | "), 0),
		}
		for _, cell := range cells[1:] {
			if d, ok := normalize.ParseDate(cell); ok {
				if g.Date == "" {
					g.Date = d
				}
				continue
			}
			if a := amountFrom(cell); a.Found() && g.ValueEUR == nil {
				g.ValueEUR = a.Min
			}
		}
		out = append(out, g)
	}
	return out
}

func boardRows(table *goquery.Selection) []model.IncomeEntry {
	var out []model.IncomeEntry
	for _, cells := range dataRows(table) {
		if len(cells) == 0 {
			continue
		}
		e := model.IncomeEntry{
			Category:      model.CategoryBoardMembership,
			EntityName:    entityName(cells[0]),
			EntityType:    normalize.InferEntityType(cells[0]),
			Role:          "Board member",
			Period:        model.PeriodUnknown,
			SourceExcerpt: normalize.Excerpt(strings.Join(cells, " | "), 0),
		}
		if len(cells) > 1 && cells[1] != "" {
			e.Role = cells[1]
		}
		for _, cell := range cells[1:] {
			if a := amountFrom(cell); a.Found() {
				setAmount(&e, a)
			}
			if p := normalize.DetectPeriod(cell); p != model.PeriodUnknown {
				e.Period = p
			}
		}
		out = append(out, e)
	}
	return out
}

func ownershipRows(table *goquery.Selection) []model.IncomeEntry {
	var out []model.IncomeEntry
	for _, cells := range dataRows(table) {
		if len(cells) == 0 {
			continue
		}
		e := model.IncomeEntry{
			Category:      model.CategoryOwnership,
			EntityName:    entityName(cells[0]),
			EntityType:    model.EntityCompany,
			SourceExcerpt: normalize.Excerpt(strings.Join(cells, " | "), 0),
		}
		if len(cells) > 1 {
			e.Notes = cells[1]
		}
		out = append(out, e)
	}
	return out
}

func definitionEntries(dl *goquery.Selection) []model.IncomeEntry {
	var out []model.IncomeEntry
	dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		term := normalize.CollapseSpace(dt.Text())
		def := normalize.CollapseSpace(dd.Text())
		if len([]rune(def)) < 5 {
			return
		}
		e := model.IncomeEntry{
			Category:      normalize.InferCategory(term),
			EntityName:    entityName(entitySplit.Split(def, 2)[0]),
			EntityType:    normalize.InferEntityType(def),
			Period:        normalize.DetectPeriod(def),
			Notes:         def,
			SourceExcerpt: normalize.Excerpt(term+": "+def, 0),
		}
		if normalize.LooksLikeCurrency(def) {
			setAmount(&e, normalize.ParseCurrency(def))
		}
		out = append(out, e)
	})
	return out
}

func htmlConfidence(res Result) model.Confidence {
	if res.Empty() {
		return model.ConfidenceLow
	}
	if len(res.Income) == 0 {
		return model.ConfidenceMedium
	}
	for _, e := range res.Income {
		if !e.HasAmount() {
			return model.ConfidenceMedium
		}
	}
	return model.ConfidenceHigh
}
