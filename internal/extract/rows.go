package extract

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

const (
	// minAmountEUR filters figures such as row numbers and income category
	// codes that the form mixes into the amount column.
	minAmountEUR = 100

	minRowRunes    = 5
	minEntityRunes = 4

	unpaidMarker = "Unpaid"
	paidNoteB    = "Paid activity >5,000 EUR/year"
)

var (
	rowNumber = regexp.MustCompile(`^\s*\d+\.\s*`)
	columnGap = regexp.MustCompile(`\s{3,}|\t+`)

	roleWord = regexp.MustCompile(`(?i)member|mitglied|membre|miembro|membro|board|director|consultant|advisor|vorsitz|président|president|chair|coordinat`)
	ofEntity = regexp.MustCompile(`(?i)(?:^|\s)(?:of|at|for|der|des|de|du|del|do)\s+(?:the\s+)?(.+)$`)

	periodPattern     = sync.OnceValue(func() *regexp.Regexp { return normalize.WordPattern(normalize.Lex().PDF.PeriodWords) })
	publicInfoPattern = sync.OnceValue(func() *regexp.Regexp { return normalize.PhrasePattern(normalize.Lex().PDF.PublicInfoPhrases) })
)

// pdfRow is one numbered row of the declaration form split into its columns.
type pdfRow struct {
	activity string
	income   string
	period   string
}

// splitRow strips the row number and separates activity, income and period.
// Text laid out in columns is split on wide gaps first; the remaining
// activity text is then searched for period words, public information
// phrases and the trailing X that marks an unpaid activity.
func splitRow(raw string) (pdfRow, bool) {
	text := strings.TrimSpace(rowNumber.ReplaceAllString(raw, ""))
	if skipRow(text) {
		return pdfRow{}, false
	}

	row := pdfRow{activity: text}
	if cols := columnGap.Split(text, -1); len(cols) > 1 {
		row.activity = strings.TrimSpace(cols[0])
		for _, col := range cols[1:] {
			row.absorbColumn(strings.TrimSpace(col))
		}
	}
	row.activity = normalize.CollapseSpace(row.activity)

	if loc := matchGroup(periodPattern(), row.activity); loc != nil && loc[0] > 0 {
		after := strings.TrimSpace(row.activity[loc[1]:])
		if row.period == "" {
			row.period = row.activity[loc[0]:loc[1]]
		}
		if row.income == "" && after != "" {
			row.income = after
		}
		row.activity = strings.TrimSpace(row.activity[:loc[0]])
	}
	if loc := matchGroup(publicInfoPattern(), row.activity); loc != nil && loc[0] > 0 {
		if row.income == "" {
			row.income = strings.TrimSpace(row.activity[loc[0]:])
		}
		row.activity = strings.TrimSpace(row.activity[:loc[0]])
	}
	if act, ok := trimUnpaidMarker(row.activity); ok {
		row.activity = act
		row.income = unpaidMarker
	}

	if utf8.RuneCountInString(row.activity) < minRowRunes {
		return pdfRow{}, false
	}
	return row, true
}

func (r *pdfRow) absorbColumn(col string) {
	switch {
	case col == "":
	case col == "X" || col == "x":
		r.income = unpaidMarker
	case normalize.DetectPeriod(col) != model.PeriodUnknown:
		if r.period == "" {
			r.period = col
		}
	case r.income == "":
		r.income = col
	}
}

// skipRow reports placeholder rows ("None", "-", "X") and repeated headers.
func skipRow(text string) bool {
	if utf8.RuneCountInString(text) < minRowRunes {
		return true
	}
	lower := strings.ToLower(text)
	for _, m := range normalize.Lex().PDF.SkipMarkers {
		if lower == m {
			return true
		}
	}
	for _, h := range normalize.Lex().PDF.HeaderPrefixes {
		if strings.HasPrefix(lower, h) {
			return true
		}
	}
	return false
}

// trimUnpaidMarker removes a trailing X column glued to or spaced from the
// activity text.
func trimUnpaidMarker(text string) (string, bool) {
	if !strings.HasSuffix(text, "X") || len(text) < 2 {
		return text, false
	}
	head := text[:len(text)-1]
	prev, _ := utf8.DecodeLastRuneInString(head)
	if !unicode.IsSpace(prev) && !unicode.IsLower(prev) {
		return text, false
	}
	return strings.TrimSpace(head), true
}

// matchGroup returns the byte span of group 1 of the leftmost match of re in
// text, or nil.
func matchGroup(re *regexp.Regexp, text string) []int {
	if re == nil {
		return nil
	}
	m := re.FindStringSubmatchIndex(text)
	if m == nil {
		return nil
	}
	return m[2:4]
}

// roleRule separates a role label from the institution in activity text.
// Rules are tried in order and the first match wins.
type roleRule struct {
	pattern *regexp.Regexp
	apply   func(m []string, e *model.IncomeEntry)
}

var roleRules = []roleRule{
	{
		pattern: regexp.MustCompile(`(?i)^(?:member\s+of\s+(?:the\s+)?board(?:\s+of\s+directors)?(?:\s+of)?|mitglied\s+(?:der\s+|des\s+|im\s+)?vorstand(?:e?s)?|membre\s+du\s+conseil(?:\s+d'administration)?(?:\s+de)?|miembro\s+del\s+consejo(?:\s+de)?|membro\s+do\s+conselho(?:\s+de)?)\s+(.+)$`),
		apply: func(m []string, e *model.IncomeEntry) {
			e.Role = "Board member"
			e.EntityName = institution(m[1])
			e.Category = model.CategoryBoardMembership
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:member\s+of\s+(?:the\s+)?|mitglied\s+(?:des|der|im)\s+|membre\s+d[eu]\s+|miembro\s+del?\s+|membro\s+d[eo]\s+)(.+)$`),
		apply: func(m []string, e *model.IncomeEntry) {
			e.Role = "Member"
			e.EntityName = institution(m[1])
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(stellvertretende[rn]?\s+)?(?:landes|regional|bundes)?vorsitzende[rn]?\s+(.+)$`),
		apply:   applyChair,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(vice[\s-]*)?présidente?\s+(?:de\s+la\s+|du\s+|des\s+|de\s+)?(.+)$`),
		apply:   applyChair,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(vice[\s-]*)?presidente\s+(?:della\s+|del\s+|de\s+la\s+|de\s+)?(.+)$`),
		apply:   applyChair,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(deputy\s+|vice[\s-]*)?(?:chair(?:man|woman|person)?|president)\s+(?:of\s+(?:the\s+)?)?(.+)$`),
		apply:   applyChair,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:coordinatore|coordinador|coordinateur|coordinator)\s+(?:of\s+(?:the\s+)?|della\s+|del\s+|de\s+|du\s+)?(.+)$`),
		apply: func(m []string, e *model.IncomeEntry) {
			e.Role = "Coordinator"
			e.EntityName = institution(m[1])
			e.Category = model.CategoryOutsideActivity
		},
	},
}

func applyChair(m []string, e *model.IncomeEntry) {
	e.Role = "Chair"
	if strings.TrimSpace(m[1]) != "" {
		e.Role = "Deputy Chair"
	}
	e.EntityName = normalize.CleanName(CleanGermanName(m[2]))
	e.Category = model.CategoryBoardMembership
}

// institution cleans the organisation part of a role phrase.
func institution(text string) string {
	name := strings.TrimSpace(entitySplit.Split(text, 2)[0])
	if LooksGerman(name) {
		name = CleanGermanName(name)
	}
	return normalize.CleanName(name)
}

// assignRole applies the first matching role rule. When none matches but the
// text names a role, the whole text becomes the role and the institution is
// taken from an "of ..." style phrase.
func assignRole(activity string, e *model.IncomeEntry) {
	if !roleWord.MatchString(activity) {
		return
	}
	for _, rule := range roleRules {
		if m := rule.pattern.FindStringSubmatch(activity); m != nil {
			rule.apply(m, e)
			return
		}
	}
	e.Role = activity
	if m := ofEntity.FindStringSubmatch(activity); m != nil {
		if name := institution(m[1]); name != "" {
			e.EntityName = name
		}
	}
}

// incomeEntry builds an entry from a numbered row of section letter.
func incomeEntry(letter, raw string) (model.IncomeEntry, bool) {
	row, ok := splitRow(raw)
	if !ok {
		return model.IncomeEntry{}, false
	}

	e := model.IncomeEntry{
		Category:      model.CategoryOutsideActivity,
		EntityName:    institution(row.activity),
		EntityType:    normalize.InferEntityType(row.activity),
		Period:        model.PeriodUnknown,
		Notes:         row.income,
		SourceExcerpt: normalize.Excerpt(raw, 0),
	}
	if letter != "A" && letter != "B" {
		e.Category = normalize.InferCategory(row.activity)
	}

	assignRole(row.activity, &e)

	if row.period != "" {
		e.Period = normalize.DetectPeriod(row.period)
	}
	if row.income != "" && row.income != unpaidMarker && !isPublicInfo(row.income) {
		if a := normalize.ParseCurrency(row.income); a.Found() && *a.Min >= minAmountEUR {
			e.AmountMin, e.AmountMax = a.Min, a.Max
		}
	}

	switch letter {
	case "B":
		e.Category = model.CategoryOutsideActivity
		e.Notes = paidNoteB
	case "C":
		e.Category = model.CategoryBoardMembership
	case "D":
		e.Category = model.CategoryOwnership
	}

	if utf8.RuneCountInString(e.EntityName) < minEntityRunes {
		return model.IncomeEntry{}, false
	}
	return e, true
}

func isPublicInfo(text string) bool {
	return normalize.ContainsAny(text, normalize.Lex().PDF.PublicInfoPhrases)
}

// giftEntry builds a gift from a numbered row of section E.
func giftEntry(raw string) (model.GiftEntry, bool) {
	text := strings.TrimSpace(rowNumber.ReplaceAllString(raw, ""))
	if skipRow(text) {
		return model.GiftEntry{}, false
	}

	parts := columnGap.Split(text, -1)
	g := model.GiftEntry{
		Sponsor:       normalize.CleanName(entitySplit.Split(parts[0], 2)[0]),
		Item:          normalize.CollapseSpace(text),
		SourceExcerpt: normalize.Excerpt(raw, 0),
	}
	if len(parts) > 1 {
		g.Item = normalize.CollapseSpace(parts[1])
	}
	for _, p := range parts[1:] {
		if d, ok := normalize.ParseDate(p); ok {
			if g.Date == "" {
				g.Date = d
			}
			continue
		}
		if g.ValueEUR == nil {
			if a := amountFrom(p); a.Found() {
				g.ValueEUR = a.Min
			}
		}
	}
	if g.Sponsor == "" {
		return model.GiftEntry{}, false
	}
	return g, true
}
