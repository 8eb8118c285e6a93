package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// Amount is a parsed EUR amount. Min and Max are both nil when nothing was
// recognised; a single figure sets both to the same value.
type Amount struct {
	Min        *float64
	Max        *float64
	Confidence model.Confidence
}

// Found reports whether any amount was recognised.
func (a Amount) Found() bool {
	return a.Min != nil || a.Max != nil
}

var (
	currencySymbols = regexp.MustCompile(`[€$£]`)
	currencyWords   = regexp.MustCompile(`(?i)\b(?:eur|euros?)\b`)
	numberToken     = regexp.MustCompile(`\d{1,3}(?:[ \x{00a0}.,']\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?`)
	rangeSeparator  = regexp.MustCompile(`(?i)^\s*(?:-|–|—|to|à|a|bis|till)\s*$`)
)

// ParseCurrency extracts an EUR amount or range from free text such as
// "€1,000", "1 000 EUR", "1000-5000" or "5.001 bis 10.000". Reversed range
// bounds are swapped so Min never exceeds Max. Unparseable text yields an
// Amount with low confidence and no bounds.
func ParseCurrency(text string) Amount {
	cleaned := currencySymbols.ReplaceAllString(text, " ")
	cleaned = currencyWords.ReplaceAllString(cleaned, " ")
	cleaned = CollapseSpace(cleaned)
	if cleaned == "" {
		return Amount{Confidence: model.ConfidenceLow}
	}

	locs := numberToken.FindAllStringIndex(cleaned, -1)
	if len(locs) == 0 {
		return Amount{Confidence: model.ConfidenceLow}
	}

	first, ok := parseNumber(cleaned[locs[0][0]:locs[0][1]])
	if !ok {
		return Amount{Confidence: model.ConfidenceLow}
	}

	if len(locs) >= 2 && rangeSeparator.MatchString(cleaned[locs[0][1]:locs[1][0]]) {
		second, ok := parseNumber(cleaned[locs[1][0]:locs[1][1]])
		if ok {
			lo, hi := first, second
			if lo > hi {
				lo, hi = hi, lo
			}
			return Amount{Min: model.Float(lo), Max: model.Float(hi), Confidence: model.ConfidenceHigh}
		}
	}

	return Amount{Min: model.Float(first), Max: model.Float(first), Confidence: model.ConfidenceHigh}
}

// LooksLikeCurrency reports whether text carries an explicit currency marker
// next to a number.
func LooksLikeCurrency(text string) bool {
	if !numberToken.MatchString(text) {
		return false
	}
	return currencySymbols.MatchString(text) || currencyWords.MatchString(text)
}

// parseNumber resolves grouping and decimal separators. When both '.' and ','
// occur the last one is the decimal mark; a lone separator followed by exactly
// three digits is grouping ("1.500" is 1500).
func parseNumber(tok string) (float64, bool) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(tok)

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case dots+commas > 1:
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	case dots+commas == 1:
		sep := strings.IndexAny(s, ".,")
		if len(s)-sep-1 == 3 {
			s = s[:sep] + s[sep+1:]
		} else {
			s = s[:sep] + "." + s[sep+1:]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
