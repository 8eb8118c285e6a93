package normalize

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	isoDate  = regexp.MustCompile(`(?:^|\D)(\d{4})-(\d{1,2})-(\d{1,2})(?:\D|$)`)
	dmyDate  = regexp.MustCompile(`(?:^|\D)(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})(?:\D|$)`)
	bareYear = regexp.MustCompile(`^(\d{4})$`)

	monthOnce  sync.Once
	monthIndex map[string]int
	monthYear  *regexp.Regexp
)

// ParseDate converts loosely formatted dates to ISO YYYY-MM-DD. It accepts
// YYYY-MM-DD, DD/MM/YYYY, DD.MM.YYYY, DD-MM-YYYY, "[D] Month YYYY" with month
// names in several languages, and a bare YYYY (defaulted to January 1).
// Calendar-invalid dates and unrecognised text return false.
func ParseDate(text string) (string, bool) {
	cleaned := CollapseSpace(text)
	if cleaned == "" {
		return "", false
	}

	if m := isoDate.FindStringSubmatch(cleaned); m != nil {
		return isoFrom(m[1], m[2], m[3])
	}
	if m := dmyDate.FindStringSubmatch(cleaned); m != nil {
		return isoFrom(m[3], m[2], m[1])
	}

	compileMonths()
	if m := monthYear.FindStringSubmatch(cleaned); m != nil {
		month := monthIndex[strings.ToLower(m[2])]
		day := m[1]
		if day == "" {
			day = "1"
		}
		return isoFrom(m[3], strconv.Itoa(month), day)
	}

	if m := bareYear.FindStringSubmatch(cleaned); m != nil {
		return isoFrom(m[1], "1", "1")
	}
	return "", false
}

// LooksLikeDate reports whether text parses as a date.
func LooksLikeDate(text string) bool {
	_, ok := ParseDate(text)
	return ok
}

func isoFrom(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 2100 {
		return "", false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}

func compileMonths() {
	monthOnce.Do(func() {
		monthIndex = make(map[string]int)
		for _, lang := range sortedKeys(Lex().Months) {
			for i, name := range Lex().Months[lang] {
				monthIndex[strings.ToLower(name)] = i + 1
			}
		}
		names := make([]string, 0, len(monthIndex))
		for name := range monthIndex {
			names = append(names, regexp.QuoteMeta(name))
		}
		// Longest first so "juillet" is not shadowed by "juli".
		slices.SortFunc(names, func(a, b string) int {
			if len(a) != len(b) {
				return len(b) - len(a)
			}
			return strings.Compare(a, b)
		})
		monthYear = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(?:(\d{1,2})\.?\s+)?(` +
			strings.Join(names, "|") + `)\.?,?\s+(\d{4})(?:\D|$)`)
	})
}
