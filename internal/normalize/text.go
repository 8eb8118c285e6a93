// Package normalize holds the pure parsing and classification helpers shared by
// the HTML and PDF extractors: currency, dates, categories, entity types,
// periods and name cleanup.
package normalize

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultExcerptLength bounds source excerpts kept for audit.
const DefaultExcerptLength = 200

var (
	multiSpace    = regexp.MustCompile(`\s+`)
	leadingDash   = regexp.MustCompile(`^[–—-]+\s*`)
	trailingDash  = regexp.MustCompile(`\s*[–—-]+$`)
	nonSlugChars  = regexp.MustCompile(`[^A-Z0-9]+`)
	slugFoldPairs = strings.NewReplacer(
		"ß", "ss", "ẞ", "SS",
		"æ", "ae", "Æ", "AE",
		"œ", "oe", "Œ", "OE",
		"ø", "o", "Ø", "O",
		"ł", "l", "Ł", "L",
		"đ", "d", "Đ", "D",
		"þ", "th", "Þ", "TH",
	)
)

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// CleanName collapses whitespace and strips leading and trailing dashes.
func CleanName(name string) string {
	n := CollapseSpace(name)
	n = leadingDash.ReplaceAllString(n, "")
	n = trailingDash.ReplaceAllString(n, "")
	return strings.TrimSpace(n)
}

// Excerpt returns text with whitespace collapsed, cut to maxLen runes with a
// trailing ellipsis when longer.
func Excerpt(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}
	cleaned := CollapseSpace(text)
	if utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	r := []rune(cleaned)
	return string(r[:maxLen]) + "..."
}

// StripAccents removes combining marks after canonical decomposition and folds
// letters that have no decomposition (ß, ø, ł, ...).
func StripAccents(s string) string {
	s = slugFoldPairs.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug builds the uppercase, accent-free, underscore-joined form of a display
// name used in declaration URLs, e.g. "José García-López" -> "JOSE_GARCIA_LOPEZ".
func Slug(name string) string {
	s := strings.ToUpper(StripAccents(name))
	s = nonSlugChars.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// AlnumKey lowercases s and keeps only letters and digits.
func AlnumKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsAny reports whether lowered text contains any of the words as a
// plain substring. Words are expected in lower case.
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether word occurs in text bounded by non-letters on
// both sides. Matching is case-insensitive.
func ContainsWord(text, word string) bool {
	return IndexWord(strings.ToLower(text), strings.ToLower(word)) >= 0
}

// IndexWord returns the byte offset of the first bounded occurrence of word in
// lower, or -1. Both arguments must already be lower case.
func IndexWord(lower, word string) int {
	if word == "" {
		return -1
	}
	from := 0
	for from <= len(lower) {
		i := strings.Index(lower[from:], word)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(word)
		if boundaryBefore(lower, start, word) && boundaryAfter(lower, end, word) {
			return start
		}
		_, size := utf8.DecodeRuneInString(lower[start:])
		from = start + size
	}
	return -1
}

// WordPattern compiles a case-insensitive alternation of words, each bounded
// by non-letters. Group 1 holds the matched word. It returns nil for an empty
// list.
func WordPattern(words []string) *regexp.Regexp {
	alts := quoted(words)
	if alts == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(` + alts + `)(?:[^\p{L}\p{N}]|$)`)
}

// PhrasePattern compiles a case-insensitive alternation of phrases matched
// anywhere in the text. It returns nil for an empty list.
func PhrasePattern(phrases []string) *regexp.Regexp {
	alts := quoted(phrases)
	if alts == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + alts + `)`)
}

func quoted(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			parts = append(parts, regexp.QuoteMeta(w))
		}
	}
	return strings.Join(parts, "|")
}

func boundaryBefore(s string, i int, word string) bool {
	if i == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(word)
	if !isWordRune(first) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(prev)
}

func boundaryAfter(s string, i int, word string) bool {
	if i >= len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(word)
	if !isWordRune(last) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
