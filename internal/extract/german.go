package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	leadingArticle = regexp.MustCompile(`(?i)^(?:des|der|die|das|dem|den|ein|eine|eines|einer|einem|einen)\s+`)
	germanHint     = regexp.MustCompile(`(?i)[äöüß]|\b(?:des|der|die|das|mitglied|vorsitzende[rn]?)\b`)

	innerArticles = map[string]bool{"der": true, "die": true, "das": true, "des": true, "dem": true, "den": true}
)

// germanOrg rewrites a known organisation prefix to its canonical name.
type germanOrg struct {
	prefix *regexp.Regexp
	name   string
}

// Evaluated in order; the first matching prefix is replaced.
var germanOrgs = []germanOrg{
	{regexp.MustCompile(`(?i)^stiftungsrate?s?\s+der\s+stiftung`), "Foundation Board"},
	{regexp.MustCompile(`(?i)^stiftungsrat`), "Foundation Board"},
	{regexp.MustCompile(`(?i)^arbeiter-samariter(?:[\s-]bund(?:es)?)?`), "Arbeiter-Samariter-Bund"},
	{regexp.MustCompile(`(?i)^weisse[nr]?\s+ring(?:es|s)?`), "Weisser Ring"},
	{regexp.MustCompile(`(?i)^thüringer\s+gesellschaft`), "Thüringer Gesellschaft"},
	{regexp.MustCompile(`(?i)^landesarbeitskreis`), "Landesarbeitskreis"},
	{regexp.MustCompile(`(?i)^landesverband`), "Landesverband"},
	{regexp.MustCompile(`(?i)^aufsichtsrate?s?\s+der`), ""},
	{regexp.MustCompile(`(?i)^vorstand(?:e?s)?`), "Board"},
	{regexp.MustCompile(`(?i)^europäische[ns]?\s+parlament(?:e?s)?`), "European Parliament"},
	{regexp.MustCompile(`(?i)^europa-union`), "Europa-Union"},
	{regexp.MustCompile(`(?i)^international\s+fire\s+and\s+rescue`), "International Fire and Rescue"},
	{regexp.MustCompile(`(?i)^bürger\s+europas`), "Bürger Europas"},
}

// LooksGerman reports whether text carries umlauts or common German words.
func LooksGerman(text string) bool {
	return germanHint.MatchString(text)
}

// CleanGermanName strips articles from a German organisation name and maps
// well-known organisations to a canonical spelling. It returns the input
// unchanged when cleaning would leave nothing.
func CleanGermanName(name string) string {
	cleaned := strings.TrimSpace(leadingArticle.ReplaceAllString(strings.TrimSpace(name), ""))

	for _, org := range germanOrgs {
		if loc := org.prefix.FindStringIndex(cleaned); loc != nil {
			cleaned = strings.TrimSpace(org.name + cleaned[loc[1]:])
			break
		}
	}

	words := strings.Fields(cleaned)
	kept := words[:0]
	for i, w := range words {
		if i > 0 && i < len(words)-1 && innerArticles[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	cleaned = strings.Join(kept, " ")

	if cleaned == "" {
		return strings.TrimSpace(name)
	}
	r, size := utf8.DecodeRuneInString(cleaned)
	return string(unicode.ToUpper(r)) + cleaned[size:]
}
