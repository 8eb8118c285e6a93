package extract

import (
	"regexp"
	"slices"
	"strings"
)

// minSectionBody drops section bodies too short to hold a row.
const minSectionBody = 20

var sectionMarker = regexp.MustCompile(`(?m)^[ \t]*\(([A-I])\)[ \t]+`)

// SplitSections cuts declaration form text into lettered sections. A marker
// counts only at the start of a line; the body runs to the next marker. When
// a letter repeats, the later body wins. Bodies of minSectionBody characters
// or fewer are dropped.
func SplitSections(text string) map[string]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := make(map[string]string)

	locs := sectionMarker.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		letter := text[loc[2]:loc[3]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if len(body) <= minSectionBody {
			continue
		}
		sections[letter] = body
	}
	return sections
}

// sectionLetters lists the keys of sections in alphabetical order.
func sectionLetters(sections map[string]string) []string {
	letters := make([]string, 0, len(sections))
	for l := range sections {
		letters = append(letters, l)
	}
	slices.Sort(letters)
	return letters
}
