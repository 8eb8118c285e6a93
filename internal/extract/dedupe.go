package extract

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

type seenKey struct {
	entity   string
	category model.Category
	full     string
}

// Dedupe drops repeated income entries and sorts the survivors by entity
// name. Two entries are duplicates when their entity|role|category keys are
// equal, or when one entity key contains the other; the first entry wins.
// Applying Dedupe to its own output returns it unchanged.
func Dedupe(entries []model.IncomeEntry) []model.IncomeEntry {
	return dedupe(entries, false)
}

// DedupeByCategory is Dedupe with entity containment only counted between
// entries of the same category, so an institution listed both as an activity
// and as a board seat keeps both entries.
func DedupeByCategory(entries []model.IncomeEntry) []model.IncomeEntry {
	return dedupe(entries, true)
}

// DedupeFor applies DedupeByCategory to HTML results and Dedupe to the rest.
func DedupeFor(method model.ParsingMethod, entries []model.IncomeEntry) []model.IncomeEntry {
	if method == model.MethodHTML {
		return DedupeByCategory(entries)
	}
	return Dedupe(entries)
}

func dedupe(entries []model.IncomeEntry, sameCategory bool) []model.IncomeEntry {
	out := make([]model.IncomeEntry, 0, len(entries))
	var seen []seenKey

	for _, e := range entries {
		k := seenKey{entity: normalize.AlnumKey(e.EntityName), category: e.Category}
		k.full = k.entity + "|" + normalize.AlnumKey(e.Role) + "|" + string(e.Category)
		if duplicate(k, seen, sameCategory) {
			continue
		}
		seen = append(seen, k)
		out = append(out, e)
	}

	SortByEntity(out)
	return out
}

func duplicate(k seenKey, seen []seenKey, sameCategory bool) bool {
	for _, s := range seen {
		if s.full == k.full {
			return true
		}
		if k.entity == "" || s.entity == "" {
			continue
		}
		if sameCategory && s.category != k.category {
			continue
		}
		if strings.Contains(s.entity, k.entity) || strings.Contains(k.entity, s.entity) {
			return true
		}
	}
	return false
}

// SortByEntity orders entries by entity name using locale-aware collation.
func SortByEntity(entries []model.IncomeEntry) {
	c := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(entries, func(a, b model.IncomeEntry) int {
		return c.CompareString(a.EntityName, b.EntityName)
	})
}
