package assemble

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

// Summarize projects a record onto its index summary. The estimated total
// sums each income entry's upper bound, or lower bound when no upper bound
// is known, and is omitted when zero.
func Summarize(rec *model.DeclarationRecord) model.IndexSummary {
	s := model.IndexSummary{
		SubjectID:          rec.SubjectID,
		Name:               rec.Name,
		Country:            rec.Country,
		Affiliation:        rec.Affiliation,
		LastUpdated:        rec.LastUpdated,
		TotalIncomeEntries: len(rec.Income),
		TotalGiftEntries:   len(rec.Gifts),
	}
	var total float64
	for _, e := range rec.Income {
		total += e.EstimatedValue()
	}
	if total > 0 {
		s.TotalEstimatedValue = model.Float(total)
	}
	return s
}

// BuildIndex assembles the index document, ranking subjects by estimated
// value (highest first) and then by name.
func BuildIndex(summaries []model.IndexSummary, now time.Time, lastFullRefresh *time.Time) model.Index {
	subjects := slices.Clone(summaries)
	slices.SortStableFunc(subjects, func(a, b model.IndexSummary) int {
		av, bv := value(a), value(b)
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if subjects == nil {
		subjects = []model.IndexSummary{}
	}
	return model.Index{
		Meta: model.IndexMeta{
			GeneratedAt:     now.UTC(),
			TotalSubjects:   len(subjects),
			LastFullRefresh: lastFullRefresh,
		},
		Subjects: subjects,
	}
}

func value(s model.IndexSummary) float64 {
	if s.TotalEstimatedValue == nil {
		return 0
	}
	return *s.TotalEstimatedValue
}

// Diff describes what changed between two runs' records for a subject, one
// line per change. It returns nil when prev is nil or nothing changed.
func Diff(prev, next *model.DeclarationRecord) []string {
	if prev == nil || next == nil {
		return nil
	}
	var changes []string
	if prev.Sources.DeclarationURL != next.Sources.DeclarationURL {
		changes = append(changes, fmt.Sprintf("declaration_url: %q -> %q", prev.Sources.DeclarationURL, next.Sources.DeclarationURL))
	}
	if prev.DataQuality.Confidence != next.DataQuality.Confidence {
		changes = append(changes, fmt.Sprintf("confidence: %s -> %s", prev.DataQuality.Confidence, next.DataQuality.Confidence))
	}
	if prev.DataQuality.ParsingMethod != next.DataQuality.ParsingMethod {
		changes = append(changes, fmt.Sprintf("parsing_method: %s -> %s", prev.DataQuality.ParsingMethod, next.DataQuality.ParsingMethod))
	}

	before := incomeByKey(prev.Income)
	after := incomeByKey(next.Income)
	for _, k := range sortedKeys(after) {
		a := after[k]
		b, ok := before[k]
		if !ok {
			changes = append(changes, fmt.Sprintf("income added: %s (%s)", a.EntityName, a.Category))
			continue
		}
		if amountString(b) != amountString(a) {
			changes = append(changes, fmt.Sprintf("income amount changed: %s: %s -> %s", a.EntityName, amountString(b), amountString(a)))
		}
		if b.Role != a.Role {
			changes = append(changes, fmt.Sprintf("income role changed: %s: %q -> %q", a.EntityName, b.Role, a.Role))
		}
	}
	for _, k := range sortedKeys(before) {
		if _, ok := after[k]; !ok {
			b := before[k]
			changes = append(changes, fmt.Sprintf("income removed: %s (%s)", b.EntityName, b.Category))
		}
	}

	if len(prev.Gifts) != len(next.Gifts) {
		changes = append(changes, fmt.Sprintf("gifts: %d -> %d", len(prev.Gifts), len(next.Gifts)))
	}
	return changes
}

func incomeByKey(entries []model.IncomeEntry) map[string]model.IncomeEntry {
	m := make(map[string]model.IncomeEntry, len(entries))
	for _, e := range entries {
		k := normalize.AlnumKey(e.EntityName) + "|" + string(e.Category)
		if _, dup := m[k]; !dup {
			m[k] = e
		}
	}
	return m
}

func amountString(e model.IncomeEntry) string {
	if !e.HasAmount() {
		return "none"
	}
	lo, hi := "?", "?"
	if e.AmountMin != nil {
		lo = fmt.Sprintf("%.0f", *e.AmountMin)
	}
	if e.AmountMax != nil {
		hi = fmt.Sprintf("%.0f", *e.AmountMax)
	}
	if lo == hi {
		return lo
	}
	return lo + "-" + hi
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
