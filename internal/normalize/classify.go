package normalize

import (
	"strings"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// InferCategory maps free text to a category using the ordered lexicon rules.
// Matching is a case-insensitive substring test; the first rule wins.
func InferCategory(text string) model.Category {
	lower := strings.ToLower(text)
	for _, rule := range Lex().Categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return model.CategoryOther
}

// InferEntityType maps an organisation name or description to an entity type.
func InferEntityType(text string) model.EntityType {
	lower := strings.ToLower(text)
	for _, rule := range Lex().EntityTypes {
		for _, re := range rule.compiled {
			if re.MatchString(text) {
				return rule.Type
			}
		}
		for _, kw := range rule.Keywords {
			if ContainsWord(lower, kw) || (len(kw) > 5 && strings.Contains(lower, kw)) {
				return rule.Type
			}
		}
	}
	return model.EntityUnknown
}

// DetectPeriod maps text to a payment period. Words must appear as whole words.
func DetectPeriod(text string) model.Period {
	lower := strings.ToLower(text)
	for _, rule := range Lex().Periods {
		for _, lang := range sortedKeys(rule.Words) {
			for _, w := range rule.Words[lang] {
				if IndexWord(lower, w) >= 0 {
					return rule.Period
				}
			}
		}
	}
	return model.PeriodUnknown
}
