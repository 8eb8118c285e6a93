package normalize

import (
	_ "embed"
	"regexp"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/disclosure-cli/internal/model"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

// CategoryRule maps keywords to a category.
type CategoryRule struct {
	Category model.Category `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
}

// EntityRule maps keywords or regular expressions to an entity type.
type EntityRule struct {
	Type     model.EntityType `yaml:"type"`
	Keywords []string         `yaml:"keywords"`
	Patterns []string         `yaml:"patterns"`

	compiled []*regexp.Regexp
}

// PeriodRule maps per-language words to a period.
type PeriodRule struct {
	Period model.Period        `yaml:"period"`
	Words  map[string][]string `yaml:"words"`
}

// LinkLexicon holds the words used to spot declaration links.
type LinkLexicon struct {
	Phrases          map[string][]string `yaml:"phrases"`
	DeclarationWords []string            `yaml:"declaration_words"`
	FinancialWords   []string            `yaml:"financial_words"`
	InterestWords    []string            `yaml:"interest_words"`
	Paths            []string            `yaml:"paths"`
}

// HTMLLexicon holds the table routing keywords for HTML declarations.
type HTMLLexicon struct {
	FinancialKeywords []string `yaml:"financial_keywords"`
	MetadataKeywords  []string `yaml:"metadata_keywords"`
	ActivityKeywords  []string `yaml:"activity_keywords"`
	GiftKeywords      []string `yaml:"gift_keywords"`
	BoardKeywords     []string `yaml:"board_keywords"`
	OwnershipKeywords []string `yaml:"ownership_keywords"`
	PDFLinkKeywords   []string `yaml:"pdf_link_keywords"`
}

// PDFLexicon holds the row splitting vocabulary of the official PDF form.
type PDFLexicon struct {
	SkipMarkers       []string `yaml:"skip_markers"`
	HeaderPrefixes    []string `yaml:"header_prefixes"`
	PeriodWords       []string `yaml:"period_words"`
	PublicInfoPhrases []string `yaml:"public_info_phrases"`
}

// Lexicon is the full set of multilingual keyword tables.
type Lexicon struct {
	Categories  []CategoryRule      `yaml:"categories"`
	EntityTypes []EntityRule        `yaml:"entity_types"`
	Periods     []PeriodRule        `yaml:"periods"`
	Months      map[string][]string `yaml:"months"`
	Links       LinkLexicon         `yaml:"declaration_links"`
	HTML        HTMLLexicon         `yaml:"html"`
	PDF         PDFLexicon          `yaml:"pdf"`
}

// AllPhrases flattens the per-language declaration link phrases.
func (l LinkLexicon) AllPhrases() []string {
	var out []string
	for _, lang := range sortedKeys(l.Phrases) {
		out = append(out, l.Phrases[lang]...)
	}
	return out
}

// ParseLexicon decodes and compiles a lexicon document.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, eris.Wrap(err, "normalize: decode lexicon")
	}
	for i := range lex.EntityTypes {
		rule := &lex.EntityTypes[i]
		for _, p := range rule.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, eris.Wrapf(err, "normalize: compile entity pattern %q", p)
			}
			rule.compiled = append(rule.compiled, re)
		}
	}
	for lang, months := range lex.Months {
		if len(months) != 12 {
			return nil, eris.Errorf("normalize: lexicon months for %q has %d names", lang, len(months))
		}
	}
	return &lex, nil
}

var (
	lexOnce sync.Once
	lex     *Lexicon
)

// Lex returns the embedded lexicon. It panics if the embedded document is
// malformed, which is a build defect rather than a runtime condition.
func Lex() *Lexicon {
	lexOnce.Do(func() {
		l, err := ParseLexicon(lexiconYAML)
		if err != nil {
			panic(err)
		}
		lex = l
	})
	return lex
}
