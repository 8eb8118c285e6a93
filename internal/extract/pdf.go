package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// TextExtractor converts raw PDF bytes to plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, raw []byte) (string, error)
}

var numberedRow = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+\S.*$`)

// ExtractPDF converts raw with te and parses the text. Conversion failures
// come back as a low-confidence result carrying the error as an issue.
func ExtractPDF(ctx context.Context, te TextExtractor, raw []byte) Result {
	text, err := te.ExtractText(ctx, raw)
	if err != nil {
		return Result{
			Method:     model.MethodPDF,
			Confidence: model.ConfidenceLow,
			Issues:     []string{fmt.Sprintf("PDF parse error: %v", err)},
		}
	}
	return ParsePDFText(text)
}

// ParsePDFText reads the text of a declaration form. Sections A to D become
// income entries and section E becomes gifts. PDF results are never rated
// high confidence.
func ParsePDFText(text string) Result {
	res := Result{Method: model.MethodPDF, Confidence: model.ConfidenceMedium}

	sections := SplitSections(text)
	if len(sections) == 0 {
		res.addIssue(IssueNoSections)
	}

	if _, ok := sections["A"]; !ok {
		res.addIssue(IssueNoSectionA)
	}
	for _, letter := range []string{"A", "B", "C", "D"} {
		body, ok := sections[letter]
		if !ok {
			continue
		}
		for _, row := range numberedRow.FindAllString(body, -1) {
			if e, ok := incomeEntry(letter, row); ok {
				res.Income = append(res.Income, e)
			}
		}
	}
	if body, ok := sections["E"]; ok {
		for _, row := range numberedRow.FindAllString(body, -1) {
			if g, ok := giftEntry(row); ok {
				res.Gifts = append(res.Gifts, g)
			}
		}
	}

	if res.Empty() {
		res.Confidence = model.ConfidenceLow
		res.addIssue(IssueNoPDFData)
	}

	before := len(res.Income)
	res.Income = Dedupe(res.Income)
	if dropped := before - len(res.Income); dropped > 0 {
		zap.L().Debug("extract: dropped duplicate pdf entries", zap.Int("dropped", dropped))
	}

	if len(sections) > 0 {
		res.addIssue(fmt.Sprintf(issueSectionsFormat, strings.Join(sectionLetters(sections), ", ")))
	}
	return res
}
