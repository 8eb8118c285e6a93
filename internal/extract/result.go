// Package extract turns declaration documents into structured income and gift
// entries. HTML pages are read table by table; PDFs are converted to text and
// split along the lettered sections of the official form.
package extract

import (
	"github.com/sells-group/disclosure-cli/internal/model"
)

// Issue messages shared with callers and tests.
const (
	IssueNoHTMLData     = "No structured financial data found in HTML"
	IssueNoPDFData      = "No financial data extracted from PDF"
	IssueNoSectionA     = "Section A not found in PDF"
	IssueNoSections     = "No declaration sections found in PDF"
	issuePDFLinkFormat  = "PDF found: %s - should be parsed as PDF"
	issueSectionsFormat = "Sections found: %s"
)

// Result is the output of one extraction.
type Result struct {
	Income     []model.IncomeEntry
	Gifts      []model.GiftEntry
	Confidence model.Confidence
	Issues     []string
	Method     model.ParsingMethod

	// PDFLink is set when an HTML page turned out to be a listing that
	// points at the declaration PDF.
	PDFLink string
}

// Empty reports whether nothing was extracted.
func (r Result) Empty() bool {
	return len(r.Income) == 0 && len(r.Gifts) == 0
}

func (r *Result) addIssue(msg string) {
	r.Issues = append(r.Issues, msg)
}
