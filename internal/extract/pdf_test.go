package extract

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/model"
)

const declarationText = `DECLARATION OF MEMBERS' FINANCIAL INTERESTS
(A) Occupation(s) during the three-year period before taking up office
1. Mitglied des Vorstands Arbeiter-Samariter-Bund X
2. Vorsitzender Arbeiter-Samariter-Bund Landesverband Thüringen X
3. Member of the Arbeiter-Samariter-Bund X
4. Consultant for Acme Consulting GmbH     2 500 EUR     Monthly
(B) Any paid activity conducted alongside the exercise of office
1. Lecturer at University of Vienna     12 000 EUR     Annually
(C) Membership of any boards or committees of companies
1. Member of the board of Green Energy Cooperative     X
(D) Any holding in a company or partnership
1. Acme Holdings SA shares     Public Information
(E) Any support, financial or in staff or in kind
1. Acme Airlines     Flight to Strasbourg     €350     15/05/2024
(F) Other
1. None
`

type mockTextExtractor struct{ mock.Mock }

func (m *mockTextExtractor) ExtractText(ctx context.Context, raw []byte) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

func TestSplitSections(t *testing.T) {
	sections := SplitSections(declarationText)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, sectionLetters(sections))
	assert.Contains(t, sections["A"], "Arbeiter-Samariter-Bund")
	assert.NotContains(t, sections["A"], "(B)")
}

func TestSplitSections_MarkerMustStartLine(t *testing.T) {
	text := "see point (A) above for the list of paid activities\n(B)  A paid activity alongside office work\n"
	sections := SplitSections(text)

	assert.NotContains(t, sections, "A")
	assert.Contains(t, sections, "B")
}

func TestSplitSections_Unrecognised(t *testing.T) {
	assert.Empty(t, SplitSections("Lorem ipsum dolor sit amet"))
}

func TestIncomeEntry_GermanBoardRow(t *testing.T) {
	e, ok := incomeEntry("A", "3. Mitglied des Vorstands Arbeiter-Samariter-Bund X")
	require.True(t, ok)

	assert.Equal(t, "Arbeiter-Samariter-Bund", e.EntityName)
	assert.Equal(t, "Board member", e.Role)
	assert.Equal(t, "Unpaid", e.Notes)
	assert.Equal(t, model.CategoryBoardMembership, e.Category)
	assert.False(t, e.HasAmount())
}

func TestIncomeEntry_RoleRules(t *testing.T) {
	tests := []struct {
		name     string
		row      string
		entity   string
		role     string
		category model.Category
	}{
		{"deputy chair german", "4. Stellvertretende Vorsitzende des Weissen Ringes X", "Weisser Ring", "Deputy Chair", model.CategoryBoardMembership},
		{"chair french", "1. Présidente de la Fondation Example X", "Fondation Example", "Chair", model.CategoryBoardMembership},
		{"member general", "2. Member of the European Movement International X", "European Movement International", "Member", model.CategoryOutsideActivity},
		{"coordinator italian", "5. Coordinatore della Rete Civica Toscana X", "Rete Civica Toscana", "Coordinator", model.CategoryOutsideActivity},
		{"generic fallback", "6. Senior advisor at Example Partners LLP X", "Example Partners LLP", "Senior advisor at Example Partners LLP", model.CategoryOutsideActivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := incomeEntry("A", tt.row)
			require.True(t, ok)
			assert.Equal(t, tt.entity, e.EntityName)
			assert.Equal(t, tt.role, e.Role)
			assert.Equal(t, tt.category, e.Category)
		})
	}
}

func TestIncomeEntry_SkippedRows(t *testing.T) {
	for _, row := range []string{"1. None", "1. -", "2. X", "1. Inga", "1. Keine", "1. Professional activity", "1. Income category", "3. Abc"} {
		_, ok := incomeEntry("A", row)
		assert.False(t, ok, row)
	}
}

func TestIncomeEntry_AmountNoiseIgnored(t *testing.T) {
	e, ok := incomeEntry("A", "1. Speaker at Example Forum     2     Monthly")
	require.True(t, ok)
	assert.False(t, e.HasAmount())
	assert.Equal(t, model.PeriodMonthly, e.Period)
}

func TestSplitRow_GluedColumns(t *testing.T) {
	row, ok := splitRow("2. Lecturer at University of Vienna Annualy Public Information")
	require.True(t, ok)
	assert.Equal(t, "Lecturer at University of Vienna", row.activity)
	assert.Equal(t, "Annualy", row.period)
	assert.Equal(t, "Public Information", row.income)
}

func TestSplitRow_CaseFoldingChangesByteLength(t *testing.T) {
	tests := []struct {
		raw      string
		activity string
		period   string
		income   string
	}{
		{"1. İİİİİİ Verein Monthly", "İİİİİİ Verein", "Monthly", ""},
		{"1. ȺȺȺȺȺȺȺȺȺȺ Monthly", "ȺȺȺȺȺȺȺȺȺȺ", "Monthly", ""},
		{"1. Stiftelsen Åland MÅNADSVIS 300 EUR", "Stiftelsen Åland", "MÅNADSVIS", "300 EUR"},
		{"1. İstanbul Vakfı ÖFFENTLICHE Angabe", "İstanbul Vakfı", "", "ÖFFENTLICHE Angabe"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			row, ok := splitRow(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.activity, row.activity)
			assert.Equal(t, tt.period, row.period)
			assert.Equal(t, tt.income, row.income)
			assert.True(t, utf8.ValidString(row.activity))
		})
	}
}

func TestParsePDFText_NonASCIIRowsDoNotPanic(t *testing.T) {
	text := "\n(A) Occupations before taking up office\n1. ȺȺȺȺȺȺȺȺȺȺ Monthly\n2. İİİİİİ Verein Monthly\n"

	var res Result
	require.NotPanics(t, func() { res = ParsePDFText(text) })
	for _, e := range res.Income {
		assert.True(t, utf8.ValidString(e.EntityName), e.EntityName)
	}
}

func TestTrimUnpaidMarker(t *testing.T) {
	got, ok := trimUnpaidMarker("Example Foundation X")
	assert.True(t, ok)
	assert.Equal(t, "Example Foundation", got)

	got, ok = trimUnpaidMarker("Example FoundationX")
	assert.True(t, ok)
	assert.Equal(t, "Example Foundation", got)

	_, ok = trimUnpaidMarker("ASSOCIATION SAX")
	assert.False(t, ok)
}

func TestParsePDFText_FullDeclaration(t *testing.T) {
	res := ParsePDFText(declarationText)

	assert.Equal(t, model.MethodPDF, res.Method)
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Equal(t, []string{"Sections found: A, B, C, D, E"}, res.Issues)

	names := make([]string, 0, len(res.Income))
	for _, e := range res.Income {
		names = append(names, e.EntityName)
	}
	assert.Equal(t, []string{
		"Acme Consulting GmbH",
		"Acme Holdings SA shares",
		"Arbeiter-Samariter-Bund",
		"Green Energy Cooperative",
		"Lecturer at University of Vienna",
	}, names)

	consult := res.Income[0]
	assert.Equal(t, model.CategoryOutsideActivity, consult.Category)
	assert.Equal(t, model.EntityCompany, consult.EntityType)
	assert.Equal(t, model.PeriodMonthly, consult.Period)
	require.NotNil(t, consult.AmountMin)
	assert.Equal(t, 2500.0, *consult.AmountMin)

	holding := res.Income[1]
	assert.Equal(t, model.CategoryOwnership, holding.Category)
	assert.Equal(t, "Public Information", holding.Notes)
	assert.False(t, holding.HasAmount())

	asb := res.Income[2]
	assert.Equal(t, "Board member", asb.Role)

	board := res.Income[3]
	assert.Equal(t, model.CategoryBoardMembership, board.Category)
	assert.Equal(t, "Board member", board.Role)
	assert.Equal(t, "Unpaid", board.Notes)

	lecturer := res.Income[4]
	assert.Equal(t, paidNoteB, lecturer.Notes)
	assert.Equal(t, model.PeriodAnnual, lecturer.Period)
	require.NotNil(t, lecturer.AmountMax)
	assert.Equal(t, 12000.0, *lecturer.AmountMax)

	require.Len(t, res.Gifts, 1)
	gift := res.Gifts[0]
	assert.Equal(t, "Acme Airlines", gift.Sponsor)
	assert.Equal(t, "Flight to Strasbourg", gift.Item)
	require.NotNil(t, gift.ValueEUR)
	assert.Equal(t, 350.0, *gift.ValueEUR)
	assert.Equal(t, "2024-05-15", gift.Date)
}

func TestParsePDFText_Unrecognised(t *testing.T) {
	res := ParsePDFText("Scanned image without text layer")

	assert.True(t, res.Empty())
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Equal(t, []string{IssueNoSections, IssueNoSectionA, IssueNoPDFData}, res.Issues)
}

func TestParsePDFText_MissingSectionA(t *testing.T) {
	res := ParsePDFText("(C) Membership of boards\n1. Member of the board of Example Trust     X\n")

	require.Len(t, res.Income, 1)
	assert.Contains(t, res.Issues, IssueNoSectionA)
	assert.Contains(t, res.Issues, "Sections found: C")
}

func TestExtractPDF(t *testing.T) {
	raw := []byte("%PDF-1.7")

	te := new(mockTextExtractor)
	te.On("ExtractText", mock.Anything, raw).Return(declarationText, nil)
	res := ExtractPDF(context.Background(), te, raw)
	assert.Len(t, res.Income, 5)
	te.AssertExpectations(t)

	failing := new(mockTextExtractor)
	failing.On("ExtractText", mock.Anything, raw).Return("", errors.New("pdftotext: exit status 1"))
	res = ExtractPDF(context.Background(), failing, raw)
	assert.True(t, res.Empty())
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0], "PDF parse error")
}
