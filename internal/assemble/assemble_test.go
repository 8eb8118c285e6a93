package assemble

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/extract"
	"github.com/sells-group/disclosure-cli/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func meta() model.SubjectMetadata {
	url := "https://www.europarl.europa.eu/meps/en/197400/JANE_EXAMPLE/declarations"
	return model.SubjectMetadata{
		SubjectID:      "197400",
		Name:           "Jane EXAMPLE",
		Country:        "Austria",
		Affiliation:    "Example Group",
		DeclarationURL: &url,
	}
}

func TestAssemble_HTMLScenario(t *testing.T) {
	doc := `<table>
  <tr><th>Paid activities</th></tr>
  <tr><td>Example Foundation</td><td>Board Member</td><td>€5,000-€10,000</td><td>annual</td></tr>
</table>`

	rec, err := Assemble(meta(), extract.ExtractHTML(doc), now)
	require.NoError(t, err)

	assert.Equal(t, "197400", rec.SubjectID)
	assert.Equal(t, "Jane EXAMPLE", rec.Name)
	assert.Equal(t, now, rec.LastUpdated)
	assert.Equal(t, meta().URL(), rec.Sources.DeclarationURL)
	assert.Equal(t, model.ConfidenceHigh, rec.DataQuality.Confidence)
	assert.Equal(t, model.MethodHTML, rec.DataQuality.ParsingMethod)
	require.Len(t, rec.Income, 1)
	assert.Equal(t, "Example Foundation", rec.Income[0].EntityName)
	assert.Equal(t, 5000.0, *rec.Income[0].AmountMin)
	assert.Equal(t, 10000.0, *rec.Income[0].AmountMax)
	assert.Equal(t, model.PeriodAnnual, rec.Income[0].Period)
	assert.NotNil(t, rec.Gifts)
}

func TestAssemble_PDFRowsCollapse(t *testing.T) {
	text := "(A) Occupations before taking up office\n" +
		"1. Mitglied des Vorstands Arbeiter-Samariter-Bund X\n" +
		"2. Vorsitzender Arbeiter-Samariter-Bund Landesverband Thüringen X\n" +
		"3. Member of the Arbeiter-Samariter-Bund X\n"

	rec, err := Assemble(meta(), extract.ParsePDFText(text), now)
	require.NoError(t, err)

	require.Len(t, rec.Income, 1)
	e := rec.Income[0]
	assert.Equal(t, "Arbeiter-Samariter-Bund", e.EntityName)
	assert.Equal(t, "Board member", e.Role)
	assert.Equal(t, "Unpaid", e.Notes)
	assert.Equal(t, model.CategoryBoardMembership, e.Category)
	assert.Equal(t, model.ConfidenceMedium, rec.DataQuality.Confidence)
	assert.Equal(t, model.MethodPDF, rec.DataQuality.ParsingMethod)
}

func TestAssemble_ValidationFailureKeepsRecord(t *testing.T) {
	res := extract.Result{
		Method:     model.MethodHTML,
		Confidence: model.ConfidenceHigh,
		Income: []model.IncomeEntry{{
			Category:   model.CategoryOutsideActivity,
			EntityName: "Example Ltd",
			EntityType: model.EntityCompany,
			AmountMin:  model.Float(5000),
			AmountMax:  model.Float(1000),
			StartDate:  "2024-02-31",
		}},
		Issues: []string{"kept"},
	}

	rec, err := Assemble(meta(), res, now)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotNil(t, rec)

	assert.Equal(t, model.ConfidenceLow, rec.DataQuality.Confidence)
	assert.Equal(t, "kept", rec.DataQuality.Issues[0])
	assert.Greater(t, len(rec.DataQuality.Issues), 2)
	assert.Contains(t, rec.DataQuality.Issues[1], "Validation: ")
	require.Len(t, rec.Income, 1)
}

func TestAssemble_HTMLKeepsSameInstitutionAcrossTables(t *testing.T) {
	doc := `<table>
  <tr><th>Paid activities</th><th>Role</th><th>Income</th></tr>
  <tr><td>Example Foundation</td><td>Advisor</td><td>€2,000</td></tr>
</table>
<table>
  <tr><th>Board membership</th><th>Role</th></tr>
  <tr><td>Example Foundation</td><td>Board member</td></tr>
</table>`

	rec, err := Assemble(meta(), extract.ExtractHTML(doc), now)
	require.NoError(t, err)
	require.Len(t, rec.Income, 2)
	cats := []model.Category{rec.Income[0].Category, rec.Income[1].Category}
	assert.ElementsMatch(t, []model.Category{model.CategoryOutsideActivity, model.CategoryBoardMembership}, cats)
}

func TestAssemble_ListingPageUsesPDFLink(t *testing.T) {
	res := extract.ExtractHTML(`<a href="/files/decl.pdf">Declaration of private interests</a>`)

	rec, err := Assemble(meta(), res, now)
	require.NoError(t, err)
	assert.Equal(t, "https://www.europarl.europa.eu/files/decl.pdf", rec.Sources.DeclarationURL)
	assert.Equal(t, model.ConfidenceLow, rec.DataQuality.Confidence)
	assert.Empty(t, rec.Income)
}

func TestValidate_Invariants(t *testing.T) {
	rec := &model.DeclarationRecord{
		SubjectID:   "",
		LastUpdated: now,
		Income: []model.IncomeEntry{{
			Category:   "lobbying",
			EntityName: " ",
			EntityType: model.EntityUnknown,
			AmountMin:  model.Float(-1),
		}},
		Gifts:       []model.GiftEntry{{Sponsor: "", Item: "Book", Date: "15/05/2024"}},
		DataQuality: model.DataQuality{Confidence: "certain", ParsingMethod: model.MethodPDF, Issues: []string{}},
	}

	err := Validate(rec)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	joined := ve.Error()
	for _, want := range []string{
		"mep_id is empty",
		`confidence "certain" is not valid`,
		"income_and_interests[0]: entity_name is empty",
		`category "lobbying" is not valid`,
		"income_and_interests[0]: amount is negative",
		"gifts_travel[0]: sponsor is empty",
		`gifts_travel[0].date: "15/05/2024" is not a valid ISO date`,
	} {
		assert.Contains(t, joined, want)
	}
}

func TestValidateJSON(t *testing.T) {
	rec, err := Assemble(meta(), extract.Result{Method: model.MethodPDF, Confidence: model.ConfidenceLow}, now)
	require.NoError(t, err)
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(SchemaRecord, data))

	err = ValidateJSON(SchemaRecord, []byte(`{"mep_id": ""}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Violations)

	err = ValidateJSON(SchemaRecord, []byte(`{not json`))
	require.Error(t, err)
	assert.NotErrorAs(t, err, &ve)

	_, err = compiled("missing.schema.json")
	require.Error(t, err)
}

func TestValidateJSON_Index(t *testing.T) {
	idx := BuildIndex([]model.IndexSummary{{SubjectID: "1", Name: "A"}}, now, nil)
	data, err := json.Marshal(idx)
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(SchemaIndex, data))

	assert.Error(t, ValidateJSON(SchemaIndex, []byte(`{"meta": {"total_meps": -1}}`)))
}
