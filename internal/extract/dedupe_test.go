package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/model"
)

func entry(name, role string, cat model.Category) model.IncomeEntry {
	return model.IncomeEntry{EntityName: name, Role: role, Category: cat, EntityType: model.EntityUnknown}
}

func TestDedupe_SameInstitutionCollapses(t *testing.T) {
	in := []model.IncomeEntry{
		entry("Arbeiter-Samariter-Bund", "Board member", model.CategoryBoardMembership),
		entry("Arbeiter-Samariter-Bund Landesverband Thüringen", "Chair", model.CategoryBoardMembership),
		entry("arbeiter samariter bund", "Member", model.CategoryOutsideActivity),
	}

	out := Dedupe(in)
	assert.Len(t, out, 1)
	assert.Equal(t, "Board member", out[0].Role)
}

func TestDedupe_SortsAndIsIdempotent(t *testing.T) {
	in := []model.IncomeEntry{
		entry("Zeta Holdings", "", model.CategoryOwnership),
		entry("Example Foundation", "Chair", model.CategoryBoardMembership),
		entry("Example Foundation", "Chair", model.CategoryBoardMembership),
		entry("Österreichischer Alpenverein", "Member", model.CategoryOutsideActivity),
		entry("acme ltd", "Advisor", model.CategoryConsultancy),
	}

	once := Dedupe(in)
	names := make([]string, 0, len(once))
	for _, e := range once {
		names = append(names, e.EntityName)
	}
	assert.Equal(t, []string{"acme ltd", "Example Foundation", "Österreichischer Alpenverein", "Zeta Holdings"}, names)

	twice := Dedupe(once)
	assert.Equal(t, once, twice)
}

func TestDedupe_EmptyEntityKeys(t *testing.T) {
	in := []model.IncomeEntry{
		entry("---", "Chair", model.CategoryBoardMembership),
		entry("Example Trust", "Chair", model.CategoryBoardMembership),
		entry("...", "Chair", model.CategoryBoardMembership),
	}

	out := Dedupe(in)
	assert.Len(t, out, 2)
	assert.Equal(t, out, Dedupe(out))
}

func TestDedupeByCategory_KeepsCrossCategoryEntries(t *testing.T) {
	in := []model.IncomeEntry{
		entry("Example Foundation", "Advisor", model.CategoryOutsideActivity),
		entry("Example Foundation", "Board member", model.CategoryBoardMembership),
		entry("Example Foundation Vienna", "Advisor", model.CategoryOutsideActivity),
	}

	out := DedupeByCategory(in)
	require.Len(t, out, 2)
	assert.Equal(t, model.CategoryOutsideActivity, out[0].Category)
	assert.Equal(t, model.CategoryBoardMembership, out[1].Category)
	assert.Equal(t, out, DedupeByCategory(out))

	assert.Len(t, DedupeFor(model.MethodHTML, in), 2)
	assert.Len(t, DedupeFor(model.MethodPDF, in), 1)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
