// Package assemble merges extractor output into declaration records, validates
// them, and projects the index summaries used for ranking.
package assemble

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/extract"
	"github.com/sells-group/disclosure-cli/internal/model"
)

const issueValidationPrefix = "Validation: "

// Assemble builds the record for one subject from an extraction result. The
// record is always returned. When it fails validation its confidence drops
// to low, each violation is appended to the issues, and the
// *ValidationError is returned alongside.
func Assemble(meta model.SubjectMetadata, res extract.Result, now time.Time) (*model.DeclarationRecord, error) {
	rec := &model.DeclarationRecord{
		SubjectID:   meta.SubjectID,
		Name:        meta.Name,
		Country:     meta.Country,
		Affiliation: meta.Affiliation,
		Sources:     model.Sources{DeclarationURL: meta.URL()},
		LastUpdated: now.UTC(),
		Income:      extract.DedupeFor(res.Method, res.Income),
		Gifts:       append([]model.GiftEntry{}, res.Gifts...),
		DataQuality: model.DataQuality{
			Confidence:    res.Confidence,
			ParsingMethod: res.Method,
			Issues:        append([]string{}, res.Issues...),
		},
	}
	if res.PDFLink != "" {
		rec.Sources.DeclarationURL = res.PDFLink
	}
	if !rec.DataQuality.ParsingMethod.Valid() {
		rec.DataQuality.ParsingMethod = model.MethodHTML
	}

	err := Validate(rec)
	if err == nil {
		return rec, nil
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		return rec, err
	}
	zap.L().Warn("assemble: record failed validation",
		zap.String("subject_id", rec.SubjectID),
		zap.Strings("violations", ve.Violations),
	)
	rec.DataQuality.Confidence = model.ConfidenceLow
	for _, v := range ve.Violations {
		rec.DataQuality.Issues = append(rec.DataQuality.Issues, issueValidationPrefix+v)
	}
	return rec, ve
}
