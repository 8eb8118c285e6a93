package assemble

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/disclosure-cli/internal/model"
	"github.com/sells-group/disclosure-cli/internal/normalize"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Schema names accepted by ValidateJSON.
const (
	SchemaRecord = "record.schema.json"
	SchemaIndex  = "index.schema.json"
)

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "assemble: validation failed: " + strings.Join(e.Violations, "; ")
}

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

func compiled(name string) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		for _, n := range []string{SchemaRecord, SchemaIndex} {
			b, err := schemaFS.ReadFile("schema/" + n)
			if err != nil {
				schemaErr = eris.Wrapf(err, "assemble: read schema %s", n)
				return
			}
			if err := c.AddResource(n, bytes.NewReader(b)); err != nil {
				schemaErr = eris.Wrapf(err, "assemble: add schema %s", n)
				return
			}
		}
		schemas = make(map[string]*jsonschema.Schema)
		for _, n := range []string{SchemaRecord, SchemaIndex} {
			s, err := c.Compile(n)
			if err != nil {
				schemaErr = eris.Wrapf(err, "assemble: compile schema %s", n)
				return
			}
			schemas[n] = s
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, eris.Errorf("assemble: unknown schema %q", name)
	}
	return s, nil
}

// ValidateJSON checks a JSON document against the named embedded schema. A
// document that decodes but does not conform yields a *ValidationError.
func ValidateJSON(name string, data []byte) error {
	s, err := compiled(name)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "assemble: decode document")
	}
	if err := s.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			var out []string
			flatten(ve, &out)
			return &ValidationError{Violations: out}
		}
		return eris.Wrap(err, "assemble: validate document")
	}
	return nil
}

func flatten(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		flatten(c, out)
	}
}

// Validate checks a record's invariants and then its JSON form against the
// record schema. All violations are reported together.
func Validate(rec *model.DeclarationRecord) error {
	violations := invariants(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "assemble: encode record")
	}
	if err := ValidateJSON(SchemaRecord, data); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		violations = append(violations, ve.Violations...)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func invariants(rec *model.DeclarationRecord) []string {
	var v []string
	if strings.TrimSpace(rec.SubjectID) == "" {
		v = append(v, "mep_id is empty")
	}
	if !rec.DataQuality.Confidence.Valid() {
		v = append(v, fmt.Sprintf("confidence %q is not valid", rec.DataQuality.Confidence))
	}
	for i, e := range rec.Income {
		at := fmt.Sprintf("income_and_interests[%d]", i)
		if strings.TrimSpace(e.EntityName) == "" {
			v = append(v, at+": entity_name is empty")
		}
		if !e.Category.Valid() {
			v = append(v, fmt.Sprintf("%s: category %q is not valid", at, e.Category))
		}
		if !e.EntityType.Valid() {
			v = append(v, fmt.Sprintf("%s: entity_type %q is not valid", at, e.EntityType))
		}
		if e.AmountMin != nil && *e.AmountMin < 0 || e.AmountMax != nil && *e.AmountMax < 0 {
			v = append(v, at+": amount is negative")
		}
		if e.AmountMin != nil && e.AmountMax != nil && *e.AmountMax < *e.AmountMin {
			v = append(v, at+": amount_eur_max is below amount_eur_min")
		}
		v = append(v, checkDate(at+".start_date", e.StartDate)...)
		v = append(v, checkDate(at+".end_date", e.EndDate)...)
	}
	for i, g := range rec.Gifts {
		at := fmt.Sprintf("gifts_travel[%d]", i)
		if strings.TrimSpace(g.Sponsor) == "" {
			v = append(v, at+": sponsor is empty")
		}
		if g.ValueEUR != nil && *g.ValueEUR < 0 {
			v = append(v, at+": value_eur is negative")
		}
		v = append(v, checkDate(at+".date", g.Date)...)
	}
	return v
}

func checkDate(field, d string) []string {
	if d == "" {
		return nil
	}
	if got, ok := normalize.ParseDate(d); !ok || got != d {
		return []string{fmt.Sprintf("%s: %q is not a valid ISO date", field, d)}
	}
	return nil
}
