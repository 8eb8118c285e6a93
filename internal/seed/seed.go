// Package seed reads the list of subjects to process from CSV, TSV or XLSX.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// ErrMissingInput is returned when the input file does not exist.
var ErrMissingInput = errors.New("seed: input file not found")

// Options controls loading.
type Options struct {
	// Sheet selects an XLSX worksheet by name; the first sheet is used when empty.
	Sheet string
	// Limit caps the number of subjects returned; 0 means no limit.
	Limit int
}

// headerAliases maps accepted column names onto the csv tags of model.Subject.
var headerAliases = map[string]string{
	"mep_id":      "mep_id",
	"id":          "mep_id",
	"name":        "name",
	"full_name":   "name",
	"country":     "country",
	"party":       "party",
	"affiliation": "party",
	"group":       "party",
	"profile_url": "profile_url",
	"url":         "profile_url",
}

// Load reads subjects from path. Rows without an id or a name are skipped
// with a warning.
func Load(path string, opts Options) ([]model.Subject, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, eris.Wrap(ErrMissingInput, path)
		}
		return nil, eris.Wrapf(err, "seed: stat %s", path)
	}

	var (
		rows rowReader
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = xlsxRows(path, opts.Sheet)
	case ".tsv", ".tab":
		rows, err = delimitedRows(path, '\t')
	default:
		rows, err = delimitedRows(path, ',')
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return decode(rows, path, opts.Limit)
}

type rowReader interface {
	Read() ([]string, error)
	Close() error
}

func decode(rows rowReader, path string, limit int) ([]model.Subject, error) {
	raw, err := rows.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read header of %s", path)
	}

	header := canonicalHeader(raw)
	dec, err := csvutil.NewDecoder(&paddedRows{next: rows, width: len(header)}, header...)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: decoder for %s", path)
	}

	var subjects []model.Subject
	line := 1
	for {
		line++
		var s model.Subject
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "seed: decode %s row %d", path, line)
		}
		s = trim(s)
		if s.ID == "" || s.Name == "" {
			zap.L().Warn("seed: skipping row without id or name",
				zap.String("path", path),
				zap.Int("row", line),
			)
			continue
		}
		subjects = append(subjects, s)
		if limit > 0 && len(subjects) >= limit {
			break
		}
	}
	return subjects, nil
}

func canonicalHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if canon, ok := headerAliases[key]; ok {
			out[i] = canon
		} else {
			out[i] = key
		}
	}
	return dedupeHeader(out)
}

// dedupeHeader renames repeated columns so the first occurrence wins.
func dedupeHeader(h []string) []string {
	seen := make(map[string]bool, len(h))
	for i, name := range h {
		if name == "" || seen[name] {
			h[i] = fmt.Sprintf("_col%d", i)
			continue
		}
		seen[name] = true
	}
	return h
}

func trim(s model.Subject) model.Subject {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Country = strings.TrimSpace(s.Country)
	s.Affiliation = strings.TrimSpace(s.Affiliation)
	s.ProfileURL = strings.TrimSpace(s.ProfileURL)
	return s
}

type fileRows struct {
	*csv.Reader
	f *os.File
}

func (r fileRows) Close() error { return r.f.Close() }

func delimitedRows(path string, comma rune) (rowReader, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, eris.Wrapf(err, "seed: open %s", path)
	}
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return fileRows{Reader: r, f: f}, nil
}

// paddedRows fits every record to the header width; csvutil rejects ragged
// rows.
type paddedRows struct {
	next  rowReader
	width int
}

func (r *paddedRows) Read() ([]string, error) {
	rec, err := r.next.Read()
	if err != nil {
		return nil, err
	}
	for len(rec) < r.width {
		rec = append(rec, "")
	}
	return rec[:r.width], nil
}

type sliceRows struct {
	rows [][]string
	next int
}

func (r *sliceRows) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *sliceRows) Close() error { return nil }

func xlsxRows(path, sheetName string) (rowReader, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: parse xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("seed: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("seed: %s has no sheet %q", path, sheetName)
		}
		sheet = s
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		record := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			record[i] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, record)
	}
	return &sliceRows{rows: rows}, nil
}
