// Package output persists declaration records, the index document and the
// run changelog.
package output

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/cache"
	"github.com/sells-group/disclosure-cli/internal/model"
)

// File names reserved in the output directory.
const (
	IndexFile     = "index.json"
	ChangelogFile = "changelog.jsonl"

	reservedPrefix = "record_"
)

// Writer stores one JSON document per subject in a directory. Record and
// index writes are atomic.
type Writer struct {
	dir string
	mu  sync.Mutex // serialises changelog appends
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "output: create %s", dir)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// RecordPath is where the record for subjectID lives. Ids that would land on
// the index file or a hidden file get a prefix.
func (w *Writer) RecordPath(subjectID string) string {
	name := cache.SafeName(subjectID) + ".json"
	if strings.EqualFold(name, IndexFile) || strings.HasPrefix(name, ".") {
		name = reservedPrefix + name
	}
	return filepath.Join(w.dir, name)
}

// WriteRecord replaces the subject's record.
func (w *Writer) WriteRecord(rec *model.DeclarationRecord) error {
	if rec == nil || rec.SubjectID == "" {
		return eris.New("output: record without subject id")
	}
	if err := cache.WriteJSONAtomic(w.RecordPath(rec.SubjectID), rec); err != nil {
		return eris.Wrapf(err, "output: write record %s", rec.SubjectID)
	}
	return nil
}

// ReadRecord returns the stored record, or nil, nil when there is none.
func (w *Writer) ReadRecord(subjectID string) (*model.DeclarationRecord, error) {
	data, err := os.ReadFile(w.RecordPath(subjectID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "output: read record %s", subjectID)
	}
	var rec model.DeclarationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "output: decode record %s", subjectID)
	}
	return &rec, nil
}

// WriteIndex replaces the index document.
func (w *Writer) WriteIndex(idx model.Index) error {
	if err := cache.WriteJSONAtomic(filepath.Join(w.dir, IndexFile), idx); err != nil {
		return eris.Wrap(err, "output: write index")
	}
	return nil
}

// AppendChangelog appends entries as JSON lines.
func (w *Writer) AppendChangelog(entries ...model.ChangelogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, ChangelogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return eris.Wrap(err, "output: open changelog")
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return eris.Wrap(err, "output: append changelog")
		}
	}
	return nil
}

// RecordFiles lists the record documents in the directory, sorted.
func (w *Writer) RecordFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "output: list %s", w.dir)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == IndexFile || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, filepath.Join(w.dir, name))
	}
	slices.Sort(files)
	return files, nil
}

// Summaries projects every stored record onto its index summary. Files that
// cannot be read or are not records are skipped with a warning.
func (w *Writer) Summaries() ([]model.IndexSummary, error) {
	files, err := w.RecordFiles()
	if err != nil {
		return nil, err
	}
	out := make([]model.IndexSummary, 0, len(files))
	for _, path := range files {
		rec, err := readRecordFile(path)
		if err != nil {
			zap.L().Warn("output: skipping unreadable record", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		out = append(out, assemble.Summarize(rec))
	}
	return out, nil
}

func readRecordFile(path string) (*model.DeclarationRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, eris.Wrap(err, "output: read record file")
	}
	var rec model.DeclarationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "output: decode record file")
	}
	if rec.SubjectID == "" {
		return nil, eris.New("output: record file without mep_id")
	}
	return &rec, nil
}

// ReadChangelog returns every changelog entry in append order.
func (w *Writer) ReadChangelog() ([]model.ChangelogEntry, error) {
	data, err := os.ReadFile(filepath.Join(w.dir, ChangelogFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "output: read changelog")
	}
	var out []model.ChangelogEntry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e model.ChangelogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, eris.Wrap(err, "output: decode changelog line")
		}
		out = append(out, e)
	}
	return out, nil
}
