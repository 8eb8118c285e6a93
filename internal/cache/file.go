package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disclosure-cli/internal/model"
)

const metaSuffix = ".meta.json"

// FileStore keeps one JSON file per cached URL (<md5>.json) and one per
// subject (<id>.meta.json) in a single directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) entryPath(url string) string {
	return filepath.Join(s.dir, Key(url)+".json")
}

func (s *FileStore) metaPath(subjectID string) string {
	return filepath.Join(s.dir, SafeName(subjectID)+metaSuffix)
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, url string) (*model.CacheEntry, error) {
	var e model.CacheEntry
	ok, err := readJSON(s.entryPath(url), &e)
	if err != nil || !ok {
		return nil, err
	}
	return &e, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, entry model.CacheEntry) error {
	return WriteJSONAtomic(s.entryPath(entry.URL), entry)
}

// GetMetadata implements Store.
func (s *FileStore) GetMetadata(_ context.Context, subjectID string) (*model.SubjectMetadata, error) {
	var m model.SubjectMetadata
	ok, err := readJSON(s.metaPath(subjectID), &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

// SaveMetadata implements Store.
func (s *FileStore) SaveMetadata(_ context.Context, meta model.SubjectMetadata) error {
	return WriteJSONAtomic(s.metaPath(meta.SubjectID), meta)
}

// Prune implements Store.
func (s *FileStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, eris.Wrap(err, "cache: read dir")
	}
	removed := 0
	for _, de := range dirents {
		if ctx.Err() != nil {
			return removed, eris.Wrap(ctx.Err(), "cache: prune")
		}
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, metaSuffix) {
			continue
		}
		path := filepath.Join(s.dir, name)
		var e model.CacheEntry
		ok, err := readJSON(path, &e)
		if err != nil || !ok {
			continue
		}
		if e.LastFetched.Before(cutoff) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, eris.Wrapf(err, "cache: remove %s", name)
			}
			removed++
		}
	}
	return removed, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "cache: read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, eris.Wrapf(err, "cache: decode %s", filepath.Base(path))
	}
	return true, nil
}

// WriteJSONAtomic writes v as indented JSON to a temp file in the target
// directory and renames it over path, so readers never see a partial file.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: encode")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return eris.Wrap(err, "cache: create temp file")
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "cache: write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "cache: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrapf(err, "cache: rename into %s", filepath.Base(path))
	}
	return nil
}

// SafeName keeps subject ids usable as file names.
func SafeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, id)
}
