package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// SQLiteStore implements Store in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens the database at dsn, enables WAL mode and applies the schema.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	url_hash     TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	content      BLOB NOT NULL,
	last_fetched DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS subject_metadata (
	subject_id    TEXT PRIMARY KEY,
	doc           TEXT NOT NULL,
	discovered_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_last_fetched ON cache_entries(last_fetched);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*model.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, content_hash, content_type, content, last_fetched FROM cache_entries WHERE url_hash = ?`,
		Key(url),
	)
	var e model.CacheEntry
	err := row.Scan(&e.URL, &e.ContentHash, &e.ContentType, &e.Content, &e.LastFetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cache entry")
	}
	e.LastFetched = e.LastFetched.UTC()
	return &e, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, entry model.CacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (url_hash, url, content_hash, content_type, content, last_fetched)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url_hash) DO UPDATE SET
			url = excluded.url,
			content_hash = excluded.content_hash,
			content_type = excluded.content_type,
			content = excluded.content,
			last_fetched = excluded.last_fetched`,
		Key(entry.URL), entry.URL, entry.ContentHash, entry.ContentType, entry.Content, entry.LastFetched.UTC(),
	)
	return eris.Wrap(err, "sqlite: put cache entry")
}

// GetMetadata implements Store.
func (s *SQLiteStore) GetMetadata(ctx context.Context, subjectID string) (*model.SubjectMetadata, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM subject_metadata WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get metadata")
	}
	var m model.SubjectMetadata
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
	}
	return &m, nil
}

// SaveMetadata implements Store.
func (s *SQLiteStore) SaveMetadata(ctx context.Context, meta model.SubjectMetadata) error {
	doc, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metadata")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subject_metadata (subject_id, doc, discovered_at) VALUES (?, ?, ?)
		 ON CONFLICT(subject_id) DO UPDATE SET doc = excluded.doc, discovered_at = excluded.discovered_at`,
		meta.SubjectID, string(doc), meta.DiscoveredAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save metadata")
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE last_fetched < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
