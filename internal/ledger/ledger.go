// Package ledger remembers which source files have been imported, so a
// directory re-import only touches files that changed.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

const Schema = `
CREATE TABLE IF NOT EXISTS imports (
	path TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	last_imported INTEGER NOT NULL,
	chapter_title TEXT NOT NULL,
	scene_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_last ON imports(last_imported);
`

// Entry is one imported source file.
type Entry struct {
	Path         string
	Size         int64
	ModTime      time.Time
	ContentHash  string
	LastImported time.Time
	ChapterTitle string
	SceneCount   int
}

type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path. ":memory:" works for
// throwaway ledgers.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)
	l := &Ledger{db: db}
	if err := l.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Init creates the imports table if it doesn't exist.
func (l *Ledger) Init() error {
	if _, err := l.db.Exec(Schema); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	return nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Lookup returns the entry for path, or nil if the file was never imported.
func (l *Ledger) Lookup(ctx context.Context, path string) (*Entry, error) {
	row := l.db.QueryRowContext(ctx, `SELECT path, size, mod_time, content_hash, last_imported, chapter_title, scene_count
		FROM imports WHERE path = ?`, path)
	var (
		e             Entry
		mod, imported int64
	)
	err := row.Scan(&e.Path, &e.Size, &mod, &e.ContentHash, &imported, &e.ChapterTitle, &e.SceneCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}
	e.ModTime = time.Unix(0, mod).UTC()
	e.LastImported = time.Unix(0, imported).UTC()
	return &e, nil
}

// Record upserts the ledger entry for an imported chapter.
func (l *Ledger) Record(ctx context.Context, ch *manuscript.Chapter, stamp manuscript.Stamp) error {
	m := ch.Source
	_, err := l.db.ExecContext(ctx, `INSERT INTO imports (path, size, mod_time, content_hash, last_imported, chapter_title, scene_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			content_hash = excluded.content_hash,
			last_imported = excluded.last_imported,
			chapter_title = excluded.chapter_title,
			scene_count = excluded.scene_count`,
		key(m), m.Size, m.ModTime.UnixNano(), m.ContentHash, stamp.LastImported.UnixNano(), ch.Title, len(ch.Scenes))
	if err != nil {
		return fmt.Errorf("record %s: %w", key(m), err)
	}
	return nil
}

// Unchanged reports whether meta matches the recorded size, modification
// time and content hash.
func (l *Ledger) Unchanged(ctx context.Context, meta manuscript.SourceMeta) (bool, error) {
	e, err := l.Lookup(ctx, key(meta))
	if err != nil || e == nil {
		return false, err
	}
	return e.Size == meta.Size &&
		e.ModTime.Equal(meta.ModTime) &&
		e.ContentHash == meta.ContentHash, nil
}

// Entries lists every entry, most recently imported first.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT path, size, mod_time, content_hash, last_imported, chapter_title, scene_count
		FROM imports ORDER BY last_imported DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e             Entry
			mod, imported int64
		)
		if err := rows.Scan(&e.Path, &e.Size, &mod, &e.ContentHash, &imported, &e.ChapterTitle, &e.SceneCount); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		e.ModTime = time.Unix(0, mod).UTC()
		e.LastImported = time.Unix(0, imported).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// key is the ledger key for a source: its path when known, else its name.
func key(m manuscript.SourceMeta) string {
	if m.Path != "" {
		return m.Path
	}
	return m.Name
}
