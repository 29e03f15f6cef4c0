// Package importer drives source files through extraction and segmentation
// and hands the resulting chapters to a Sink.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/parser"
	"github.com/dgallion1/bookcontrol/internal/segment"
	"github.com/dgallion1/bookcontrol/internal/wordml"
)

var ErrNotADirectory = errors.New("not a directory")

// Sink accepts finished chapters. It only ever sees complete chapters.
type Sink interface {
	SaveChapter(ctx context.Context, book string, ch *manuscript.Chapter, stamp manuscript.Stamp) error
}

// Ledger remembers what was imported. Optional.
type Ledger interface {
	Unchanged(ctx context.Context, meta manuscript.SourceMeta) (bool, error)
	Record(ctx context.Context, ch *manuscript.Chapter, stamp manuscript.Stamp) error
}

// Result is the outcome of importing one file.
type Result struct {
	Path    string              `json:"path"`
	Chapter *manuscript.Chapter `json:"chapter,omitempty"`
	Stamp   manuscript.Stamp    `json:"stamp"`
	Skipped bool                `json:"skipped,omitempty"` // unchanged since the last import
}

// BookResult is the outcome of importing a directory.
type BookResult struct {
	Book    manuscript.Book `json:"book"`
	Results []*Result       `json:"results"`
}

type Importer struct {
	Loader *parser.Loader
	Policy segment.Policy
	Sink   Sink   // nil imports without storing
	Ledger Ledger // nil imports everything
	Log    *slog.Logger
	Now    func() time.Time
}

// ImportFile loads, segments and stores one file. The book is named after
// the file's parent directory.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	book := filepath.Base(filepath.Dir(absPath(path)))
	return im.importFile(ctx, book, path, false)
}

// ImportDir imports every chapter document in dir in name order. Files the
// ledger reports unchanged are skipped. The first failing file stops the
// import; chapters stored before it stay stored.
func (im *Importer) ImportDir(ctx context.Context, dir string) (*BookResult, error) {
	files, err := ListDir(dir)
	if err != nil {
		return nil, err
	}
	title := filepath.Base(absPath(dir))
	log := im.logger().With("book", title, "dir", dir)
	log.Info("importing book", "files", len(files))

	res := &BookResult{Book: manuscript.Book{Title: title, Chapters: []*manuscript.Chapter{}}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r, err := im.importFile(ctx, title, f.Path, true)
		if err != nil {
			return res, err
		}
		res.Results = append(res.Results, r)
		if r.Chapter != nil {
			res.Book.Chapters = append(res.Book.Chapters, r.Chapter)
		}
	}
	return res, nil
}

func (im *Importer) importFile(ctx context.Context, book, path string, skipUnchanged bool) (*Result, error) {
	log := im.logger().With("book", book, "path", path)
	start := time.Now()

	loader := im.Loader
	if loader == nil {
		loader = &parser.Loader{}
	}
	doc, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	if skipUnchanged && im.Ledger != nil {
		same, err := im.Ledger.Unchanged(ctx, doc.Meta)
		if err != nil {
			return nil, fmt.Errorf("check ledger: %w", err)
		}
		if same {
			log.Debug("unchanged, skipping")
			return &Result{Path: path, Skipped: true}, nil
		}
	}

	ch, err := segment.SegmentDocument(doc, im.Policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	stamp := manuscript.NewStamp(doc.Meta, im.now())

	if im.Sink != nil {
		if err := im.Sink.SaveChapter(ctx, book, ch, stamp); err != nil {
			return nil, fmt.Errorf("save %s: %w", path, err)
		}
	}
	if im.Ledger != nil {
		if err := im.Ledger.Record(ctx, ch, stamp); err != nil {
			return nil, fmt.Errorf("record %s: %w", path, err)
		}
	}

	log.Info("chapter imported",
		"chapter", ch.Title,
		"scenes", len(ch.Scenes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Path: path, Chapter: ch, Stamp: stamp}, nil
}

func (im *Importer) logger() *slog.Logger {
	if im.Log != nil {
		return im.Log
	}
	return slog.Default()
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now().UTC()
}

// FileInfo describes a chapter document found in a book directory.
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListDir returns the chapter documents in dir ordered by lower-cased name.
// Lock files ("~...") and parked drafts ("_...") are left out.
func ListDir(dir string) ([]FileInfo, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotADirectory, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []FileInfo
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(name, "~") || strings.HasPrefix(name, "_") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), wordml.Extension) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     name,
			Path:     filepath.Join(dir, name),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
	return files, nil
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
