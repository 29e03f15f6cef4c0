package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/bookcontrol/internal/logging"
	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/parser"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

const docHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	w.Write([]byte(docHeader + body + `</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func p(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func titleP(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

const blankP = `<w:p/>`

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type saved struct {
	book    string
	chapter *manuscript.Chapter
	stamp   manuscript.Stamp
}

type memSink struct {
	mu    sync.Mutex
	saved []saved
	err   error
}

func (s *memSink) SaveChapter(_ context.Context, book string, ch *manuscript.Chapter, st manuscript.Stamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, saved{book, ch, st})
	return nil
}

type memLedger struct {
	entries map[string]manuscript.SourceMeta
}

func (l *memLedger) Unchanged(_ context.Context, m manuscript.SourceMeta) (bool, error) {
	prev, ok := l.entries[m.Path]
	return ok && prev.Size == m.Size && prev.ModTime.Equal(m.ModTime) && prev.ContentHash == m.ContentHash, nil
}

func (l *memLedger) Record(_ context.Context, ch *manuscript.Chapter, _ manuscript.Stamp) error {
	l.entries[ch.Source.Path] = ch.Source
	return nil
}

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newImporter(sink Sink, ledger Ledger) *Importer {
	return &Importer{Sink: sink, Ledger: ledger, Log: logging.Discard(), Now: func() time.Time { return fixedNow }}
}

func TestImportFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My Novel")
	os.Mkdir(dir, 0o755)
	path := write(t, dir, "01.docx", docx(t, titleP("Opening")+p("one")+blankP+blankP+p("two")))

	sink := &memSink{}
	res, err := newImporter(sink, nil).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Chapter.Title != "Opening" || len(res.Chapter.Scenes) != 2 {
		t.Errorf("expected Opening with 2 scenes, got %q with %d", res.Chapter.Title, len(res.Chapter.Scenes))
	}
	if !res.Stamp.LastImported.Equal(fixedNow) {
		t.Errorf("expected import time %v, got %v", fixedNow, res.Stamp.LastImported)
	}
	info, _ := os.Stat(path)
	if res.Stamp.SourceSize != info.Size() {
		t.Errorf("expected source size %d, got %d", info.Size(), res.Stamp.SourceSize)
	}
	if len(sink.saved) != 1 || sink.saved[0].book != "My Novel" {
		t.Fatalf("expected one chapter saved to My Novel, got %+v", sink.saved)
	}
}

func TestImportFile_ErrorsReachNoSink(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.docx"), parser.ErrNotAFile},
		{"unsupported", write(t, dir, "notes.rtf", []byte("hi")), parser.ErrUnsupportedFormat},
		{"corrupt", write(t, dir, "bad.docx", []byte("not a zip")), parser.ErrCorruptArchive},
		{"empty", write(t, dir, "empty.docx", docx(t, "")), segment.ErrEmptyDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memSink{}
			_, err := newImporter(sink, nil).ImportFile(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(sink.saved) != 0 {
				t.Errorf("expected nothing saved, got %d chapters", len(sink.saved))
			}
		})
	}
}

func TestImportFile_SinkError(t *testing.T) {
	path := write(t, t.TempDir(), "c.docx", docx(t, p("x")))
	boom := errors.New("boom")
	ledger := &memLedger{entries: map[string]manuscript.SourceMeta{}}
	_, err := newImporter(&memSink{err: boom}, ledger).ImportFile(context.Background(), path)
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Errorf("expected failed import not to be recorded")
	}
}

func TestListDir_FiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.docx", "A.docx", "~$lock.docx", "_draft.docx", "notes.txt", "c.DOCX"} {
		write(t, dir, name, []byte("x"))
	}
	os.Mkdir(filepath.Join(dir, "sub.docx"), 0o755)

	files, err := ListDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"A.docx", "b.docx", "c.DOCX"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestListDir_NotADirectory(t *testing.T) {
	file := write(t, t.TempDir(), "a.docx", []byte("x"))
	if _, err := ListDir(file); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("expected ErrNotADirectory for a file, got %v", err)
	}
	if _, err := ListDir(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("expected ErrNotADirectory for a missing path, got %v", err)
	}
}

func TestImportDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Saga")
	os.Mkdir(dir, 0o755)
	write(t, dir, "02 second.docx", docx(t, titleP("Second")+p("b")))
	write(t, dir, "01 first.docx", docx(t, titleP("First")+p("a")))
	write(t, dir, "_unused.docx", docx(t, titleP("Unused")+p("z")))

	sink := &memSink{}
	ledger := &memLedger{entries: map[string]manuscript.SourceMeta{}}
	im := newImporter(sink, ledger)

	res, err := im.ImportDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Book.Title != "Saga" {
		t.Errorf("expected book title %q, got %q", "Saga", res.Book.Title)
	}
	if len(res.Book.Chapters) != 2 || res.Book.Chapters[0].Title != "First" || res.Book.Chapters[1].Title != "Second" {
		t.Fatalf("expected First then Second, got %+v", res.Book.Chapters)
	}
	if len(sink.saved) != 2 || sink.saved[0].book != "Saga" {
		t.Fatalf("expected 2 chapters saved to Saga, got %d", len(sink.saved))
	}

	// Unchanged files are skipped on the second pass.
	res, err = im.ImportDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Book.Chapters) != 0 || len(sink.saved) != 2 {
		t.Errorf("expected everything skipped, got %d chapters and %d saves", len(res.Book.Chapters), len(sink.saved))
	}
	for _, r := range res.Results {
		if !r.Skipped {
			t.Errorf("expected %s to be skipped", r.Path)
		}
	}

	// A changed file is imported again.
	write(t, dir, "02 second.docx", docx(t, titleP("Second, revised")+p("b")+p("c")))
	res, err = im.ImportDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Book.Chapters) != 1 || res.Book.Chapters[0].Title != "Second, revised" {
		t.Errorf("expected only the revised chapter, got %+v", res.Book.Chapters)
	}
}

func TestImportDir_StopsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.docx", docx(t, p("a")))
	write(t, dir, "b.docx", []byte("broken"))
	write(t, dir, "c.docx", docx(t, p("c")))

	sink := &memSink{}
	res, err := newImporter(sink, nil).ImportDir(context.Background(), dir)
	if !errors.Is(err, parser.ErrCorruptArchive) {
		t.Fatalf("expected corrupt archive error, got %v", err)
	}
	if len(sink.saved) != 1 || len(res.Book.Chapters) != 1 {
		t.Errorf("expected only a.docx stored, got %d saved", len(sink.saved))
	}
}

func TestImportDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.docx", docx(t, p("a")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newImporter(&memSink{}, nil).ImportDir(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestImporter_Policy(t *testing.T) {
	body := `<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>Heading</w:t></w:r></w:p>` + p("text")
	path := write(t, t.TempDir(), "c.docx", docx(t, body))

	im := newImporter(nil, nil)
	res, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Chapter.Scenes[0].Title != "Heading" {
		t.Errorf("expected centered title under the default policy, got %+v", res.Chapter.Scenes[0])
	}

	im.Policy = segment.StyleTitles
	res, _ = im.ImportFile(context.Background(), path)
	if res.Chapter.Scenes[0].Notes != "Heading" {
		t.Errorf("expected centered note under StyleTitles, got %+v", res.Chapter.Scenes[0])
	}
}
