package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/wordml"
	"github.com/zeebo/blake3"
)

var (
	ErrNotAFile          = errors.New("not a file")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptArchive    = errors.New("corrupt archive")
)

// Parser converts raw document bytes into an ordered paragraph stream.
type Parser interface {
	Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	wordml.Extension: true,
	".html":          true,
	".htm":           true,
	".pdf":           true,
	".md":            true,
	".markdown":      true,
	".txt":           true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case wordml.Extension:
		return &DOCXParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// FileStat is what the importer needs to know about a source file.
type FileStat struct {
	Regular    bool
	Size       int64
	ModTime    time.Time
	ChangeTime time.Time
}

// StatFunc is the file-stat provider consulted before a file is opened.
type StatFunc func(path string) (FileStat, error)

// OSStat stats through the operating system. Change time is not portable,
// so it mirrors the modification time.
func OSStat(path string) (FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileStat{}, err
	}
	return FileStat{
		Regular:    info.Mode().IsRegular(),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		ChangeTime: info.ModTime(),
	}, nil
}

// Loader opens source files from disk.
type Loader struct {
	Stat StatFunc
}

// Load reads the file at path into a Document. The file is closed on every
// return path.
func (l *Loader) Load(path string) (*manuscript.Document, error) {
	stat := l.Stat
	if stat == nil {
		stat = OSStat
	}
	st, err := stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAFile, path, err)
	}
	if !st.Regular {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	p, err := ForFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAFile, path, err)
	}
	defer f.Close()

	size := st.Size
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	hash, err := hashReaderAt(f, size)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	paras, err := p.Parse(f, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := filepath.Base(path)
	return &manuscript.Document{
		Name:       name,
		Paragraphs: paras,
		Meta: manuscript.SourceMeta{
			Path:        path,
			Name:        name,
			Size:        st.Size,
			ModTime:     st.ModTime,
			ChangeTime:  st.ChangeTime,
			ContentHash: hash,
		},
	}, nil
}

// Load reads path using the operating system's file stat.
func Load(path string) (*manuscript.Document, error) {
	return (&Loader{}).Load(path)
}

// ParseBytes parses an in-memory upload. name only selects the format and
// names the document.
func ParseBytes(data []byte, name string) (*manuscript.Document, error) {
	p, err := ForFile(name)
	if err != nil {
		return nil, err
	}
	paras, err := p.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &manuscript.Document{
		Name:       name,
		Paragraphs: paras,
		Meta: manuscript.SourceMeta{
			Name:        name,
			Size:        int64(len(data)),
			ModTime:     now,
			ChangeTime:  now,
			ContentHash: ContentHash(data),
		},
	}, nil
}

// ContentHash returns the hex BLAKE3 digest of data.
func ContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

func hashReaderAt(r io.ReaderAt, size int64) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, size)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
