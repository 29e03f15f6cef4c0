// Package manuscript holds the structural units a manuscript is decomposed
// into: paragraphs extracted from a source document, and the scenes and
// chapters the segmenter groups them into.
package manuscript

import (
	"strings"
	"time"
)

// Document is the ordered paragraph stream of one source file.
type Document struct {
	Name       string      // Base name of the source, extension included
	Paragraphs []Paragraph // Body paragraphs in source order
	Meta       SourceMeta
}

// SourceMeta is pass-through bookkeeping about the source file. Nothing in
// segmentation reads it.
type SourceMeta struct {
	Path        string    `json:"path,omitempty"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ChangeTime  time.Time `json:"change_time"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// Paragraph is one structural unit of the source document.
type Paragraph struct {
	Runs      []string   // NFKD-normalized run text
	Props     Properties // Decoded once at extraction time
	HardBreak bool       // Some run carried an explicit page break
	ID        string     // Document-local paragraph id, empty if absent
}

// Text joins the runs with no separator.
func (p Paragraph) Text() string {
	return strings.Join(p.Runs, "")
}

// IsEmpty reports whether the paragraph has no runs, or exactly one run
// that is blank after trimming.
func (p Paragraph) IsEmpty() bool {
	switch len(p.Runs) {
	case 0:
		return true
	case 1:
		return strings.TrimSpace(p.Runs[0]) == ""
	}
	return false
}

// Scene is the smallest story unit produced by segmentation.
type Scene struct {
	Title    string   `json:"title"`
	Lines    []string `json:"-"`
	Body     string   `json:"body"`
	Location string   `json:"location"`
	Notes    string   `json:"notes"`
}

// IsEmpty reports whether the scene has no body text, location, or notes.
// Absorbed blank lines alone do not make a scene.
func (s Scene) IsEmpty() bool {
	if s.Location != "" || s.Notes != "" {
		return false
	}
	for _, l := range s.Lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// Chapter is the ordered scene list produced from one document.
type Chapter struct {
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Scenes   []Scene    `json:"scenes"`
	Source   SourceMeta `json:"source"`
}

// Book is an ordered set of chapters imported from a directory.
type Book struct {
	Title    string     `json:"title"`
	Chapters []*Chapter `json:"chapters"`
}

// Stamp records when and from what a chapter was imported.
type Stamp struct {
	SourceSize     int64     `json:"source_size"`
	SourceModified time.Time `json:"source_modified"`
	LastImported   time.Time `json:"last_imported"`
}

// NewStamp stamps meta with the import time.
func NewStamp(meta SourceMeta, imported time.Time) Stamp {
	return Stamp{SourceSize: meta.Size, SourceModified: meta.ModTime, LastImported: imported}
}
