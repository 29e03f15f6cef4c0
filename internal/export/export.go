// Package export writes chapters back out as documents.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

// Format names an output format.
type Format string

const (
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = ext[1:]
	}
	switch s {
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Options tune the layout. Policy decides how scene titles and notes are
// laid out in a DOCX so that re-importing under the same policy recovers
// them.
type Options struct {
	Policy segment.Policy
}

// Write renders ch in format f.
func Write(w io.Writer, f Format, ch *manuscript.Chapter, opts Options) error {
	switch f {
	case FormatDOCX:
		return DOCX(w, ch, opts)
	case FormatPDF:
		return PDF(w, ch)
	case FormatMarkdown:
		return Markdown(w, ch)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// sceneLines returns the body lines of sc. Scenes decoded from JSON carry
// only Body, which is split on newlines.
func sceneLines(sc manuscript.Scene) []string {
	if len(sc.Lines) > 0 {
		return sc.Lines
	}
	if sc.Body == "" {
		return nil
	}
	return strings.Split(sc.Body, "\n")
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
