package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

// DOCX writes ch as a word-processing document laid out the way the importer
// reads one: a Title-styled chapter heading, right-justified locations,
// centered scene titles (or notes under StyleTitles), and a page break
// between scenes.
func DOCX(w io.Writer, ch *manuscript.Chapter, opts Options) error {
	doc := docx.New().WithDefaultTheme()

	if ch.Title != "" {
		doc.AddParagraph().Style("Title").AddText(ch.Title)
	}
	if ch.Subtitle != "" && opts.Policy == segment.StyleTitles {
		doc.AddParagraph().Style("Subtitle").AddText(ch.Subtitle)
	}

	for i, sc := range ch.Scenes {
		if i > 0 {
			doc.AddParagraph().AddPageBreaks()
		}
		for _, l := range splitNonEmpty(sc.Location) {
			doc.AddParagraph().Justification("right").AddText(l)
		}
		switch opts.Policy {
		case segment.StyleTitles:
			for _, n := range splitNonEmpty(sc.Notes) {
				doc.AddParagraph().Justification("center").AddText(n)
			}
		default:
			if sc.Title != "" {
				doc.AddParagraph().Justification("center").AddText(sc.Title)
			}
		}
		for _, l := range sceneLines(sc) {
			p := doc.AddParagraph()
			if l != "" {
				p.AddText(l)
			}
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
