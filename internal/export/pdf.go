package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
)

// PDF writes ch as an A4 manuscript, one scene per page. Core fonts only
// cover cp1252, so text is transliterated through gofpdf's translator.
func PDF(w io.Writer, ch *manuscript.Chapter) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ch.Title, true)
	pdf.SetMargins(25, 25, 25)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if ch.Title != "" {
		pdf.SetFont(pdfFont, "B", 20)
		pdf.MultiCell(0, 10, tr(ch.Title), "", "C", false)
		pdf.Ln(4)
	}
	if ch.Subtitle != "" {
		pdf.SetFont(pdfFont, "I", 14)
		pdf.MultiCell(0, 8, tr(ch.Subtitle), "", "C", false)
		pdf.Ln(4)
	}

	for i, sc := range ch.Scenes {
		if i > 0 {
			pdf.AddPage()
		}
		if sc.Location != "" {
			pdf.SetFont(pdfFont, "I", 10)
			pdf.MultiCell(0, pdfLineHeight, tr(sc.Location), "", "R", false)
			pdf.Ln(2)
		}
		if sc.Title != "" {
			pdf.SetFont(pdfFont, "B", 14)
			pdf.MultiCell(0, 8, tr(sc.Title), "", "C", false)
			pdf.Ln(2)
		}
		if sc.Notes != "" {
			pdf.SetFont(pdfFont, "I", 10)
			pdf.MultiCell(0, pdfLineHeight, tr(sc.Notes), "", "C", false)
			pdf.Ln(2)
		}
		pdf.SetFont(pdfFont, "", 12)
		for _, l := range sceneLines(sc) {
			if strings.TrimSpace(l) == "" {
				pdf.Ln(pdfLineHeight)
				continue
			}
			pdf.MultiCell(0, pdfLineHeight, tr(l), "", "J", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
