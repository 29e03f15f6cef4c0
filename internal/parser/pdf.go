package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// PDFParser handles PDF files. PDFs carry no paragraph styles, so every text
// line becomes a plain paragraph and every page boundary a hard break.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error) {
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrCorruptArchive, err)
	}

	var paras []manuscript.Paragraph
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if len(paras) > 0 {
			paras = append(paras, manuscript.Paragraph{
				Props:     manuscript.NewProperties("", ""),
				HardBreak: true,
			})
		}
		paras = append(paras, pageParagraphs(text)...)
	}
	return paras, nil
}

// pageParagraphs turns one page of extracted text into paragraphs, one per
// line. Blank lines survive as empty paragraphs.
func pageParagraphs(text string) []manuscript.Paragraph {
	text = strings.Trim(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	paras := make([]manuscript.Paragraph, 0, len(lines))
	for _, line := range lines {
		paras = append(paras, manuscript.Paragraph{
			Runs:  []string{norm.NFKD.String(strings.TrimRight(line, " \t\r"))},
			Props: manuscript.NewProperties("", ""),
		})
	}
	return paras
}
