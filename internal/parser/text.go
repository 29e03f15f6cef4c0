package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// TextParser handles plain text manuscripts. Each line is a paragraph and a
// form feed is a hard break.
type TextParser struct{}

func (p *TextParser) Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error) {
	scanner := bufio.NewScanner(io.NewSectionReader(r, 0, size))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paras []manuscript.Paragraph
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		for {
			before, after, found := strings.Cut(line, "\f")
			if !found {
				break
			}
			if strings.TrimSpace(before) != "" {
				paras = append(paras, textPara(before))
			}
			paras = append(paras, manuscript.Paragraph{
				Props:     manuscript.NewProperties("", ""),
				HardBreak: true,
			})
			line = after
			if strings.TrimSpace(line) == "" {
				line = ""
				break
			}
		}
		if line == "" && len(paras) > 0 && paras[len(paras)-1].HardBreak {
			continue
		}
		paras = append(paras, textPara(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return paras, nil
}

func textPara(line string) manuscript.Paragraph {
	para := manuscript.Paragraph{Props: manuscript.NewProperties("", "")}
	if strings.TrimSpace(line) != "" {
		para.Runs = []string{norm.NFKD.String(line)}
	}
	return para
}
