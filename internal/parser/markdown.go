package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// MarkdownParser reads chapters written as markdown, including the export
// format. A level-1 heading is the chapter title, each level-2 heading opens
// a new scene with a centered title, a thematic break is a hard break and a
// line wrapped in single emphasis is a right-aligned location. Every other
// line is its own paragraph, with one empty paragraph between blocks.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error) {
	src, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var paras []manuscript.Paragraph
	add := func(s, style, jc string, brk bool) {
		para := manuscript.Paragraph{
			Props:     manuscript.NewProperties(style, jc),
			HardBreak: brk,
		}
		if s != "" {
			para.Runs = []string{norm.NFKD.String(s)}
		}
		paras = append(paras, para)
	}

	prevText := false
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			switch node.Level {
			case 1:
				add(title, "Title", "", false)
			case 2:
				add("", "", "", true)
				add(title, "", "center", false)
			default:
				add(title, "", "center", false)
			}
			prevText = false
		case *ast.ThematicBreak:
			add("", "", "", true)
			prevText = false
		default:
			lines := blockLines(n, src)
			if len(lines) == 0 {
				continue
			}
			if prevText {
				add("", "", "", false)
			}
			for _, l := range lines {
				if loc, ok := emphasized(l); ok {
					add(loc, "", "right", false)
					continue
				}
				add(l, "", "", false)
			}
			prevText = true
		}
	}
	return paras, nil
}

// blockLines returns the raw source lines of a block, descending into
// container blocks such as lists and quotes.
func blockLines(n ast.Node, src []byte) []string {
	var out []string
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if l := strings.TrimRight(string(seg.Value(src)), " \t\r\n"); l != "" {
				out = append(out, l)
			}
		}
		return out
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock {
			out = append(out, blockLines(c, src)...)
		}
	}
	return out
}

// emphasized reports whether l is wholly wrapped in single emphasis.
func emphasized(l string) (string, bool) {
	l = strings.TrimSpace(l)
	if len(l) < 3 {
		return "", false
	}
	for _, m := range []string{"*", "_"} {
		if strings.HasPrefix(l, m) && strings.HasSuffix(l, m) &&
			!strings.HasPrefix(l, m+m) && !strings.HasSuffix(l, m+m) {
			inner := strings.TrimSpace(l[1 : len(l)-1])
			if inner != "" && !strings.Contains(inner, m) {
				return inner, true
			}
		}
	}
	return "", false
}
