package scenemd

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// GoldmarkTokenizer backs the grammar with goldmark's CommonMark parser.
// Goldmark does not report blank lines, so they are recovered from the
// source lines left uncovered by top-level blocks.
type GoldmarkTokenizer struct {
	md goldmark.Markdown
}

func NewGoldmarkTokenizer() *GoldmarkTokenizer {
	return &GoldmarkTokenizer{md: goldmark.New()}
}

type block struct {
	node        Node
	first, last int // 0-based inclusive source line span
	placed      bool
}

func (g *GoldmarkTokenizer) Tokenize(src []byte) ([]Node, error) {
	md := g.md
	if md == nil {
		md = goldmark.New()
	}
	doc := md.Parser().Parse(text.NewReader(src))

	lines := strings.Split(string(src), "\n")
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		starts[i] = off
		off += len(l) + 1
	}

	var blocks []block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		b := block{}
		b.first, b.last, b.placed = lineSpan(n, starts)
		b.node = toNode(n, src, lines, b.first, b.last, b.placed)
		blocks = append(blocks, b)
	}

	// Blocks without segments (thematic breaks, empty headings) sit on the
	// next non-blank line after the previous block.
	prev := -1
	for i := range blocks {
		if !blocks[i].placed {
			j := prev + 1
			for j < len(lines)-1 && isBlankLine(lines[j]) {
				j++
			}
			blocks[i].first, blocks[i].last = j, j
		}
		prev = blocks[i].last
	}

	var nodes []Node
	bi := 0
	for i := 0; i < len(lines); {
		if bi < len(blocks) && blocks[bi].first <= i {
			n := blocks[bi].node
			n.Line = blocks[bi].first + 1
			nodes = append(nodes, n)
			if next := blocks[bi].last + 1; next > i {
				i = next
			}
			bi++
			continue
		}
		if isBlankLine(lines[i]) {
			nodes = append(nodes, Node{Kind: KindBlank, Line: i + 1})
		}
		i++
	}
	for ; bi < len(blocks); bi++ {
		n := blocks[bi].node
		n.Line = blocks[bi].first + 1
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func toNode(n ast.Node, src []byte, lines []string, first, last int, placed bool) Node {
	switch v := n.(type) {
	case *ast.Heading:
		if placed && !strings.HasPrefix(strings.TrimLeft(lines[first], " "), "#") {
			// Setext headings read as underlined paragraphs, not titles.
			return Node{Kind: KindOther, Name: "SetextHeading"}
		}
		var title strings.Builder
		segs := v.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			title.Write(seg.Value(src))
		}
		return Node{Kind: KindHeading, Level: v.Level, Text: strings.TrimSpace(title.String()), Name: n.Kind().String()}
	case *ast.Paragraph:
		var text string
		if placed {
			raw := make([]string, 0, last-first+1)
			for _, l := range lines[first : last+1] {
				raw = append(raw, strings.TrimRight(l, "\r"))
			}
			text = strings.Join(raw, "\n")
		}
		return Node{Kind: KindParagraph, Text: text, Name: n.Kind().String()}
	}
	return Node{Kind: KindOther, Name: n.Kind().String()}
}

// lineSpan returns the source lines covered by the segments of n and its
// block descendants.
func lineSpan(n ast.Node, starts []int) (first, last int, ok bool) {
	first, last = -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}
		segs := c.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			stop := seg.Stop - 1
			if stop < seg.Start {
				stop = seg.Start
			}
			a, b := lineOf(starts, seg.Start), lineOf(starts, stop)
			if first < 0 || a < first {
				first = a
			}
			if b > last {
				last = b
			}
		}
		return ast.WalkContinue, nil
	})
	return first, last, first >= 0
}

func lineOf(starts []int, offset int) int {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

func isBlankLine(s string) bool {
	return strings.TrimSpace(s) == ""
}
