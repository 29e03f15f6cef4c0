package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// HTMLParser handles HTML files, including Word's "Save as Web Page" output.
// Block elements become paragraphs; MsoTitle/MsoSubtitle classes and h1/h2
// map to the Title/Subtitle styles, and CSS page breaks become hard breaks.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error) {
	doc, err := html.Parse(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var paras []manuscript.Paragraph
	pageBreak := func() {
		paras = append(paras, manuscript.Paragraph{
			Props:     manuscript.NewProperties("", ""),
			HardBreak: true,
		})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			}
			css := strings.ToLower(attr(n, "style"))
			if breakBefore(css) {
				pageBreak()
			}
			if isBlock(n.Data) {
				text := norm.NFKD.String(collapseSpace(textContent(n)))
				paras = append(paras, manuscript.Paragraph{
					Runs:  []string{text},
					Props: manuscript.NewProperties(htmlStyle(n), htmlAlign(n, css)),
					ID:    attr(n, "id"),
				})
				if breakAfter(css) {
					pageBreak()
				}
				return
			}
			defer func() {
				if breakAfter(css) {
					pageBreak()
				}
			}()
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return paras, nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "pre":
		return true
	}
	return false
}

func htmlStyle(n *html.Node) string {
	class := attr(n, "class")
	switch {
	case strings.Contains(class, "MsoTitle"), n.Data == "h1":
		return "Title"
	case strings.Contains(class, "MsoSubtitle"), n.Data == "h2":
		return "Subtitle"
	}
	return ""
}

func htmlAlign(n *html.Node, css string) string {
	align := strings.ToLower(attr(n, "align"))
	if v := cssValue(css, "text-align"); v != "" {
		align = v
	}
	if align == "justify" {
		return "both"
	}
	return align
}

func breakBefore(css string) bool { return cssValue(css, "page-break-before") == "always" }
func breakAfter(css string) bool  { return cssValue(css, "page-break-after") == "always" }

// cssValue extracts a declaration from an inline style attribute.
func cssValue(css, prop string) string {
	for _, decl := range strings.Split(css, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
