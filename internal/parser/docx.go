package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/wordml"
	"golang.org/x/text/unicode/norm"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.ReaderAt, size int64) ([]manuscript.Paragraph, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %w", ErrCorruptArchive, err)
	}

	part, err := zr.Open(wordml.DocumentPart)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptArchive, wordml.DocumentPart)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrCorruptArchive, wordml.DocumentPart, err)
	}
	defer part.Close()

	root, err := xmlquery.Parse(part)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCorruptArchive, wordml.DocumentPart, err)
	}

	body := docxBody(root)
	if body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrCorruptArchive, wordml.DocumentPart)
	}

	var paras []manuscript.Paragraph
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if isElement(n, wordml.Paragraph) {
			paras = append(paras, docxParagraph(n))
		}
	}
	return paras, nil
}

// docxBody returns the body element of the document root.
func docxBody(root *xmlquery.Node) *xmlquery.Node {
	for doc := root.FirstChild; doc != nil; doc = doc.NextSibling {
		if doc.Type != xmlquery.ElementNode {
			continue
		}
		for n := doc.FirstChild; n != nil; n = n.NextSibling {
			if isElement(n, wordml.Body) {
				return n
			}
		}
		return nil
	}
	return nil
}

func docxParagraph(p *xmlquery.Node) manuscript.Paragraph {
	var style, jc string
	if props := firstChild(p, wordml.ParagraphProps); props != nil {
		if s := firstChild(props, wordml.Style); s != nil {
			style = attrValue(s, wordml.Val)
		}
		if j := firstChild(props, wordml.Justification); j != nil {
			jc = attrValue(j, wordml.Val)
		}
	}

	para := manuscript.Paragraph{
		Props: manuscript.NewProperties(style, jc),
		ID:    attrValue(p, wordml.ParaID),
	}
	for r := p.FirstChild; r != nil; r = r.NextSibling {
		if !isElement(r, wordml.Run) {
			continue
		}
		for c := r.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElement(c, wordml.Break):
				if attrValue(c, wordml.BreakType) == wordml.BreakPage {
					para.HardBreak = true
				}
			case isElement(c, wordml.Text):
				para.Runs = append(para.Runs, norm.NFKD.String(c.InnerText()))
			}
		}
	}
	return para
}

func isElement(n *xmlquery.Node, name wordml.Name) bool {
	return n.Type == xmlquery.ElementNode && n.Data == name.Local && n.NamespaceURI == name.Space
}

func firstChild(n *xmlquery.Node, name wordml.Name) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, name) {
			return c
		}
	}
	return nil
}

func attrValue(n *xmlquery.Node, name wordml.Name) string {
	for _, a := range n.Attr {
		if a.Name.Local == name.Local && a.NamespaceURI == name.Space {
			return a.Value
		}
	}
	return ""
}
