// Package scenemd parses and serializes the small markup used to edit a
// scene in place:
//
//	## Scene title
//
//	First paragraph.
//
//	## Optional split title
//
//	Text for a second scene.
//
// The grammar runs over a flat node sequence produced by a Tokenizer, so the
// rules do not depend on which markdown parser produced the nodes.
//
// Only ATX headings ("## ...") count as titles. An underlined (setext)
// heading is rejected with ErrUnexpectedNode rather than read as a split.
// Titles follow CommonMark, so a closing run of '#' preceded by a space is
// dropped: Compile("T #", c) parses back with title "T". Titles that end in
// " #" are therefore the one case where Parse(Compile(t, c)) differs from
// (t, c).
package scenemd

import "fmt"

// Kind classifies a top-level block.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindBlank
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindBlank:
		return "blank_line"
	case KindOther:
		return "other"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one top-level block of the input.
type Node struct {
	Kind  Kind
	Level int    // Heading level, 0 otherwise
	Text  string // Heading title or paragraph text
	Name  string // Parser-specific block name, for error messages
	Line  int    // 1-based source line the block starts on
}

func (n Node) String() string {
	switch n.Kind {
	case KindHeading:
		return fmt.Sprintf("h%d %q", n.Level, n.Text)
	case KindParagraph:
		return fmt.Sprintf("paragraph %q", n.Text)
	case KindOther:
		return n.Name
	}
	return n.Kind.String()
}

// Tokenizer turns raw markup into a flat node sequence. Every whitespace-only
// source line outside a block yields one KindBlank node.
type Tokenizer interface {
	Tokenize(src []byte) ([]Node, error)
}
