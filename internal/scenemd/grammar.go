package scenemd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingTitle               = errors.New("a scene must start with a heading")
	ErrWrongTitleLevel            = errors.New("scene titles must be level-2 headings")
	ErrMissingBlankLineAfterTitle = errors.New("expected a blank line after the scene title")
	ErrMultipleSplitsNotSupported = errors.New("only one scene split is supported")
	ErrUnexpectedNode             = errors.New("unexpected block")
)

// TitleLevel is the heading level of scene and split titles.
const TitleLevel = 2

// GrammarError reports which node broke the grammar. Kind is one of the Err
// sentinels above.
type GrammarError struct {
	Kind  error
	Index int
	Node  Node
}

func (e *GrammarError) Error() string {
	if e.Node.Line > 0 {
		return fmt.Sprintf("%v: node %d (%s) on line %d", e.Kind, e.Index, e.Node, e.Node.Line)
	}
	return fmt.Sprintf("%v: node %d (%s)", e.Kind, e.Index, e.Node)
}

func (e *GrammarError) Unwrap() error { return e.Kind }

// Status distinguishes a single scene from one that was split in two.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSplit   Status = "split"
)

// Result is a parsed scene. SplitTitle and SplitContent are set only when
// Status is StatusSplit.
type Result struct {
	Status       Status
	Title        string
	Content      string
	SplitTitle   string
	SplitContent string
}

func (r *Result) IsSplit() bool { return r.Status == StatusSplit }

// MarshalJSON omits the split fields from a simple result, and always
// includes them for a split, even when empty.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Status != StatusSplit {
		return json.Marshal(struct {
			Status  Status `json:"status"`
			Title   string `json:"title"`
			Content string `json:"content"`
		}{r.Status, r.Title, r.Content})
	}
	return json.Marshal(struct {
		Status       Status `json:"status"`
		Title        string `json:"title"`
		Content      string `json:"content"`
		SplitTitle   string `json:"split_title"`
		SplitContent string `json:"split_content"`
	}{r.Status, r.Title, r.Content, r.SplitTitle, r.SplitContent})
}

// Processor applies the scene grammar to tokenized input.
type Processor struct {
	Tokenizer Tokenizer
}

// NewProcessor returns a processor backed by goldmark.
func NewProcessor() *Processor {
	return &Processor{Tokenizer: NewGoldmarkTokenizer()}
}

var defaultProcessor = NewProcessor()

// Parse parses src with the default goldmark-backed processor.
func Parse(src string) (*Result, error) {
	return defaultProcessor.Parse(src)
}

// Parse tokenizes src and applies the grammar. On error no result is
// returned.
func (p *Processor) Parse(src string) (*Result, error) {
	nodes, err := p.Tokenizer.Tokenize([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("tokenize scene: %w", err)
	}
	return Apply(nodes)
}

// Apply runs the grammar over an already tokenized node sequence.
func Apply(nodes []Node) (*Result, error) {
	if len(nodes) == 0 || nodes[0].Kind != KindHeading {
		var n Node
		if len(nodes) > 0 {
			n = nodes[0]
		}
		return nil, &GrammarError{Kind: ErrMissingTitle, Index: 0, Node: n}
	}
	if nodes[0].Level != TitleLevel {
		return nil, &GrammarError{Kind: ErrWrongTitleLevel, Index: 0, Node: nodes[0]}
	}
	if len(nodes) > 1 && nodes[1].Kind != KindBlank {
		return nil, &GrammarError{Kind: ErrMissingBlankLineAfterTitle, Index: 1, Node: nodes[1]}
	}

	res := &Result{Status: StatusSuccess, Title: nodes[0].Text}
	var content, split []string
	active := &content
	// The blank line right after the split heading separates it from its
	// content, the same way node 1 does for the title.
	afterSplit := false

	for i := 2; i < len(nodes); i++ {
		n := nodes[i]
		switch n.Kind {
		case KindHeading:
			if n.Level != TitleLevel {
				return nil, &GrammarError{Kind: ErrWrongTitleLevel, Index: i, Node: n}
			}
			if res.Status == StatusSplit {
				return nil, &GrammarError{Kind: ErrMultipleSplitsNotSupported, Index: i, Node: n}
			}
			res.Status = StatusSplit
			res.SplitTitle = n.Text
			active = &split
			afterSplit = true
			continue
		case KindParagraph:
			*active = append(*active, n.Text)
		case KindBlank:
			if !afterSplit {
				*active = append(*active, "")
			}
		default:
			return nil, &GrammarError{Kind: ErrUnexpectedNode, Index: i, Node: n}
		}
		afterSplit = false
	}

	res.Content = strings.Join(content, "\n")
	if res.Status == StatusSplit {
		res.SplitContent = strings.Join(split, "\n")
	}
	return res, nil
}

// Compile serializes a scene back into the markup Parse accepts.
func Compile(title, content string) string {
	return "## " + title + "\n\n" + content
}
