package parser

import (
	"strings"
	"testing"
)

type mdPara struct {
	text  string
	style string
	jc    string
	brk   bool
}

func parseMarkdown(t *testing.T, src string) []mdPara {
	t.Helper()
	paras, err := (&MarkdownParser{}).Parse(strings.NewReader(src), int64(len(src)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := make([]mdPara, len(paras))
	for i, p := range paras {
		out[i] = mdPara{p.Text(), p.Props.Style, p.Props.Justification, p.HardBreak}
	}
	return out
}

func TestMarkdownParser_Chapter(t *testing.T) {
	input := `# The Chapter

## Arrival

*Harbor*
// check the tide tables

First line.
Second line.

Third line.

## Departure

Last line.
`
	got := parseMarkdown(t, input)
	want := []mdPara{
		{"The Chapter", "Title", "both", false},
		{"", "Normal", "both", true},
		{"Arrival", "Normal", "center", false},
		{"Harbor", "Normal", "right", false},
		{"// check the tide tables", "Normal", "both", false},
		{"", "Normal", "both", false},
		{"First line.", "Normal", "both", false},
		{"Second line.", "Normal", "both", false},
		{"", "Normal", "both", false},
		{"Third line.", "Normal", "both", false},
		{"", "Normal", "both", true},
		{"Departure", "Normal", "center", false},
		{"Last line.", "Normal", "both", false},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestMarkdownParser_ThematicBreak(t *testing.T) {
	got := parseMarkdown(t, "one\n\n---\n\ntwo\n")
	if len(got) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %+v", len(got), got)
	}
	if !got[1].brk {
		t.Errorf("expected thematic break to be a hard break, got %+v", got[1])
	}
	if got[0].text != "one" || got[2].text != "two" {
		t.Errorf("unexpected text %+v", got)
	}
}

func TestEmphasized(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"*Dock*", "Dock", true},
		{"_Dock_", "Dock", true},
		{"**Bold**", "", false},
		{"*a* and *b*", "", false},
		{"plain", "", false},
		{"**", "", false},
	}
	for _, tt := range tests {
		got, ok := emphasized(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("emphasized(%q): expected %q/%v, got %q/%v", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
