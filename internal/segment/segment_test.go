package segment

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

func para(text, style, jc string) manuscript.Paragraph {
	return manuscript.Paragraph{
		Runs:  []string{text},
		Props: manuscript.NewProperties(style, jc),
	}
}

func body(text string) manuscript.Paragraph   { return para(text, "", "") }
func right(text string) manuscript.Paragraph  { return para(text, "", "right") }
func center(text string) manuscript.Paragraph { return para(text, "", "center") }
func title(text string) manuscript.Paragraph  { return para(text, "Title", "") }

func blank() manuscript.Paragraph {
	return manuscript.Paragraph{Props: manuscript.NewProperties("", "")}
}

func pageBreak() manuscript.Paragraph {
	p := blank()
	p.HardBreak = true
	return p
}

func mustSegment(t *testing.T, paras []manuscript.Paragraph, policy Policy) *manuscript.Chapter {
	t.Helper()
	ch, err := Segment(paras, "chapter.docx", policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ch
}

func TestSegment_SingleBlankIsAbsorbed(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{body("A"), blank(), body("B")}, CenterTitles)
	if len(ch.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(ch.Scenes))
	}
	sc := ch.Scenes[0]
	if want := []string{"A", "", "B"}; !reflect.DeepEqual(sc.Lines, want) {
		t.Errorf("expected lines %q, got %q", want, sc.Lines)
	}
	if sc.Body != "AB" {
		t.Errorf("expected body %q, got %q", "AB", sc.Body)
	}
}

func TestSegment_TwoBlanksSplit(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{body("A"), blank(), blank(), body("B")}, CenterTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
	if ch.Scenes[0].Body != "A" || ch.Scenes[1].Body != "B" {
		t.Errorf("expected bodies A and B, got %q and %q", ch.Scenes[0].Body, ch.Scenes[1].Body)
	}
}

func TestSegment_ManyBlanksDoNotCreateEmptyScenes(t *testing.T) {
	paras := []manuscript.Paragraph{body("A"), blank(), blank(), blank(), blank(), blank(), body("B")}
	ch := mustSegment(t, paras, CenterTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
	if ch.Scenes[1].Body != "B" {
		t.Errorf("expected second body %q, got %q", "B", ch.Scenes[1].Body)
	}
}

func TestSegment_HardBreakClosesScene(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{body("A"), pageBreak(), body("B")}, CenterTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
	if ch.Scenes[0].Body != "A" || ch.Scenes[1].Body != "B" {
		t.Errorf("expected bodies A and B, got %q and %q", ch.Scenes[0].Body, ch.Scenes[1].Body)
	}
}

func TestSegment_HardBreakDropsItsText(t *testing.T) {
	brk := body("ignored")
	brk.HardBreak = true
	ch := mustSegment(t, []manuscript.Paragraph{body("A"), brk, body("B")}, CenterTitles)
	for _, sc := range ch.Scenes {
		if sc.Body == "ignored" || sc.Body == "Aignored" {
			t.Errorf("expected hard break text to be dropped, got body %q", sc.Body)
		}
	}
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
}

func TestSegment_HardBreakResetsBlankRun(t *testing.T) {
	// blank, break, blank must not count as two consecutive blanks.
	paras := []manuscript.Paragraph{body("A"), blank(), pageBreak(), blank(), body("B"), blank(), body("C")}
	ch := mustSegment(t, paras, CenterTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
	if want := []string{"B", "", "C"}; !reflect.DeepEqual(ch.Scenes[1].Lines, want) {
		t.Errorf("expected lines %q, got %q", want, ch.Scenes[1].Lines)
	}
}

func TestSegment_FinalSceneFlushed(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{body("only")}, CenterTitles)
	if len(ch.Scenes) != 1 || ch.Scenes[0].Body != "only" {
		t.Fatalf("expected the trailing scene to be flushed, got %+v", ch.Scenes)
	}
}

func TestSegment_TitleFallback(t *testing.T) {
	ch, err := Segment([]manuscript.Paragraph{body("x")}, "/books/one/sample_chapter_document.docx", CenterTitles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Title != "sample_chapter_document.docx" {
		t.Errorf("expected title %q, got %q", "sample_chapter_document.docx", ch.Title)
	}
}

func TestSegment_FirstTitleWins(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{title("First"), body("x"), title("Second")}, CenterTitles)
	if ch.Title != "First" {
		t.Errorf("expected title %q, got %q", "First", ch.Title)
	}
}

func TestSegment_EmptyDocument(t *testing.T) {
	_, err := Segment(nil, "empty.docx", CenterTitles)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestSegment_BlankOnlyDocumentHasNoScenes(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{blank(), blank(), blank()}, CenterTitles)
	if ch.Scenes == nil || len(ch.Scenes) != 0 {
		t.Errorf("expected an empty, non-nil scene list, got %#v", ch.Scenes)
	}
}

func TestSegment_Locations(t *testing.T) {
	paras := []manuscript.Paragraph{
		right("First scene"),
		right("Beginning of the document"),
		body("Opening."),
		blank(), blank(),
		right("Stuck in the middle with you"),
		body("Middle."),
		pageBreak(),
		body("Final."),
	}
	ch := mustSegment(t, paras, CenterTitles)
	if ch.Title != "chapter.docx" {
		t.Errorf("expected title fallback %q, got %q", "chapter.docx", ch.Title)
	}
	want := []string{"First scene\nBeginning of the document", "Stuck in the middle with you", ""}
	if len(ch.Scenes) != len(want) {
		t.Fatalf("expected %d scenes, got %d", len(want), len(ch.Scenes))
	}
	for i, w := range want {
		if ch.Scenes[i].Location != w {
			t.Errorf("scene %d: expected location %q, got %q", i, w, ch.Scenes[i].Location)
		}
	}
}

func TestSegment_LocationOnlySceneIsKept(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{right("  Somewhere  "), pageBreak(), body("x")}, CenterTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
	if ch.Scenes[0].Location != "Somewhere" {
		t.Errorf("expected trimmed location, got %q", ch.Scenes[0].Location)
	}
}

func TestSegment_CenterTitles(t *testing.T) {
	paras := []manuscript.Paragraph{
		title("This is the chapter title"),
		center("This is the"),
		center("scene title"),
		body("one"),
		blank(), blank(),
		body("two"),
		pageBreak(),
		center("All things must come to an end!"),
		body("three"),
	}
	ch := mustSegment(t, paras, CenterTitles)
	if ch.Title != "This is the chapter title" {
		t.Errorf("expected chapter title, got %q", ch.Title)
	}
	want := []string{"This is the scene title", "", "All things must come to an end!"}
	if len(ch.Scenes) != len(want) {
		t.Fatalf("expected %d scenes, got %d", len(want), len(ch.Scenes))
	}
	for i, w := range want {
		if ch.Scenes[i].Title != w {
			t.Errorf("scene %d: expected title %q, got %q", i, w, ch.Scenes[i].Title)
		}
	}
}

func TestSegment_StyleTitles(t *testing.T) {
	paras := []manuscript.Paragraph{
		title("Chapter One"),
		para("The Beginning", "Subtitle", ""),
		para("Another subtitle", "Subtitle", ""),
		center("check the dates"),
		body("// tighten this"),
		body("Prose."),
	}
	ch := mustSegment(t, paras, StyleTitles)
	if ch.Title != "Chapter One" {
		t.Errorf("expected title %q, got %q", "Chapter One", ch.Title)
	}
	if ch.Subtitle != "The Beginning" {
		t.Errorf("expected subtitle %q, got %q", "The Beginning", ch.Subtitle)
	}
	if len(ch.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(ch.Scenes))
	}
	sc := ch.Scenes[0]
	if sc.Notes != "check the dates\n// tighten this" {
		t.Errorf("expected notes, got %q", sc.Notes)
	}
	if sc.Title != "" {
		t.Errorf("expected no scene title under style policy, got %q", sc.Title)
	}
	if sc.Body != "Prose." {
		t.Errorf("expected body %q, got %q", "Prose.", sc.Body)
	}
}

func TestSegment_NotesOnlySceneIsKept(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{body("// todo"), blank(), blank(), body("x")}, StyleTitles)
	if len(ch.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(ch.Scenes))
	}
}

func TestSegment_SubtitleIsBodyUnderCenterPolicy(t *testing.T) {
	ch := mustSegment(t, []manuscript.Paragraph{para("Sub", "Subtitle", "")}, CenterTitles)
	if ch.Subtitle != "" || ch.Scenes[0].Body != "Sub" {
		t.Errorf("expected subtitle to be body text, got subtitle %q body %q", ch.Subtitle, ch.Scenes[0].Body)
	}
}

func TestSegment_Deterministic(t *testing.T) {
	paras := []manuscript.Paragraph{title("T"), right("L"), body("a"), blank(), body("b"), blank(), blank(), center("S"), body("c")}
	first := mustSegment(t, paras, CenterTitles)
	for range 10 {
		again := mustSegment(t, paras, CenterTitles)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical chapters, got %+v and %+v", first, again)
		}
	}
}

func TestStep_DoesNotMutatePriorState(t *testing.T) {
	s := NewState(CenterTitles)
	s = Step(s, body("a"))
	s = Step(s, blank())
	s = Step(s, blank())
	base := s

	left := Step(base, body("left"))
	right := Step(base, body("right"))
	left = Step(Step(left, blank()), blank())
	right = Step(Step(right, blank()), blank())

	if len(left.Scenes) != 2 || len(right.Scenes) != 2 {
		t.Fatalf("expected 2 scenes on each branch, got %d and %d", len(left.Scenes), len(right.Scenes))
	}
	if left.Scenes[1].Body != "left" || right.Scenes[1].Body != "right" {
		t.Errorf("expected branches to stay independent, got %q and %q", left.Scenes[1].Body, right.Scenes[1].Body)
	}
	if len(base.Scenes) != 1 {
		t.Errorf("expected base state to keep 1 scene, got %d", len(base.Scenes))
	}
}

func TestStep_BlankRunCounter(t *testing.T) {
	s := NewState(CenterTitles)
	s = Step(s, body("a"))
	s = Step(s, blank())
	if s.BlankRun != 1 {
		t.Fatalf("expected blank run 1, got %d", s.BlankRun)
	}
	s = Step(s, blank())
	if s.BlankRun != 0 {
		t.Errorf("expected blank run reset at boundary, got %d", s.BlankRun)
	}
	if len(s.Scenes) != 1 {
		t.Errorf("expected boundary to flush one scene, got %d", len(s.Scenes))
	}
	s = Step(s, blank())
	s = Step(s, body("b"))
	if s.BlankRun != 0 {
		t.Errorf("expected non-empty paragraph to reset blank run, got %d", s.BlankRun)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": CenterTitles, "center": CenterTitles, "STYLE": StyleTitles} {
		got, err := ParsePolicy(in)
		if err != nil {
			t.Fatalf("ParsePolicy(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePolicy(%q): expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParsePolicy("bogus"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestSegmentDocument_StampsSource(t *testing.T) {
	doc := &manuscript.Document{
		Name:       "ch1.docx",
		Paragraphs: []manuscript.Paragraph{body("x")},
		Meta:       manuscript.SourceMeta{Name: "ch1.docx", Size: 99},
	}
	ch, err := SegmentDocument(doc, CenterTitles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Source.Size != 99 {
		t.Errorf("expected source size 99, got %d", ch.Source.Size)
	}
}
