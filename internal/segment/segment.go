// Package segment groups an extracted paragraph stream into scenes.
//
// Segmentation is a single forward fold: Step advances an explicit State by
// one paragraph, and Finish flushes the last scene and names the chapter.
// Two consecutive empty paragraphs end a scene, a single one is kept as a
// blank body line, and a page break always ends the scene without adding
// text.
package segment

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// ErrEmptyDocument is returned for a document with no paragraphs at all.
var ErrEmptyDocument = errors.New("empty document")

// blankRunBoundary is the number of consecutive empty paragraphs that end a
// scene.
const blankRunBoundary = 2

// State is the accumulator threaded through the fold.
type State struct {
	Policy Policy

	Current  manuscript.Scene
	BlankRun int

	ChapterTitle string
	TitleSeen    bool
	Subtitle     string
	SubtitleSeen bool

	Scenes []manuscript.Scene
}

// NewState returns the initial accumulator for policy.
func NewState(policy Policy) State {
	return State{Policy: policy}
}

// Step folds one paragraph into s. s is not modified; slices are copied
// before they grow so earlier states stay valid.
func Step(s State, p manuscript.Paragraph) State {
	if p.HardBreak {
		s = s.flush()
		s.BlankRun = 0
		return s
	}

	if p.IsEmpty() {
		s.BlankRun++
		if s.BlankRun >= blankRunBoundary {
			s = s.flush()
			s.BlankRun = 0
			return s
		}
		s.Current = addLine(s.Current, "")
		return s
	}

	s.BlankRun = 0
	text := p.Text()
	props := p.Props

	switch {
	case props.IsRight():
		s.Current.Location = appendJoined(s.Current.Location, "\n", text)
	case props.IsTitle():
		if !s.TitleSeen {
			s.ChapterTitle = text
			s.TitleSeen = true
		}
	default:
		s = s.Policy.classify(s, p, text)
	}
	return s
}

// Finish flushes the in-progress scene and builds the chapter. sourceName
// names the chapter when no title-styled paragraph was seen.
func (s State) Finish(sourceName string) *manuscript.Chapter {
	s = s.flush()
	title := s.ChapterTitle
	if !s.TitleSeen {
		title = filepath.Base(sourceName)
	}
	scenes := s.Scenes
	if scenes == nil {
		scenes = []manuscript.Scene{}
	}
	return &manuscript.Chapter{
		Title:    title,
		Subtitle: s.Subtitle,
		Scenes:   scenes,
	}
}

// flush appends the current scene if it is non-empty and starts a new one.
func (s State) flush() State {
	if !s.Current.IsEmpty() {
		scene := finalize(s.Current)
		s.Scenes = append(s.Scenes[:len(s.Scenes):len(s.Scenes)], scene)
	}
	s.Current = manuscript.Scene{}
	return s
}

// Segment folds paragraphs into a chapter.
func Segment(paras []manuscript.Paragraph, sourceName string, policy Policy) (*manuscript.Chapter, error) {
	if len(paras) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}
	s := NewState(policy)
	for _, p := range paras {
		s = Step(s, p)
	}
	return s.Finish(sourceName), nil
}

// SegmentDocument segments doc and stamps the chapter with its source
// metadata.
func SegmentDocument(doc *manuscript.Document, policy Policy) (*manuscript.Chapter, error) {
	ch, err := Segment(doc.Paragraphs, doc.Name, policy)
	if err != nil {
		return nil, err
	}
	ch.Source = doc.Meta
	return ch, nil
}

func addLine(sc manuscript.Scene, line string) manuscript.Scene {
	sc.Lines = append(sc.Lines[:len(sc.Lines):len(sc.Lines)], line)
	return sc
}

func appendJoined(acc, sep, text string) string {
	return strings.TrimSpace(acc + sep + text)
}

// finalize drops leading and trailing blank lines and computes the body.
// Body lines are concatenated with no separator.
func finalize(sc manuscript.Scene) manuscript.Scene {
	lines := sc.Lines
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	sc.Lines = append([]string(nil), lines...)
	sc.Body = strings.Join(sc.Lines, "")
	return sc
}
