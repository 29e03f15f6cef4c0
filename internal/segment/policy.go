package segment

import (
	"fmt"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// Policy selects how non-location, non-title paragraphs are classified.
type Policy int

const (
	// CenterTitles treats centered paragraphs as the scene title.
	CenterTitles Policy = iota
	// StyleTitles captures the Subtitle style as the chapter subtitle and
	// files centered paragraphs and "//" paragraphs as scene notes.
	StyleTitles
)

// notePrefix marks an inline author note under StyleTitles.
const notePrefix = "//"

func (p Policy) String() string {
	switch p {
	case CenterTitles:
		return "center"
	case StyleTitles:
		return "style"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts the names returned by String. An empty string selects
// CenterTitles.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center":
		return CenterTitles, nil
	case "style":
		return StyleTitles, nil
	}
	return 0, fmt.Errorf("unknown segment policy %q", s)
}

// MarshalText lets policies appear in JSON and CLI flags by name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Policy) classify(s State, para manuscript.Paragraph, text string) State {
	props := para.Props
	switch p {
	case StyleTitles:
		switch {
		case props.IsSubtitle():
			if !s.SubtitleSeen {
				s.Subtitle = text
				s.SubtitleSeen = true
			}
			return s
		case props.IsCenter(), strings.HasPrefix(text, notePrefix):
			s.Current.Notes = appendJoined(s.Current.Notes, "\n", text)
			return s
		}
	default:
		if props.IsCenter() {
			s.Current.Title = appendJoined(s.Current.Title, " ", text)
			return s
		}
	}
	s.Current = addLine(s.Current, text)
	return s
}
