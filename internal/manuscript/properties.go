package manuscript

import "strings"

// Defaults applied when a paragraph carries no style or justification.
const (
	DefaultStyle         = "Normal"
	DefaultJustification = "both"
)

// Properties are the raw style and justification tokens of a paragraph.
type Properties struct {
	Style         string
	Justification string
}

// NewProperties applies the defaults to empty tokens.
func NewProperties(style, justification string) Properties {
	if style == "" {
		style = DefaultStyle
	}
	if justification == "" {
		justification = DefaultJustification
	}
	return Properties{Style: style, Justification: justification}
}

// Name is the raw style name.
func (p Properties) Name() string { return p.Style }

func (p Properties) IsTitle() bool    { return strings.ToLower(p.Style) == "title" }
func (p Properties) IsSubtitle() bool { return strings.ToLower(p.Style) == "subtitle" }

func (p Properties) IsLeft() bool   { return p.Justification == "left" }
func (p Properties) IsRight() bool  { return p.Justification == "right" }
func (p Properties) IsCenter() bool { return p.Justification == "center" }
