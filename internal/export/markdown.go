package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/scenemd"
)

// Markdown writes ch as a level-1 chapter heading followed by one scene
// block per scene. Each block is valid scene markup on its own: the location
// leads as an emphasized paragraph and notes follow as "//" paragraphs.
func Markdown(w io.Writer, ch *manuscript.Chapter) error {
	var b strings.Builder
	if ch.Title != "" {
		b.WriteString("# " + ch.Title + "\n\n")
	}
	for i, sc := range ch.Scenes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(scenemd.Compile(SceneTitle(sc, i), SceneContent(sc)))
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// SceneTitle is the scene's title, or a numbered placeholder.
func SceneTitle(sc manuscript.Scene, index int) string {
	if t := strings.TrimSpace(sc.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Scene %d", index+1)
}

// SceneContent renders the scene body as scene-markup content.
func SceneContent(sc manuscript.Scene) string {
	var parts []string
	for _, l := range splitNonEmpty(sc.Location) {
		parts = append(parts, "*"+strings.TrimSpace(l)+"*")
	}
	for _, n := range splitNonEmpty(sc.Notes) {
		n = strings.TrimSpace(n)
		if !strings.HasPrefix(n, "//") {
			n = "// " + n
		}
		parts = append(parts, n)
	}
	if len(parts) > 0 {
		parts = append(parts, "")
	}
	parts = append(parts, sceneLines(sc)...)
	return strings.Join(parts, "\n")
}
