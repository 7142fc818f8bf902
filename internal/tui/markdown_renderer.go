package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minPreviewWidth keeps glamour from wrapping every word on narrow drawers.
const minPreviewWidth = 24

// markdownRenderer previews task descriptions in the drawer. The glamour
// renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns at most maxLines lines of styled markdown. A non-positive
// maxLines means no limit. Render failures fall back to the raw text.
func (r *markdownRenderer) render(markdown string, width, maxLines int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" || r == nil {
		return ""
	}
	width = max(width, minPreviewWidth)
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return clipLines(markdown, maxLines)
		}
		r.renderer = renderer
		r.width = width
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return clipLines(markdown, maxLines)
	}
	return clipLines(strings.Trim(out, "\n"), maxLines)
}

// clipLines keeps the first maxLines lines, marking the cut with an ellipsis.
func clipLines(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(append(lines[:maxLines-1], "…"), "\n")
}
