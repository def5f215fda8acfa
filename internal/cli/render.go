package cli

import (
	"github.com/charmbracelet/glamour"
)

// renderDescription renders an option/package description as markdown for
// terminal display, falling back to the raw text if glamour can't render
// it, per nix-ai-help/pkg/utils/formatter.go::RenderMarkdown.
func renderDescription(text string) string {
	if text == "" {
		return text
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return rendered
}
