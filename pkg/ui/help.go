package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Topic Tree

## Navigation

| Key | Action |
|-----|--------|
| j / ↓, k / ↑ | move |
| pgdn / pgup | page |
| g / G | first / last row |
| p | jump to parent |

## Tree

| Key | Action |
|-----|--------|
| space | open or close the caret under the cursor |
| l / → | open caret |
| h / ← | close caret, or jump to parent |
| a | expand all / collapse all |
| enter, z | zoom the map to the label |
| b | press the label button (highlight only that label) |
| click | same as clicking the caret, button or label |

## Highlight

| Key | Action |
|-----|--------|
| / | fuzzy search; matches and their ancestors are highlighted |
| c | clear the search and highlight everything again |

## Other

| Key | Action |
|-----|--------|
| y | copy the label id |
| s | save an SVG snapshot |
| r | reload the label sources |
| ? | toggle this help |
| q | quit |
`

// HelpModel shows the key reference in a scrollable viewport.
type HelpModel struct {
	viewport viewport.Model
	width    int
}

// NewHelpModel renders the help text for the given size.
func NewHelpModel(width, height int) HelpModel {
	h := HelpModel{viewport: viewport.New(width, height)}
	h.SetSize(width, height)
	return h
}

// SetSize re-renders the help text when the width changes.
func (h *HelpModel) SetSize(width, height int) {
	h.viewport.Width = width
	h.viewport.Height = height
	if width != h.width || h.viewport.TotalLineCount() == 0 {
		h.width = width
		h.viewport.SetContent(renderHelpMarkdown(width))
	}
}

// View renders the visible part of the help text.
func (h HelpModel) View() string {
	return h.viewport.View()
}

// ScrollDown and ScrollUp move the help text by one line.
func (h *HelpModel) ScrollDown() { h.viewport.LineDown(1) }
func (h *HelpModel) ScrollUp()   { h.viewport.LineUp(1) }

func renderHelpMarkdown(width int) string {
	wrap := max(width-4, 20)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n ")
}
