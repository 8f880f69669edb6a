package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/topictree/pkg/dom"
)

// TreeModel is the scrollable outline pane. It reads the rendered table of
// contents through dom.Outline and never changes it; clicks are resolved to
// the node under the cursor and dispatched by the caller.
type TreeModel struct {
	theme Theme
	root  *dom.Node

	lines          []dom.Line
	cursor         int
	viewportOffset int
	width          int
	height         int
}

// NewTreeModel creates an empty tree pane.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{theme: theme}
}

// SetSize sets the pane dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Refresh re-reads the outline under root. The cursor stays on the same id
// when it is still visible, otherwise on the nearest remaining row.
func (t *TreeModel) Refresh(root *dom.Node) {
	prev := ""
	if sel, ok := t.Selected(); ok {
		prev = sel.ID
	}
	t.root = root
	t.lines = nil
	if root != nil {
		t.lines = dom.Outline(root, false)
	}
	if prev == "" || !t.SelectID(prev) {
		t.cursor = min(t.cursor, len(t.lines)-1)
		t.cursor = max(t.cursor, 0)
	}
	t.ensureCursorVisible()
}

// Lines returns the rows currently shown (collapsed lists omitted).
func (t *TreeModel) Lines() []dom.Line { return t.lines }

// Cursor returns the selected row index.
func (t *TreeModel) Cursor() int { return t.cursor }

// Selected returns the row under the cursor.
func (t *TreeModel) Selected() (dom.Line, bool) {
	if t.cursor < 0 || t.cursor >= len(t.lines) {
		return dom.Line{}, false
	}
	return t.lines[t.cursor], true
}

// SelectID moves the cursor to id if that row is visible.
func (t *TreeModel) SelectID(id string) bool {
	for i, l := range t.lines {
		if l.ID == id {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.lines)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

func (t *TreeModel) PageDown() {
	t.cursor = min(t.cursor+t.effectiveVisibleCount(), len(t.lines)-1)
	t.cursor = max(t.cursor, 0)
	t.ensureCursorVisible()
}

func (t *TreeModel) PageUp() {
	t.cursor = max(t.cursor-t.effectiveVisibleCount(), 0)
	t.ensureCursorVisible()
}

func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

func (t *TreeModel) JumpToBottom() {
	t.cursor = max(len(t.lines)-1, 0)
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the closest row above with a smaller depth.
func (t *TreeModel) JumpToParent() bool {
	sel, ok := t.Selected()
	if !ok || sel.Depth == 0 {
		return false
	}
	for i := t.cursor - 1; i >= 0; i-- {
		if t.lines[i].Depth < sel.Depth {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// ElementAt maps a click at column x of pane row y to the node it hit: the
// marker, the optional button or the label. Row 0 is the first outline row.
func (t *TreeModel) ElementAt(x, y int) (*dom.Node, int, bool) {
	if y < 0 || y >= t.effectiveVisibleCount() {
		return nil, -1, false
	}
	idx := t.viewportOffset + y
	if idx >= len(t.lines) {
		return nil, -1, false
	}
	l := t.lines[idx]
	markerStart := 2 * l.Depth
	labelStart := markerStart + 2
	if l.Button != nil {
		btnEnd := labelStart + runewidth.StringWidth(l.Button.Text())
		if x >= labelStart && x < btnEnd {
			return l.Button, idx, true
		}
		labelStart = btnEnd + 1
	}
	switch {
	case x < markerStart:
		return nil, idx, false
	case x < markerStart+2:
		return l.Marker, idx, true
	case x >= labelStart:
		return l.Label, idx, true
	}
	return nil, idx, false
}

// SetCursor selects row idx.
func (t *TreeModel) SetCursor(idx int) {
	if idx >= 0 && idx < len(t.lines) {
		t.cursor = idx
		t.ensureCursorVisible()
	}
}

func (t *TreeModel) View() string {
	if len(t.lines) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderLine(t.lines[i], i == t.cursor)
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(t.lines) > t.height && t.height > 1 {
		sb.WriteString("\n")
		sb.WriteString(t.renderPositionIndicator(start, end))
	}
	return sb.String()
}

func (t *TreeModel) renderLine(l dom.Line, selected bool) string {
	indent := strings.Repeat("  ", l.Depth)
	glyph := l.Glyph()
	if l.Caret {
		glyph = t.theme.Caret.Render(glyph)
	} else {
		glyph = t.theme.Bullet.Render(glyph)
	}

	used := runewidth.StringWidth(indent) + 2
	var btn string
	if l.Button != nil {
		icon := l.Button.Text()
		btn = t.theme.Button.Render(icon) + " "
		used += runewidth.StringWidth(icon) + 1
	}

	text := l.Text
	if t.width > 0 {
		text = truncate(text, max(t.width-used, 1))
	}
	switch {
	case l.Unlabeled:
		text = t.theme.Unlabeled.Render(text)
	case l.Highlighted:
		text = t.theme.Marked.Render(text)
	default:
		text = t.theme.Faded.Render(text)
	}

	row := indent + glyph + " " + btn + text
	if selected {
		row = t.theme.Selected.Render(row)
	}
	return row
}

func (t *TreeModel) renderPositionIndicator(start, end int) string {
	indicator := fmt.Sprintf(" %d-%d of %d", start+1, end, len(t.lines))
	return t.theme.MutedText.Render(indicator)
}

func (t *TreeModel) renderEmptyState() string {
	return t.theme.MutedText.Render("  No labels loaded.")
}

// effectiveVisibleCount is the number of outline rows that fit, leaving a
// row for the position indicator when scrolling.
func (t *TreeModel) effectiveVisibleCount() int {
	if t.height <= 0 {
		return len(t.lines)
	}
	if len(t.lines) > t.height && t.height > 1 {
		return t.height - 1
	}
	return t.height
}

func (t *TreeModel) visibleRange() (start, end int) {
	start = t.viewportOffset
	end = min(start+t.effectiveVisibleCount(), len(t.lines))
	return start, end
}

func (t *TreeModel) ensureCursorVisible() {
	if len(t.lines) == 0 {
		t.viewportOffset = 0
		return
	}

	visibleCount := t.effectiveVisibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visibleCount {
		t.viewportOffset = t.cursor - visibleCount + 1
	}

	maxOffset := max(len(t.lines)-visibleCount, 0)
	t.viewportOffset = min(t.viewportOffset, maxOffset)
	t.viewportOffset = max(t.viewportOffset, 0)
}
