package dom

import "github.com/vanderheijden86/topictree/pkg/toc"

// Line is one list item of a rendered table of contents, flattened for
// line-oriented renderers.
type Line struct {
	Depth       int
	ID          string
	Text        string
	Caret       bool
	Expanded    bool
	Highlighted bool
	Unlabeled   bool

	Marker *Node
	Label  *Node
	Button *Node
}

// Glyph returns the marker glyph used by text renderers.
func (l Line) Glyph() string {
	switch {
	case !l.Caret:
		return "•"
	case l.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

// Outline flattens the table of contents under root into lines in document
// order. Unless all is set, items inside collapsed lists are omitted.
func Outline(root *Node, all bool) []Line {
	var lines []Line
	var visit func(list *Node, depth int)
	visit = func(list *Node, depth int) {
		for _, li := range list.children {
			if li.tag != "li" {
				continue
			}
			line, nested := outlineItem(li, depth)
			lines = append(lines, line)
			if nested != nil && (all || nested.HasClass(toc.ClassActive)) {
				visit(nested, depth+1)
			}
		}
	}

	var top *Node
	root.walk(func(n *Node) bool {
		if n.tag == "ul" && n.HasClass(toc.ClassNested) {
			top = n
			return false
		}
		return true
	})
	if top != nil {
		visit(top, 0)
	}
	return lines
}

func outlineItem(li *Node, depth int) (Line, *Node) {
	line := Line{Depth: depth}
	var nested *Node
	for _, c := range li.children {
		switch {
		case c.HasClass(toc.ClassNested):
			nested = c
		case c.HasClass(toc.ClassLabel):
			line.Label = c
			line.Text = c.text
		case c.HasClass(toc.ClassButton):
			line.Button = c
		default:
			if id, ok := c.attrs[toc.AttrElementID]; ok {
				line.Marker = c
				line.ID = id
				line.Caret = c.HasClass(toc.ClassCaret)
				line.Expanded = c.HasClass(toc.ClassCaretDown)
				line.Highlighted = c.HasClass(toc.ClassHighlighted)
				line.Unlabeled = c.HasClass(toc.ClassUnlabeled)
			}
		}
	}
	return line, nested
}
