// Package dom is a small in-memory UI tree: elements with attributes, class
// tags, text and ordered children. It implements toc.Surface so the table of
// contents can be built and queried without a browser, and it is what the
// terminal UI and the snapshot exporters render from.
package dom

import (
	"slices"
	"strings"

	"github.com/vanderheijden86/topictree/pkg/toc"
)

// Node is one element of the tree.
type Node struct {
	tag       string
	attrs     map[string]string
	attrOrder []string
	classes   []string
	text      string
	parent    *Node
	index     int // position in parent.children
	children  []*Node
	doc       *Document
}

var _ toc.Element = (*Node)(nil)

// Document owns a tree of nodes rooted at a container element.
type Document struct {
	root *Node

	// classWrites counts AddClass/RemoveClass calls that changed state.
	classWrites int
}

var _ toc.Surface = (*Document)(nil)

// NewDocument creates a document whose root container is a <div>.
func NewDocument() *Document {
	d := &Document{}
	d.root = d.newNode("div")
	return d
}

func (d *Document) newNode(tag string) *Node {
	return &Node{
		tag:   tag,
		attrs: make(map[string]string),
		doc:   d,
	}
}

// Root returns the container element.
func (d *Document) Root() toc.Element { return d.root }

// RootNode returns the container as a concrete node.
func (d *Document) RootNode() *Node { return d.root }

// CreateElement returns a detached element owned by this document.
func (d *Document) CreateElement(tag string) toc.Element {
	return d.newNode(tag)
}

// Reset drops every child of the root container.
func (d *Document) Reset() {
	d.root.RemoveChildren()
}

// ClassWrites returns the number of effective class mutations so far.
func (d *Document) ClassWrites() int { return d.classWrites }

// FindAllWithAttribute returns attached elements carrying the attribute, in document order.
func (d *Document) FindAllWithAttribute(name string) []toc.Element {
	var out []toc.Element
	d.root.walk(func(n *Node) bool {
		if _, ok := n.attrs[name]; ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindAllWithClass returns attached elements carrying the class tag, in document order.
func (d *Document) FindAllWithClass(tag string) []toc.Element {
	var out []toc.Element
	d.root.walk(func(n *Node) bool {
		if n.HasClass(tag) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryAll returns every attached element matching selector.
func (d *Document) QueryAll(sel string) []*Node {
	s := parseSelector(sel)
	if s.empty() {
		return nil
	}
	var out []*Node
	d.root.walk(func(n *Node) bool {
		if s.matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryOne returns the first attached element matching selector, or nil.
func (d *Document) QueryOne(sel string) toc.Element {
	s := parseSelector(sel)
	if s.empty() {
		return nil
	}
	var found *Node
	d.root.walk(func(n *Node) bool {
		if s.matches(n) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

// Tag returns the element name.
func (n *Node) Tag() string { return n.tag }

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	if name == "class" {
		return strings.Join(n.classes, " "), len(n.classes) > 0
	}
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets an attribute, keeping first-insertion order for serialization.
func (n *Node) SetAttr(name, value string) {
	if name == "class" {
		n.classes = strings.Fields(value)
		return
	}
	if _, ok := n.attrs[name]; !ok {
		n.attrOrder = append(n.attrOrder, name)
	}
	n.attrs[name] = value
}

// Attrs returns attribute names in insertion order.
func (n *Node) Attrs() []string { return n.attrOrder }

// Classes returns a copy of the class tags in insertion order.
func (n *Node) Classes() []string { return slices.Clone(n.classes) }

// AddClass adds a class tag if absent.
func (n *Node) AddClass(tag string) {
	if tag == "" || n.HasClass(tag) {
		return
	}
	n.classes = append(n.classes, tag)
	n.doc.classWrites++
}

// RemoveClass removes a class tag if present.
func (n *Node) RemoveClass(tag string) {
	i := slices.Index(n.classes, tag)
	if i < 0 {
		return
	}
	n.classes = slices.Delete(n.classes, i, i+1)
	n.doc.classWrites++
}

// HasClass reports whether the class tag is present.
func (n *Node) HasClass(tag string) bool {
	return slices.Contains(n.classes, tag)
}

// ToggleClass adds the class tag when absent and removes it when present.
func (n *Node) ToggleClass(tag string) {
	if n.HasClass(tag) {
		n.RemoveClass(tag)
		return
	}
	n.AddClass(tag)
}

// Text returns the element's own text content.
func (n *Node) Text() string { return n.text }

// SetText replaces the element's own text content.
func (n *Node) SetText(text string) { n.text = text }

// AppendChild attaches child as the last child, detaching it from any prior parent.
func (n *Node) AppendChild(child toc.Element) {
	c, ok := child.(*Node)
	if !ok || c == nil {
		panic("dom: AppendChild requires a *dom.Node")
	}
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.parent = n
	c.index = len(n.children)
	n.children = append(n.children, c)
}

// RemoveChildren detaches every child and clears the element's text.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	n.text = ""
}

func (n *Node) removeChild(c *Node) {
	if i := c.index; i < len(n.children) && n.children[i] == c {
		n.children = slices.Delete(n.children, i, i+1)
		for j := i; j < len(n.children); j++ {
			n.children[j].index = j
		}
	}
	c.parent = nil
	c.index = 0
}

// NextSiblingMatching returns the first following sibling matching selector.
// An empty selector returns the immediate next sibling.
func (n *Node) NextSiblingMatching(sel string) toc.Element {
	if n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	i := n.index
	if i+1 >= len(siblings) {
		return nil
	}
	s := parseSelector(sel)
	if s.empty() {
		return siblings[i+1]
	}
	for _, sib := range siblings[i+1:] {
		if s.matches(sib) {
			return sib
		}
	}
	return nil
}

// Parent returns the parent node, or nil for detached nodes and the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes.
func (n *Node) Children() []*Node { return n.children }

// Matches reports whether the node matches a simple selector.
func (n *Node) Matches(sel string) bool {
	return parseSelector(sel).matches(n)
}

// Walk visits n and its descendants depth-first in document order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	n.walk(fn)
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
