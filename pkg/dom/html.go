package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// WriteHTML serializes the subtree rooted at n as HTML markup.
func WriteHTML(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// HTML returns the subtree rooted at n as an HTML string.
func HTML(n *Node) string {
	var sb strings.Builder
	if err := WriteHTML(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func toHTML(n *Node) *html.Node {
	out := &html.Node{
		Type: html.ElementNode,
		Data: n.tag,
	}
	if len(n.classes) > 0 {
		out.Attr = append(out.Attr, html.Attribute{Key: "class", Val: strings.Join(n.classes, " ")})
	}
	for _, k := range n.attrOrder {
		out.Attr = append(out.Attr, html.Attribute{Key: k, Val: n.attrs[k]})
	}
	if n.text != "" {
		out.AppendChild(&html.Node{Type: html.TextNode, Data: n.text})
	}
	for _, c := range n.children {
		out.AppendChild(toHTML(c))
	}
	return out
}
