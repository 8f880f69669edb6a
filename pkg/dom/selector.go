package dom

import "strings"

// selector is a single compound selector: tag, #id, .classes, [attr] and
// [attr=value] parts. Combinators are not supported; the table of contents
// never needs them.
type selector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSelector
}

type attrSelector struct {
	name     string
	value    string
	hasValue bool
}

// parseAttr reads the inside of [...]. Values may be quoted.
func parseAttr(s string) attrSelector {
	name, value, ok := strings.Cut(s, "=")
	a := attrSelector{name: strings.TrimSpace(name)}
	if ok {
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		a.value, a.hasValue = value, true
	}
	return a
}

func parseSelector(s string) selector {
	var sel selector
	s = strings.TrimSpace(s)
	i := 0
	readName := func() string {
		start := i
		for i < len(s) && s[i] != '.' && s[i] != '#' && s[i] != '[' {
			i++
		}
		return s[start:i]
	}

	sel.tag = readName()
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			if name := readName(); name != "" {
				sel.classes = append(sel.classes, name)
			}
		case '#':
			i++
			sel.id = readName()
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				sel.attrs = append(sel.attrs, parseAttr(s[i+1:]))
				i = len(s)
				continue
			}
			sel.attrs = append(sel.attrs, parseAttr(s[i+1:i+end]))
			i += end + 1
		default:
			i++
		}
	}
	return sel
}

func (sel selector) matches(n *Node) bool {
	if n == nil {
		return false
	}
	if sel.tag != "" && sel.tag != "*" && sel.tag != n.tag {
		return false
	}
	if sel.id != "" {
		if id, ok := n.attrs["id"]; !ok || id != sel.id {
			return false
		}
	}
	for _, c := range sel.classes {
		if !n.HasClass(c) {
			return false
		}
	}
	for _, a := range sel.attrs {
		v, ok := n.attrs[a.name]
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func (sel selector) empty() bool {
	return sel.tag == "" && sel.id == "" && len(sel.classes) == 0 && len(sel.attrs) == 0
}
