package toc

import "github.com/vanderheijden86/topictree/pkg/metrics"

// Labels shown on the expand-all control for the action it will perform next.
const (
	LabelExpandAll   = "Expand All"
	LabelCollapseAll = "Collapse All"
)

// ToggleCaret flips the expanded marker on caret and the visibility of the
// nested list that follows it. Nothing else in the tree changes.
func ToggleCaret(caret Element) {
	caret.ToggleClass(ClassCaretDown)
	if nested := caret.NextSiblingMatching("." + ClassNested); nested != nil {
		nested.ToggleClass(ClassActive)
	}
}

// SetCaret forces caret and its nested list to the given state.
func SetCaret(caret Element, expanded bool) {
	nested := caret.NextSiblingMatching("." + ClassNested)
	if expanded {
		caret.AddClass(ClassCaretDown)
		if nested != nil {
			nested.AddClass(ClassActive)
		}
		return
	}
	caret.RemoveClass(ClassCaretDown)
	if nested != nil {
		nested.RemoveClass(ClassActive)
	}
}

// IsExpanded reports whether a caret carries the expanded marker.
func IsExpanded(caret Element) bool {
	return caret.HasClass(ClassCaretDown)
}

// AllExpanded reports the aggregate state tracked by the expand-all control.
func (t *TableOfContents) AllExpanded() bool {
	v, _ := t.expandAll.Attr(AttrExpanded)
	return v == "true"
}

// ToggleAll forces every caret to the opposite of the aggregate state,
// ignoring what each caret was before, then flips the aggregate and the
// control's label. It returns the new aggregate state.
func (t *TableOfContents) ToggleAll() bool {
	defer metrics.Timer(metrics.ExpandAll)()

	expand := !t.AllExpanded()
	for _, caret := range t.surface.FindAllWithClass(ClassCaret) {
		SetCaret(caret, expand)
	}
	if expand {
		t.expandAll.SetAttr(AttrExpanded, "true")
		t.expandAll.SetText(LabelCollapseAll)
	} else {
		t.expandAll.SetAttr(AttrExpanded, "false")
		t.expandAll.SetText(LabelExpandAll)
	}
	return expand
}

// ExpandTo expands every caret on the path from the top level down to id so
// its display node becomes visible. Carets outside that path are untouched.
func (t *TableOfContents) ExpandTo(id string) {
	chain, _ := t.chains.Get(id)
	for _, parentID := range chain {
		if span, ok := t.spans.Get(parentID); ok && span.HasClass(ClassCaret) {
			SetCaret(span, true)
		}
	}
}

// ExpandedIDs returns the ids of expanded carets in document order.
func (t *TableOfContents) ExpandedIDs() []string {
	var ids []string
	for _, caret := range t.surface.FindAllWithClass(ClassCaret) {
		if !IsExpanded(caret) {
			continue
		}
		if id, ok := caret.Attr(AttrElementID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Expand opens the caret of each id. Leaves and unknown ids are skipped.
func (t *TableOfContents) Expand(ids ...string) {
	for _, id := range ids {
		if span, ok := t.spans.Get(id); ok && span.HasClass(ClassCaret) {
			SetCaret(span, true)
		}
	}
}
