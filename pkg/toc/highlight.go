package toc

import (
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// HighlightStats counts the flag writes made by one propagation.
type HighlightStats struct {
	Cleared int // highlights removed by the reset
	Marked  int // highlights added
	Skipped int // targets already highlighted when reached
	Missing int // targets with no display node
}

// Highlight clears every highlight, then marks each record and its ancestors.
func (t *TableOfContents) Highlight(records []model.LabelRecord) HighlightStats {
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	return t.HighlightIDs(ids...)
}

// HighlightIDs is Highlight keyed by id.
//
// A highlighted node always has highlighted ancestors, so the ancestor walk
// stops at the first one already marked and each node is written at most once
// per call.
func (t *TableOfContents) HighlightIDs(ids ...string) HighlightStats {
	defer metrics.Timer(metrics.Highlight)()

	var st HighlightStats
	for _, el := range t.surface.FindAllWithClass(ClassHighlighted) {
		el.RemoveClass(ClassHighlighted)
		st.Cleared++
	}

	for _, id := range ids {
		span, ok := t.spans.Get(id)
		if !ok {
			st.Missing++
			continue
		}
		if span.HasClass(ClassHighlighted) {
			st.Skipped++
			continue
		}
		span.AddClass(ClassHighlighted)
		st.Marked++

		chain, _ := t.chains.Get(id)
		for _, parentID := range chain {
			parent, ok := t.spans.Get(parentID)
			if !ok {
				continue
			}
			if parent.HasClass(ClassHighlighted) {
				break
			}
			parent.AddClass(ClassHighlighted)
			st.Marked++
		}
	}

	metrics.HighlightCleared.Add(int64(st.Cleared))
	metrics.HighlightMarked.Add(int64(st.Marked))
	metrics.HighlightSkipped.Add(int64(st.Skipped))
	return st
}

// HighlightAll highlights every record, which is the state after construction.
func (t *TableOfContents) HighlightAll() HighlightStats {
	return t.Highlight(t.hierarchy.Records())
}

// Highlighted returns the ids of highlighted display nodes in document order.
func (t *TableOfContents) Highlighted() []string {
	var ids []string
	for _, el := range t.surface.FindAllWithClass(ClassHighlighted) {
		if id, ok := el.Attr(AttrElementID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsHighlighted reports whether the display node for id is highlighted.
func (t *TableOfContents) IsHighlighted(id string) bool {
	span, ok := t.spans.Get(id)
	return ok && span.HasClass(ClassHighlighted)
}
