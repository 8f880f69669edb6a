package toc_test

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/topictree/pkg/dom"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

// threeParents has three non-leaf records, each with one leaf child.
func threeParents() []model.LabelRecord {
	return []model.LabelRecord{
		{ID: "p1", Parent: model.RootID},
		{ID: "p1a", Parent: "p1", LowestLayer: true},
		{ID: "p2", Parent: model.RootID},
		{ID: "p2a", Parent: "p2", LowestLayer: true},
		{ID: "p3", Parent: model.RootID},
		{ID: "p3a", Parent: "p3", LowestLayer: true},
	}
}

func expandedState(t *testing.T, doc *dom.Document, id string) (marker, visible bool) {
	t.Helper()
	caret := span(t, doc, id)
	nested := caret.NextSiblingMatching(".nested")
	return caret.HasClass(toc.ClassCaretDown), nested != nil && nested.HasClass(toc.ClassActive)
}

func TestToggleCaretIsLocalAndSymmetric(t *testing.T) {
	tt, doc, _ := newTOC(t, threeParents(), toc.Options{})

	p1 := span(t, doc, "p1")
	before := p1.Classes()

	if !tt.HandleClick(p1) {
		t.Fatal("caret click not handled")
	}
	if m, v := expandedState(t, doc, "p1"); !m || !v {
		t.Errorf("p1 should be expanded, marker=%v visible=%v", m, v)
	}
	for _, id := range []string{"p2", "p3"} {
		if m, v := expandedState(t, doc, id); m || v {
			t.Errorf("%s should be untouched", id)
		}
	}

	tt.HandleClick(p1)
	if m, v := expandedState(t, doc, "p1"); m || v {
		t.Error("second toggle should collapse")
	}
	if !slices.Equal(before, p1.Classes()) {
		t.Errorf("classes changed: %v -> %v", before, p1.Classes())
	}
}

func TestToggleAllForcesEveryCaret(t *testing.T) {
	tt, doc, _ := newTOC(t, threeParents(), toc.Options{})

	// two expanded, one collapsed
	toc.ToggleCaret(span(t, doc, "p1"))
	toc.ToggleCaret(span(t, doc, "p2"))

	btn := tt.ExpandAllControl()
	if !tt.HandleClick(btn) {
		t.Fatal("expand-all click not handled")
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if m, v := expandedState(t, doc, id); !m || !v {
			t.Errorf("%s should be expanded", id)
		}
	}
	if btn.Text() != toc.LabelCollapseAll || !tt.AllExpanded() {
		t.Errorf("button = %q expanded=%v", btn.Text(), tt.AllExpanded())
	}
	if v, _ := btn.Attr(toc.AttrExpanded); v != "true" {
		t.Errorf("data-expanded = %q", v)
	}

	if tt.ToggleAll() {
		t.Error("second toggle should report collapsed")
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if m, v := expandedState(t, doc, id); m || v {
			t.Errorf("%s should be collapsed", id)
		}
	}
	if btn.Text() != toc.LabelExpandAll {
		t.Errorf("button = %q", btn.Text())
	}
}

func TestToggleAllLeavesTopLevelVisible(t *testing.T) {
	tt, doc, _ := newTOC(t, threeParents(), toc.Options{})
	tt.ToggleAll()
	tt.ToggleAll()

	top := doc.QueryAll("ul.nested")[0]
	if !top.HasClass(toc.ClassActive) {
		t.Error("top-level list must stay visible")
	}
}

func TestExpandToOpensPath(t *testing.T) {
	records := []model.LabelRecord{
		{ID: "a", Parent: model.RootID},
		{ID: "b", Parent: "a"},
		{ID: "c", Parent: "b", LowestLayer: true},
		{ID: "x", Parent: model.RootID},
		{ID: "y", Parent: "x", LowestLayer: true},
	}
	tt, doc, _ := newTOC(t, records, toc.Options{})

	tt.ExpandTo("c")

	for _, id := range []string{"a", "b"} {
		if m, v := expandedState(t, doc, id); !m || !v {
			t.Errorf("%s should be expanded", id)
		}
	}
	if m, _ := expandedState(t, doc, "x"); m {
		t.Error("x is off the path")
	}
}

func TestSetCaretIsIdempotent(t *testing.T) {
	_, doc, _ := newTOC(t, threeParents(), toc.Options{})
	p := span(t, doc, "p1")

	toc.SetCaret(p, true)
	toc.SetCaret(p, true)
	if !toc.IsExpanded(p) {
		t.Error("expected expanded")
	}
	toc.SetCaret(p, false)
	if toc.IsExpanded(p) {
		t.Error("expected collapsed")
	}
}

func TestExpandedIDsSurviveRebuild(t *testing.T) {
	tt, doc, _ := newTOC(t, threeParents(), toc.Options{})
	tt.HandleClick(span(t, doc, "p1"))
	tt.HandleClick(span(t, doc, "p3"))

	open := tt.ExpandedIDs()
	if !slices.Equal(open, []string{"p1", "p3"}) {
		t.Fatalf("ExpandedIDs = %v", open)
	}

	tt.Rebuild(threeParents())
	if len(tt.ExpandedIDs()) != 0 {
		t.Fatal("rebuild should start collapsed")
	}
	tt.Expand(append(open, "p1a", "ghost")...)
	if got := tt.ExpandedIDs(); !slices.Equal(got, []string{"p1", "p3"}) {
		t.Errorf("after Expand: %v", got)
	}
	if m, v := expandedState(t, doc, "p2"); m || v {
		t.Error("p2 was never opened")
	}
}
