package toc_test

import (
	"os"
	"testing"

	"github.com/vanderheijden86/topictree/pkg/dom"
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/testutil"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

func TestMain(m *testing.M) {
	metrics.SetEnabled(false)
	os.Exit(m.Run())
}

type transition struct {
	center   toc.Point
	zoom     float64
	duration int
}

// recordingView frames bounds at their center with a fixed zoom and records
// every requested transition.
type recordingView struct {
	size        toc.Size
	transitions []transition
	framed      []model.Bounds
}

func (v *recordingView) ViewportSize() toc.Size { return v.size }

func (v *recordingView) ComputeFraming(b model.Bounds, _ toc.Size) toc.Framing {
	v.framed = append(v.framed, b)
	x, y := b.Center()
	return toc.Framing{Center: toc.Point{X: x, Y: y}, Zoom: 3}
}

func (v *recordingView) RequestViewTransition(center toc.Point, zoom float64, durationMs int) {
	v.transitions = append(v.transitions, transition{center, zoom, durationMs})
}

func newTOC(t *testing.T, records []model.LabelRecord, opts toc.Options) (*toc.TableOfContents, *dom.Document, *recordingView) {
	t.Helper()
	doc := dom.NewDocument()
	view := &recordingView{size: toc.Size{Width: 800, Height: 600}}
	return toc.New(doc, view, records, opts), doc, view
}

func span(t *testing.T, doc *dom.Document, id string) *dom.Node {
	t.Helper()
	for _, el := range doc.FindAllWithAttribute(toc.AttrElementID) {
		if v, _ := el.Attr(toc.AttrElementID); v == id {
			return el.(*dom.Node)
		}
	}
	t.Fatalf("no display node for %s", id)
	return nil
}

func labelFor(t *testing.T, doc *dom.Document, id string) *dom.Node {
	t.Helper()
	for _, n := range doc.QueryAll("span.toc-label") {
		if v, _ := n.Attr(toc.AttrLabelID); v == id {
			return n
		}
	}
	t.Fatalf("no label for %s", id)
	return nil
}

func TestScenarioHierarchyAndHighlight(t *testing.T) {
	tt, doc, _ := newTOC(t, testutil.ScenarioRecords(), toc.Options{SkipInitialHighlight: true})

	h := tt.Hierarchy()
	testutil.AssertSameIDs(t, []string{"base-1"}, recordIDs(h.Children(model.RootID)))
	testutil.AssertSameIDs(t, []string{"A"}, recordIDs(h.Children("base-1")))

	if got := tt.Highlighted(); len(got) != 0 {
		t.Fatalf("expected nothing highlighted, got %v", got)
	}

	st := tt.Highlight([]model.LabelRecord{testutil.ScenarioRecords()[1]})
	testutil.AssertSameIDs(t, []string{"base-1", "A"}, tt.Highlighted())
	if st.Marked != 2 {
		t.Errorf("expected 2 marks, got %+v", st)
	}
	if !span(t, doc, "A").HasClass(toc.ClassHighlighted) {
		t.Error("A should be highlighted")
	}
}

func TestConstructionHighlightsEverything(t *testing.T) {
	records := testutil.QuickTree(2, 2)
	tt, _, _ := newTOC(t, records, toc.Options{})

	if got := len(tt.Highlighted()); got != len(records) {
		t.Errorf("expected %d highlighted after construction, got %d", len(records), got)
	}
}

func TestRenderStructure(t *testing.T) {
	tt, doc, _ := newTOC(t, testutil.ScenarioRecords(), toc.Options{})

	header := doc.QueryOne(".toc-header")
	if header == nil {
		t.Fatal("missing header")
	}
	if title := doc.QueryAll("h3"); len(title) != 1 || title[0].Text() != toc.DefaultTitle {
		t.Errorf("unexpected title %v", title)
	}
	btn := tt.ExpandAllControl()
	if btn.Text() != toc.LabelExpandAll {
		t.Errorf("button text = %q", btn.Text())
	}
	if v, _ := btn.Attr(toc.AttrExpanded); v != "false" {
		t.Errorf("data-expanded = %q, want false", v)
	}

	lists := doc.QueryAll("ul.nested")
	if len(lists) != 2 {
		t.Fatalf("expected 2 nested lists, got %d", len(lists))
	}
	if !lists[0].HasClass(toc.ClassActive) {
		t.Error("top-level list should be visible")
	}
	if lists[1].HasClass(toc.ClassActive) {
		t.Error("inner lists start collapsed")
	}

	caret := span(t, doc, "base-1")
	if !caret.HasClass(toc.ClassCaret) || !caret.HasClass(toc.ClassUnlabeled) {
		t.Errorf("base-1 classes = %v", caret.Classes())
	}
	label := labelFor(t, doc, "base-1")
	if b, _ := label.Attr(toc.AttrBounds); b != "[0,0,10,10]" {
		t.Errorf("data-bounds = %q", b)
	}
	if label.Text() != "base-1" {
		t.Errorf("label should fall back to id, got %q", label.Text())
	}
}

func TestLeafRendersBulletWithoutNestedList(t *testing.T) {
	records := []model.LabelRecord{
		{ID: "leaf-1", Parent: model.RootID, LowestLayer: true},
	}
	_, doc, _ := newTOC(t, records, toc.Options{})

	leaf := span(t, doc, "leaf-1")
	if !leaf.HasClass(toc.ClassBullet) || leaf.HasClass(toc.ClassCaret) {
		t.Errorf("expected bullet marker, got %v", leaf.Classes())
	}
	if leaf.NextSiblingMatching(".nested") != nil {
		t.Error("leaf should have no nested list")
	}
	if got := len(doc.QueryAll("ul")); got != 1 {
		t.Errorf("expected only the top-level list, got %d lists", got)
	}
}

func TestLowestLayerParentStillRendersChildren(t *testing.T) {
	records := []model.LabelRecord{
		{ID: "p", Parent: model.RootID, LowestLayer: true},
		{ID: "c", Parent: "p", LowestLayer: true},
	}
	_, doc, _ := newTOC(t, records, toc.Options{})

	p := span(t, doc, "p")
	if !p.HasClass(toc.ClassBullet) {
		t.Error("lowest_layer record renders a bullet")
	}
	if p.NextSiblingMatching(".nested") == nil {
		t.Error("children should still be rendered under a lowest_layer record")
	}
	span(t, doc, "c")
}

func TestButtonsAndCallback(t *testing.T) {
	tt, doc, _ := newTOC(t, testutil.ScenarioRecords(), toc.Options{Buttons: true, ButtonIcon: "@"})

	btns := doc.QueryAll("button.toc-btn")
	if len(btns) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(btns))
	}
	if btns[0].Text() != "@" {
		t.Errorf("icon = %q", btns[0].Text())
	}

	if tt.HandleClick(btns[1]) {
		t.Error("click without a callback should not be handled")
	}
	var got string
	tt.OnButton(func(id string) { got = id })
	if !tt.HandleClick(btns[1]) || got != "A" {
		t.Errorf("callback got %q", got)
	}
}

func TestLabelClickZooms(t *testing.T) {
	tt, doc, view := newTOC(t, testutil.ScenarioRecords(), toc.Options{})

	if !tt.HandleClick(labelFor(t, doc, "A")) {
		t.Fatal("label click not handled")
	}
	if len(view.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(view.transitions))
	}
	tr := view.transitions[0]
	if tr.duration != toc.DefaultTransitionMs {
		t.Errorf("duration = %d, want %d", tr.duration, toc.DefaultTransitionMs)
	}
	if tr.center != (toc.Point{X: 1, Y: 2}) || tr.zoom != 3 {
		t.Errorf("unexpected transition %+v", tr)
	}
	if view.framed[0] != (model.Bounds{1, 1, 2, 2}) {
		t.Errorf("framed %v", view.framed[0])
	}
}

func TestZoomUsesConfiguredDuration(t *testing.T) {
	tt, _, view := newTOC(t, testutil.ScenarioRecords(), toc.Options{TransitionMs: 250})

	if !tt.ZoomToID("base-1") {
		t.Fatal("known id should zoom")
	}
	if tt.ZoomToID("nope") {
		t.Error("unknown id should not zoom")
	}
	if len(view.transitions) != 1 || view.transitions[0].duration != 250 {
		t.Errorf("unexpected transitions %+v", view.transitions)
	}
}

func TestLabelClickWithBadBoundsIsIgnored(t *testing.T) {
	tt, doc, view := newTOC(t, testutil.ScenarioRecords(), toc.Options{})

	label := labelFor(t, doc, "A")
	label.SetAttr(toc.AttrBounds, "not json")
	if tt.HandleClick(label) {
		t.Error("bad bounds should not be handled")
	}
	if len(view.transitions) != 0 {
		t.Error("no transition expected")
	}
}

func TestHandleClickIgnoresOtherElements(t *testing.T) {
	tt, doc, _ := newTOC(t, testutil.ScenarioRecords(), toc.Options{})
	if tt.HandleClick(span(t, doc, "A")) {
		t.Error("bullet clicks have no handler")
	}
	if tt.HandleClick(nil) {
		t.Error("nil click should not be handled")
	}
}

func TestRootLayerNo(t *testing.T) {
	tt, _, _ := newTOC(t, testutil.QuickChain(5), toc.Options{})
	if tt.RootLayerNo() != 4 {
		t.Errorf("root layer = %d, want 4", tt.RootLayerNo())
	}
}

func TestRebuildReplacesTree(t *testing.T) {
	tt, doc, _ := newTOC(t, testutil.ScenarioRecords(), toc.Options{})
	tt.ToggleAll()

	tt.Rebuild(testutil.QuickTree(1, 3))

	if got := len(doc.QueryAll(".toc-header")); got != 1 {
		t.Errorf("expected a single header after rebuild, got %d", got)
	}
	if tt.AllExpanded() {
		t.Error("rebuild resets the aggregate state")
	}
	if _, ok := tt.Spans().Get("A"); ok {
		t.Error("old span survived rebuild")
	}
	if tt.Spans().Len() != 4 || tt.Chains().Len() != 4 {
		t.Errorf("caches not rebuilt: spans=%d chains=%d", tt.Spans().Len(), tt.Chains().Len())
	}
}

func TestNewPanicsOnNilCollaborators(t *testing.T) {
	assertPanics(t, func() { toc.New(nil, &recordingView{}, nil, toc.Options{}) })
	assertPanics(t, func() { toc.New(dom.NewDocument(), nil, nil, toc.Options{}) })
}

// blindSurface never finds anything through QueryOne.
type blindSurface struct{ *dom.Document }

func (blindSurface) QueryOne(string) toc.Element { return nil }

func TestNewPanicsWhenControlsMissing(t *testing.T) {
	assertPanics(t, func() {
		toc.New(blindSurface{dom.NewDocument()}, &recordingView{}, testutil.ScenarioRecords(), toc.Options{})
	})
}

func TestEmptyRecords(t *testing.T) {
	tt, doc, _ := newTOC(t, nil, toc.Options{})
	if len(doc.QueryAll("ul")) != 0 {
		t.Error("no records means no list")
	}
	if tt.Body() == nil || tt.RootLayerNo() != 0 {
		t.Error("body should exist even when empty")
	}
	if tt.ToggleAll() != true {
		t.Error("toggle still flips the aggregate")
	}
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

func recordIDs(recs []*model.LabelRecord) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}
