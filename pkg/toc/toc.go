// Package toc builds and drives the "Topic Tree" table of contents for a set
// of labeled map regions.
//
// A TableOfContents owns a container on a Surface. Construction renders the
// header, the expand-all control and the nested label tree, builds the span
// and ancestor-chain caches, and highlights every record. Afterwards click
// events are dispatched through HandleClick, and highlight state is driven by
// Highlight or HighlightIDs.
//
// All methods must be called from a single goroutine (the UI event loop).
package toc

import (
	"fmt"

	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// DefaultTitle is the header text.
const DefaultTitle = "Topic Tree"

// Options control how the tree is rendered and how it talks to the map view.
type Options struct {
	Title        string
	Buttons      bool   // render a toc-btn before each label
	ButtonIcon   string // text of each toc-btn
	TransitionMs int    // view transition duration for label zooms

	// SkipInitialHighlight leaves every node unhighlighted after construction.
	SkipInitialHighlight bool
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.TransitionMs <= 0 {
		o.TransitionMs = DefaultTransitionMs
	}
	return o
}

// TableOfContents is the tree widget.
type TableOfContents struct {
	surface Surface
	view    MapView
	opts    Options

	hierarchy   *Hierarchy
	spans       SpanCache
	chains      ChainCache
	expandAll   Element
	body        Element
	rootLayerNo int

	onButton func(id string)
}

// New renders records into surface's root container and returns the widget.
// It panics if surface or view is nil, or if the surface does not yield the
// controls it was asked to create.
func New(surface Surface, view MapView, records []model.LabelRecord, opts Options) *TableOfContents {
	if surface == nil {
		panic("toc: nil surface")
	}
	if view == nil {
		panic("toc: nil map view")
	}
	t := &TableOfContents{
		surface: surface,
		view:    view,
		opts:    opts.withDefaults(),
	}
	t.build(records)
	return t
}

// Rebuild discards the rendered tree and both caches and constructs them again
// from records. Expand and highlight state is not carried over.
func (t *TableOfContents) Rebuild(records []model.LabelRecord) {
	t.build(records)
}

func (t *TableOfContents) build(records []model.LabelRecord) {
	defer debug.LogEnterExit("toc.build")()

	t.hierarchy = BuildHierarchy(records)
	t.rootLayerNo = model.RootLayerNo(records)

	root := t.surface.Root()
	root.RemoveChildren()

	header := t.surface.CreateElement("div")
	header.AddClass(ClassHeader)
	title := t.surface.CreateElement("h3")
	title.SetText(t.opts.Title)
	header.AppendChild(title)
	btn := t.surface.CreateElement("button")
	btn.AddClass(ClassExpandAll)
	btn.SetAttr(AttrExpanded, "false")
	btn.SetText(LabelExpandAll)
	header.AppendChild(btn)
	root.AppendChild(header)

	body := t.surface.CreateElement("div")
	body.SetAttr("id", BodyID)
	root.AppendChild(body)

	r := &renderer{
		surface: t.surface,
		h:       t.hierarchy,
		opts:    t.opts,
		visited: map[string]bool{model.RootID: true},
	}
	if top := r.render(body, model.RootID); top != nil {
		top.AddClass(ClassActive)
	}

	t.expandAll = t.mustFind("." + ClassExpandAll)
	t.body = t.mustFind("#" + BodyID)

	t.spans.Rebuild(t.surface)
	t.chains.Rebuild(t.hierarchy)
	debug.Log("toc: %d records, %d display nodes, %d spans, %d chains",
		t.hierarchy.Len(), r.nodes, t.spans.Len(), t.chains.Len())

	if !t.opts.SkipInitialHighlight {
		t.HighlightAll()
	}
}

func (t *TableOfContents) mustFind(selector string) Element {
	el := t.surface.QueryOne(selector)
	if el == nil {
		panic(fmt.Sprintf("toc: %s not found in container", selector))
	}
	return el
}

// OnButton registers the callback for toc-btn clicks.
func (t *TableOfContents) OnButton(fn func(id string)) {
	t.onButton = fn
}

// HandleClick dispatches a click on el to the matching handler and reports
// whether any handler ran.
func (t *TableOfContents) HandleClick(el Element) bool {
	if el == nil {
		return false
	}
	switch {
	case el.HasClass(ClassExpandAll):
		t.ToggleAll()
	case el.HasClass(ClassCaret):
		ToggleCaret(el)
	case el.HasClass(ClassLabel):
		raw, _ := el.Attr(AttrBounds)
		bounds, err := DecodeBounds(raw)
		if err != nil {
			debug.Log("toc: bad %s %q: %v", AttrBounds, raw, err)
			return false
		}
		id, _ := el.Attr(AttrLabelID)
		t.ZoomToLabel(bounds, id)
	case el.HasClass(ClassButton):
		if t.onButton == nil {
			return false
		}
		id, _ := el.Attr(AttrLabelID)
		t.onButton(id)
	default:
		return false
	}
	return true
}

// Hierarchy returns the parent->children index.
func (t *TableOfContents) Hierarchy() *Hierarchy { return t.hierarchy }

// Spans returns the id->display node cache.
func (t *TableOfContents) Spans() *SpanCache { return &t.spans }

// Chains returns the id->ancestor chain cache.
func (t *TableOfContents) Chains() *ChainCache { return &t.chains }

// Body returns the #toc-body container.
func (t *TableOfContents) Body() Element { return t.body }

// ExpandAllControl returns the expand-all button.
func (t *TableOfContents) ExpandAllControl() Element { return t.expandAll }

// RootLayerNo is the largest layer_no across the records.
func (t *TableOfContents) RootLayerNo() int { return t.rootLayerNo }

// Options returns the effective options.
func (t *TableOfContents) Options() Options { return t.opts }
