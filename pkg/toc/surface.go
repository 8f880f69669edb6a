package toc

import "github.com/vanderheijden86/topictree/pkg/model"

// Element is one node of the UI tree the table of contents is drawn into.
// Implementations return a nil interface (not a typed nil) when a lookup misses.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	AddClass(tag string)
	RemoveClass(tag string)
	HasClass(tag string) bool
	ToggleClass(tag string)
	Text() string
	SetText(text string)
	AppendChild(child Element)
	RemoveChildren()
	// NextSiblingMatching returns the first following sibling matching a
	// simple selector such as ".nested" or "ul.nested".
	NextSiblingMatching(selector string) Element
}

// Surface is the query and construction side of the UI tree.
type Surface interface {
	// Root is the container the table of contents owns.
	Root() Element
	CreateElement(tag string) Element
	FindAllWithAttribute(name string) []Element
	FindAllWithClass(tag string) []Element
	// QueryOne returns the first element matching selector, or nil.
	QueryOne(selector string) Element
}

// Point is a position in data coordinates.
type Point struct {
	X, Y float64
}

// Size is a viewport size in pixels (or cells for terminal renderers).
type Size struct {
	Width, Height float64
}

// Framing is the camera placement that fits a bounding box into a viewport.
type Framing struct {
	Center Point
	Zoom   float64
}

// MapView is the rendering surface that owns the camera.
type MapView interface {
	ViewportSize() Size
	ComputeFraming(bounds model.Bounds, viewport Size) Framing
	// RequestViewTransition starts an animated camera move. It must not block.
	RequestViewTransition(center Point, zoom float64, durationMs int)
}

// Attribute and class names shared with presentation layers.
const (
	AttrElementID = "data-element-id"
	AttrLabelID   = "data-label-id"
	AttrBounds    = "data-bounds"
	AttrExpanded  = "data-expanded"

	ClassCaret       = "caret"
	ClassCaretDown   = "caret-down"
	ClassBullet      = "bullet"
	ClassUnlabeled   = "unlabeled"
	ClassNested      = "nested"
	ClassActive      = "active"
	ClassHighlighted = "highlighted"
	ClassLabel       = "toc-label"
	ClassButton      = "toc-btn"
	ClassHeader      = "toc-header"
	ClassExpandAll   = "expand-all-btn"

	BodyID = "toc-body"
)
