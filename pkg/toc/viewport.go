package toc

import (
	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// DefaultTransitionMs is the camera animation length for label zooms.
const DefaultTransitionMs = 1000

// ZoomToLabel frames bounds in the current viewport and asks the map view to
// animate there. It does not wait for the transition.
func (t *TableOfContents) ZoomToLabel(bounds model.Bounds, id string) {
	size := t.view.ViewportSize()
	f := t.view.ComputeFraming(bounds, size)
	debug.Log("zoom to %s: center=(%.3f,%.3f) zoom=%.3f", id, f.Center.X, f.Center.Y, f.Zoom)
	t.view.RequestViewTransition(f.Center, f.Zoom, t.opts.TransitionMs)
}

// ZoomToID zooms to the record with the given id. It reports false when the
// id is unknown.
func (t *TableOfContents) ZoomToID(id string) bool {
	rec, ok := t.hierarchy.Record(id)
	if !ok {
		return false
	}
	t.ZoomToLabel(rec.Bounds, rec.ID)
	return true
}
