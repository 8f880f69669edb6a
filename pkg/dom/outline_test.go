package dom

import (
	"testing"

	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/testutil"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

type stillView struct{}

func (stillView) ViewportSize() toc.Size { return toc.Size{Width: 100, Height: 100} }
func (stillView) ComputeFraming(model.Bounds, toc.Size) toc.Framing {
	return toc.Framing{}
}
func (stillView) RequestViewTransition(toc.Point, float64, int) {}

func TestOutlineFollowsExpandState(t *testing.T) {
	d := NewDocument()
	tree := toc.New(d, stillView{}, testutil.ScenarioRecords(), toc.Options{Buttons: true})

	lines := Outline(d.RootNode(), false)
	if len(lines) != 1 {
		t.Fatalf("collapsed outline should show only the top level, got %d lines", len(lines))
	}
	top := lines[0]
	if top.ID != "base-1" || !top.Caret || top.Expanded || !top.Highlighted {
		t.Errorf("unexpected top line %+v", top)
	}
	if top.Button == nil || top.Label == nil || top.Marker == nil {
		t.Error("expected marker, button and label nodes")
	}
	if top.Glyph() != "▸" {
		t.Errorf("collapsed caret glyph = %q", top.Glyph())
	}

	all := Outline(d.RootNode(), true)
	if len(all) != 2 || all[1].ID != "A" || all[1].Depth != 1 || all[1].Caret {
		t.Fatalf("unexpected full outline %+v", all)
	}
	if all[1].Glyph() != "•" {
		t.Errorf("leaf glyph = %q", all[1].Glyph())
	}

	tree.ToggleAll()
	lines = Outline(d.RootNode(), false)
	if len(lines) != 2 || !lines[0].Expanded || lines[0].Glyph() != "▾" {
		t.Errorf("expanded outline = %+v", lines)
	}
}

func TestOutlineEmpty(t *testing.T) {
	d := NewDocument()
	toc.New(d, stillView{}, nil, toc.Options{})
	if lines := Outline(d.RootNode(), true); len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}
}
