package mapview

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

func genBounds(t *rapid.T) model.Bounds {
	x := rapid.Float64Range(-1e4, 1e4).Draw(t, "x")
	y := rapid.Float64Range(-1e4, 1e4).Draw(t, "y")
	w := rapid.Float64Range(0, 1e3).Draw(t, "w")
	h := rapid.Float64Range(0, 1e3).Draw(t, "h")
	return model.Bounds{x, x + w, y, y + h}
}

// A framed label is fully visible unless the zoom hit MinZoom.
func TestFramingKeepsBoundsVisible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := toc.Size{
			Width:  rapid.Float64Range(10, 2000).Draw(t, "vw"),
			Height: rapid.Float64Range(10, 2000).Draw(t, "vh"),
		}
		opts := Options{Padding: rapid.Float64Range(0, 0.5).Draw(t, "pad"), MinZoom: -8, MaxZoom: 20}
		c := New(size, opts)
		b := genBounds(t)

		f := c.ComputeFraming(b, size)
		if f.Zoom < opts.MinZoom || f.Zoom > opts.MaxZoom {
			t.Fatalf("zoom %v outside [%v, %v]", f.Zoom, opts.MinZoom, opts.MaxZoom)
		}
		if f.Zoom == opts.MinZoom {
			return
		}
		c.Jump(Camera{Center: f.Center, Zoom: f.Zoom})
		v := c.Visible()
		const eps = 1e-6
		if b.MinX() < v.MinX()-eps || b.MaxX() > v.MaxX()+eps || b.MinY() < v.MinY()-eps || b.MaxY() > v.MaxY()+eps {
			t.Fatalf("bounds %v not inside visible %v (zoom %v)", b, v, f.Zoom)
		}
	})
}

// Transitions always land exactly on the last requested target.
func TestTransitionsLandOnLastTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(0, 0)
		c := New(toc.Size{Width: 800, Height: 600}, DefaultOptions())
		c.SetClock(func() time.Time { return now })

		n := rapid.IntRange(1, 5).Draw(t, "requests")
		var last toc.Point
		var lastZoom float64
		for i := 0; i < n; i++ {
			last = toc.Point{X: rapid.Float64Range(-100, 100).Draw(t, "tx"), Y: rapid.Float64Range(-100, 100).Draw(t, "ty")}
			lastZoom = rapid.Float64Range(-8, 20).Draw(t, "tz")
			c.RequestViewTransition(last, lastZoom, rapid.IntRange(0, 2000).Draw(t, "ms"))
			now = now.Add(time.Duration(rapid.IntRange(0, 500).Draw(t, "gap")) * time.Millisecond)
			c.Step()
		}
		if c.Requests() != n {
			t.Fatalf("requests = %d, want %d", c.Requests(), n)
		}

		now = now.Add(3 * time.Second)
		c.Step()
		cam := c.Camera()
		if !approx(cam.Center.X, last.X) || !approx(cam.Center.Y, last.Y) || !approx(cam.Zoom, lastZoom) {
			t.Fatalf("camera %+v, want %v zoom %v", cam, last, lastZoom)
		}
		if _, active := c.Active(); active {
			t.Fatal("transition should be finished")
		}
	})
}
