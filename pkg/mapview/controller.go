// Package mapview is a headless map view controller: it owns a camera over
// data coordinates, fits bounding boxes into the viewport and animates camera
// transitions. The zoom scale follows web-map convention, one data unit is
// 2^zoom viewport units.
package mapview

import (
	"math"
	"sync"
	"time"

	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

// Camera is the current view placement.
type Camera struct {
	Center toc.Point
	Zoom   float64
}

// Options configure framing.
type Options struct {
	Padding float64 // fraction of the viewport left empty around framed bounds
	MinZoom float64
	MaxZoom float64
}

// DefaultOptions returns the framing defaults.
func DefaultOptions() Options {
	return Options{Padding: 0.1, MinZoom: -8, MaxZoom: 20}
}

// Transition is an in-flight camera animation.
type Transition struct {
	From     Camera
	To       Camera
	Start    time.Time
	Duration time.Duration
}

// Progress returns the completed fraction at now, clamped to [0, 1].
func (tr Transition) Progress(now time.Time) float64 {
	if tr.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(tr.Start)) / float64(tr.Duration)
	return math.Max(0, math.Min(1, p))
}

// At returns the interpolated camera at now, eased in and out.
func (tr Transition) At(now time.Time) Camera {
	p := easeInOut(tr.Progress(now))
	return Camera{
		Center: toc.Point{
			X: lerp(tr.From.Center.X, tr.To.Center.X, p),
			Y: lerp(tr.From.Center.Y, tr.To.Center.Y, p),
		},
		Zoom: lerp(tr.From.Zoom, tr.To.Zoom, p),
	}
}

// Controller implements toc.MapView. It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	size     toc.Size
	opts     Options
	camera   Camera
	active   *Transition
	requests int
	now      func() time.Time
}

var _ toc.MapView = (*Controller)(nil)

// New returns a controller with the given viewport size, centered on the origin.
func New(size toc.Size, opts Options) *Controller {
	if opts.MaxZoom <= opts.MinZoom {
		d := DefaultOptions()
		opts.MinZoom, opts.MaxZoom = d.MinZoom, d.MaxZoom
	}
	opts.Padding = math.Max(0, math.Min(0.9, opts.Padding))
	return &Controller{size: size, opts: opts, now: time.Now}
}

// SetClock replaces the time source. Tests use it to step animations.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ViewportSize returns the current viewport size.
func (c *Controller) ViewportSize() toc.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// SetViewportSize updates the viewport, e.g. after a terminal resize.
func (c *Controller) SetViewportSize(size toc.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
}

// ComputeFraming returns the center of bounds and the largest zoom at which
// the padded bounds still fit inside viewport. Degenerate extents fall back
// to the other axis, or to MaxZoom for a single point.
func (c *Controller) ComputeFraming(bounds model.Bounds, viewport toc.Size) toc.Framing {
	x, y := bounds.Center()
	f := toc.Framing{Center: toc.Point{X: x, Y: y}, Zoom: c.opts.MaxZoom}

	usable := 1 - c.opts.Padding
	vw, vh := viewport.Width*usable, viewport.Height*usable
	if vw <= 0 || vh <= 0 {
		f.Zoom = c.opts.MinZoom
		return f
	}

	scale := math.Inf(1)
	if w := bounds.Width(); w > 0 {
		scale = vw / w
	}
	if h := bounds.Height(); h > 0 {
		scale = math.Min(scale, vh/h)
	}
	if !math.IsInf(scale, 1) {
		f.Zoom = math.Log2(scale)
	}
	f.Zoom = math.Max(c.opts.MinZoom, math.Min(c.opts.MaxZoom, f.Zoom))
	return f
}

// RequestViewTransition starts animating from the current camera to the
// target and returns immediately. A request made mid-flight starts from the
// interpolated camera.
func (c *Controller) RequestViewTransition(center toc.Point, zoom float64, durationMs int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	from := c.cameraAt(now)
	c.camera = from
	c.requests++
	c.active = &Transition{
		From:     from,
		To:       Camera{Center: center, Zoom: zoom},
		Start:    now,
		Duration: time.Duration(durationMs) * time.Millisecond,
	}
	debug.Log("mapview: transition #%d to (%.3f,%.3f)@%.2f over %dms", c.requests, center.X, center.Y, zoom, durationMs)
	if durationMs <= 0 {
		c.camera = c.active.To
		c.active = nil
	}
}

// Step advances the animation to the current time and reports whether a
// transition is still running.
func (c *Controller) Step() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return false
	}
	now := c.now()
	c.camera = c.active.At(now)
	if c.active.Progress(now) >= 1 {
		c.camera = c.active.To
		c.active = nil
		return false
	}
	return true
}

// Camera returns the camera as of the last Step.
func (c *Controller) Camera() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera
}

// Jump places the camera immediately, cancelling any transition.
func (c *Controller) Jump(cam Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera = cam
	c.active = nil
}

// Active returns the in-flight transition, if any.
func (c *Controller) Active() (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Transition{}, false
	}
	return *c.active, true
}

// Progress returns the fraction of the in-flight transition completed, or 1.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 1
	}
	return c.active.Progress(c.now())
}

// Requests returns how many transitions have been requested.
func (c *Controller) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// Project maps a data point to viewport coordinates under the current
// camera. Viewport y grows downward.
func (c *Controller) Project(p toc.Point) toc.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := math.Exp2(c.camera.Zoom)
	return toc.Point{
		X: (p.X-c.camera.Center.X)*s + c.size.Width/2,
		Y: c.size.Height/2 - (p.Y-c.camera.Center.Y)*s,
	}
}

// Visible returns the data-space bounds currently in view.
func (c *Controller) Visible() model.Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := math.Exp2(c.camera.Zoom)
	hw, hh := c.size.Width/2/s, c.size.Height/2/s
	return model.Bounds{
		c.camera.Center.X - hw, c.camera.Center.X + hw,
		c.camera.Center.Y - hh, c.camera.Center.Y + hh,
	}
}

// FitAll frames the union of every record's bounds without animating.
func (c *Controller) FitAll(records []model.LabelRecord) {
	if len(records) == 0 {
		return
	}
	all := records[0].Bounds
	for _, r := range records[1:] {
		all = all.Union(r.Bounds)
	}
	f := c.ComputeFraming(all, c.ViewportSize())
	c.Jump(Camera{Center: f.Center, Zoom: f.Zoom})
}

func (c *Controller) cameraAt(now time.Time) Camera {
	if c.active == nil {
		return c.camera
	}
	return c.active.At(now)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func easeInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}
