// Package export writes static snapshots of a rendered topic tree: SVG and
// PNG pictures of the outline, the raw HTML markup, or a Markdown list.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/topictree/pkg/dom"
	"github.com/vanderheijden86/topictree/pkg/metrics"
)

// Supported snapshot formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatHTML     = "html"
	FormatMarkdown = "md"
)

// SnapshotOptions controls snapshot export behaviour.
type SnapshotOptions struct {
	Path   string    // Output path; format inferred from extension when Format empty
	Format string    // "svg", "png", "html" or "md". If empty, inferred from Path.
	Title  string    // Header text; defaults to "Topic Tree"
	Root   *dom.Node // Container the table of contents was built into
	// All includes items inside collapsed lists.
	All bool
}

// FormatFromPath infers a format from a file extension, defaulting to SVG.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	case ".html", ".htm":
		return FormatHTML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatSVG
	}
}

// SaveSnapshot renders the tree under opts.Root to opts.Path.
func SaveSnapshot(opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotExport)()

	if opts.Root == nil {
		return fmt.Errorf("no tree to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		format = FormatFromPath(opts.Path)
		if filepath.Ext(opts.Path) == "" {
			opts.Path += "." + format
		}
	}
	switch format {
	case FormatSVG, FormatPNG, FormatHTML, FormatMarkdown:
	default:
		return fmt.Errorf("unsupported format %q (want svg, png, html or md)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	if format == FormatPNG {
		return renderPNG(opts.Path, buildLayout(opts))
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch format {
	case FormatHTML:
		err = WriteHTML(file, opts)
	case FormatMarkdown:
		err = WriteMarkdown(file, opts)
	default:
		err = renderSVGToWriter(file, buildLayout(opts))
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// WriteSVG renders an SVG snapshot to w.
func WriteSVG(w io.Writer, opts SnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("no tree to export")
	}
	return renderSVGToWriter(w, buildLayout(opts))
}

// --- layout computation ----------------------------------------------------

const (
	padding      = 24.0
	headerHeight = 72.0
	rowHeight    = 22.0
	indent       = 24.0
	charWidth    = 7.0
	maxLabelLen  = 60
)

type layoutRow struct {
	dom.Line
	X, Y float64
	// ParentY is the row center of the parent item, or -1 at the top level.
	ParentY float64
}

type layoutResult struct {
	Rows    []layoutRow
	Width   int
	Height  int
	Summary summaryInfo
}

type summaryInfo struct {
	Title       string
	Rows        int
	Highlighted int
	Expanded    bool
}

func buildLayout(opts SnapshotOptions) layoutResult {
	lines := dom.Outline(opts.Root, opts.All)

	rows := make([]layoutRow, len(lines))
	// parentY[d] is the center of the last row seen at depth d.
	var parentY []float64
	widest := 0.0
	highlighted := 0
	for i, l := range lines {
		y := padding + headerHeight + float64(i)*rowHeight
		r := layoutRow{
			Line:    l,
			X:       padding + float64(l.Depth)*indent,
			Y:       y,
			ParentY: -1,
		}
		if l.Depth > 0 && l.Depth <= len(parentY) {
			r.ParentY = parentY[l.Depth-1]
		}
		parentY = append(parentY[:l.Depth], y+rowHeight/2)
		rows[i] = r

		w := r.X + 20 + float64(len([]rune(truncate(l.Text, maxLabelLen))))*charWidth
		widest = max(widest, w)
		if l.Highlighted {
			highlighted++
		}
	}

	width := int(widest + padding)
	if width < 480 {
		width = 480
	}
	height := int(padding*2 + headerHeight + float64(len(rows))*rowHeight)
	if height < 160 {
		height = 160
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Topic Tree"
	}

	return layoutResult{
		Rows:   rows,
		Width:  width,
		Height: height,
		Summary: summaryInfo{
			Title:       title,
			Rows:        len(rows),
			Highlighted: highlighted,
			Expanded:    opts.All,
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorText       = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorFaded      = color.RGBA{0xaa, 0xaa, 0xaa, 0xff}
	colorConnector  = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorHighlight  = color.RGBA{0xff, 0xf3, 0xc4, 0xff}
	colorMarker     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorBackdrop   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorUnlabeled  = color.RGBA{0x99, 0x99, 0x99, 0xff}
	colorHighlightT = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

func rowTextColor(r layoutRow) color.RGBA {
	switch {
	case r.Unlabeled:
		return colorUnlabeled
	case r.Highlighted:
		return colorHighlightT
	default:
		return colorFaded
	}
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(layout.Width)-24, headerHeight-8, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, layout)

	dc.SetColor(colorConnector)
	dc.SetLineWidth(1)
	for _, r := range layout.Rows {
		if r.ParentY < 0 {
			continue
		}
		x := r.X - indent/2
		dc.DrawLine(x, r.ParentY+rowHeight/2-4, x, r.Y+rowHeight/2)
		dc.DrawLine(x, r.Y+rowHeight/2, r.X, r.Y+rowHeight/2)
		dc.Stroke()
	}

	for _, r := range layout.Rows {
		if r.Highlighted {
			dc.SetColor(colorHighlight)
			dc.DrawRoundedRectangle(r.X-4, r.Y+2, float64(len([]rune(truncate(r.Text, maxLabelLen))))*charWidth+28, rowHeight-4, 4)
			dc.Fill()
		}
		dc.SetColor(colorMarker)
		drawMarker(dc, r)
		dc.SetColor(rowTextColor(r))
		dc.DrawStringAnchored(truncate(r.Text, maxLabelLen), r.X+16, r.Y+rowHeight/2, 0, 0.35)
	}

	return dc.SavePNG(path)
}

// drawMarker paints the bullet or caret shape; basicfont has no glyphs for them.
func drawMarker(dc *gg.Context, r layoutRow) {
	cx, cy := r.X+5, r.Y+rowHeight/2
	switch {
	case !r.Caret:
		dc.DrawCircle(cx, cy, 2.5)
	case r.Expanded:
		dc.NewSubPath()
		dc.MoveTo(cx-4, cy-3)
		dc.LineTo(cx+4, cy-3)
		dc.LineTo(cx, cy+3)
		dc.ClosePath()
	default:
		dc.NewSubPath()
		dc.MoveTo(cx-3, cy-4)
		dc.LineTo(cx+3, cy)
		dc.LineTo(cx-3, cy+4)
		dc.ClosePath()
	}
	dc.Fill()
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 28, 34, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(summaryLine(layout.Summary), 28, 56, 0, 0.5)
}

func summaryLine(s summaryInfo) string {
	view := "visible items"
	if s.Expanded {
		view = "all items"
	}
	return fmt.Sprintf("%s: %d  highlighted: %d", view, s.Rows, s.Highlighted)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, layout.Width-24, int(headerHeight-8), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(28, 38, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(28, 60, summaryLine(layout.Summary), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:1;fill:none", css(colorConnector)))
	for _, r := range layout.Rows {
		if r.ParentY < 0 {
			continue
		}
		x := int(r.X - indent/2)
		mid := int(r.Y + rowHeight/2)
		canvas.Polyline([]int{x, x, int(r.X)}, []int{int(r.ParentY + rowHeight/2 - 4), mid, mid})
	}
	canvas.Gend()

	for _, r := range layout.Rows {
		x := int(r.X)
		y := int(r.Y)
		text := truncate(r.Text, maxLabelLen)
		classes := "toc-row"
		if r.Highlighted {
			classes += " highlighted"
			canvas.Roundrect(x-4, y+2, len([]rune(text))*int(charWidth)+28, int(rowHeight-4), 4, 4,
				fmt.Sprintf("fill:%s", css(colorHighlight)))
		}
		if r.Unlabeled {
			classes += " unlabeled"
		}
		canvas.Text(x, y+15, r.Glyph(), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorMarker)))
		// svgo passes arguments containing "=" through as raw attributes.
		canvas.Text(x+16, y+15, text,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(rowTextColor(r))),
			fmt.Sprintf(`class="%s" data-element-id="%s"`, classes, escapeAttr(r.ID)))
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escapeAttr(s string) string {
	return strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;").Replace(s)
}
