package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/vanderheijden86/topictree/pkg/mapview"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
)

// mapInfoRows is the number of text rows above the plot.
const mapInfoRows = 4

// MapModel draws the camera of a mapview.Controller as a character plot.
// The controller's viewport is the plot itself, one unit per cell, so
// Project returns cell coordinates directly.
type MapModel struct {
	theme  Theme
	view   *mapview.Controller
	width  int
	height int
}

// NewMapModel wraps view.
func NewMapModel(theme Theme, view *mapview.Controller) MapModel {
	return MapModel{theme: theme, view: view}
}

// SetSize sets the pane size and resizes the controller's viewport to the plot.
func (p *MapModel) SetSize(width, height int) {
	p.width = width
	p.height = height
	w, h := p.plotSize()
	p.view.SetViewportSize(toc.Size{Width: float64(w), Height: float64(h)})
}

func (p *MapModel) plotSize() (int, int) {
	return max(p.width, 1), max(p.height-mapInfoRows, 1)
}

// View renders the camera summary and plots the centers of the highlighted
// records. The record with id selected is drawn with the cursor glyph.
func (p MapModel) View(records []model.LabelRecord, highlighted func(id string) bool, selected string) string {
	cam := p.view.Camera()
	vis := p.view.Visible()

	var sb strings.Builder
	sb.WriteString(p.theme.InfoText.Render(truncate(
		fmt.Sprintf("center (%s, %s)  zoom %.2f", formatCoord(cam.Center.X), formatCoord(cam.Center.Y), cam.Zoom), p.width)))
	sb.WriteString("\n")
	sb.WriteString(p.theme.MutedText.Render(truncate(
		fmt.Sprintf("x %s..%s  y %s..%s", formatCoord(vis.MinX()), formatCoord(vis.MaxX()), formatCoord(vis.MinY()), formatCoord(vis.MaxY())), p.width)))
	sb.WriteString("\n")
	if _, ok := p.view.Active(); ok {
		barWidth := max(p.width-14, 4)
		sb.WriteString(truncate(fmt.Sprintf("moving %s %3.0f%%", progressBar(p.view.Progress(), barWidth), p.view.Progress()*100), p.width))
	} else {
		sb.WriteString(p.theme.MutedText.Render(truncate(fmt.Sprintf("%d transitions", p.view.Requests()), p.width)))
	}
	sb.WriteString("\n")
	sb.WriteString(p.theme.MutedText.Render(strings.Repeat("─", max(p.width, 1))))
	sb.WriteString("\n")
	sb.WriteString(p.plot(records, highlighted, selected))
	return sb.String()
}

func (p MapModel) plot(records []model.LabelRecord, highlighted func(id string) bool, selected string) string {
	w, h := p.plotSize()
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}
	cursorX, cursorY := -1, -1
	for _, r := range records {
		isSel := r.ID == selected
		if !isSel && !highlighted(r.ID) {
			continue
		}
		x, y := r.Bounds.Center()
		pt := p.view.Project(toc.Point{X: x, Y: y})
		cx, cy := int(math.Floor(pt.X)), int(math.Floor(pt.Y))
		if cx < 0 || cx >= w || cy < 0 || cy >= h {
			continue
		}
		if isSel {
			cursorX, cursorY = cx, cy
			continue
		}
		grid[cy][cx] = '·'
	}

	var sb strings.Builder
	for y, row := range grid {
		if y == cursorY {
			sb.WriteString(p.theme.MapPoint.Render(string(row[:cursorX])))
			sb.WriteString(p.theme.MapCursor.Render("●"))
			sb.WriteString(p.theme.MapPoint.Render(string(row[cursorX+1:])))
		} else {
			sb.WriteString(p.theme.MapPoint.Render(string(row)))
		}
		if y < len(grid)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
