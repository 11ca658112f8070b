package main

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleAxis       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSidebar    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const (
	runeNode   = '■'
	runeDotted = '·'
)

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// canvasSize returns the diagram area in cells.
func (ed *Editor) canvasSize() (int, int) {
	w, h := ed.screen.Size()
	return max(w-ed.sidebarWidth, 1), max(h-2, 1)
}

// toWorld returns the diagram point at the center of a cell.
func (ed *Editor) toWorld(col, row int) geom.Point {
	w, h := ed.canvasSize()
	b := ed.bounds
	return geom.Pt(
		b.Min.X+(float64(col)+0.5)*b.Width()/float64(w),
		b.Max.Y-(float64(row)+0.5)*b.Height()/float64(h),
	)
}

// toCell returns the fractional cell position of a diagram point.
func (ed *Editor) toCell(p geom.Point) (float64, float64) {
	w, h := ed.canvasSize()
	b := ed.bounds
	return (p.X - b.Min.X) / b.Width() * float64(w),
		(b.Max.Y - p.Y) / b.Height() * float64(h)
}

// pickTolerance is the size of one cell in diagram units.
func (ed *Editor) pickTolerance() float64 {
	w, h := ed.canvasSize()
	return math.Max(ed.bounds.Width()/float64(w), ed.bounds.Height()/float64(h))
}

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()
	if ed.dgm != nil && !ed.bounds.IsEmpty() {
		ed.drawCanvas()
		ed.drawSidebar(w, h)
	}
	ed.drawStatusBar(w, h)
}

func (ed *Editor) drawCanvas() {
	w, h := ed.canvasSize()

	// Draw border
	for y := 0; y < h; y++ {
		ed.screen.SetContent(w, y, '│', nil, styleBorder)
	}

	ox, oy := ed.toCell(geom.Point{})
	ed.drawSegment(0, oy, float64(w), oy, '─', styleAxis)
	ed.drawSegment(ox, 0, ox, float64(h), '│', styleAxis)

	for _, dr := range ed.dgm.Drawables() {
		fg := dr.Style.Color
		if ed.target.Entity == dr.Entity && ed.target.Handle == dr.Name {
			fg = dr.Style.Hilite
		}
		style := tcell.StyleDefault.Foreground(tcellColor(fg))
		switch dr.Kind {
		case diagram.Polygon:
			ed.fillPolygon(dr.Points, tcell.StyleDefault.Background(tcellColor(dim(dr.Style.Fill))))
		case diagram.Polyline:
			if dr.Style.LineStyle == diagram.NoLine {
				continue
			}
			for i := 1; i < len(dr.Points); i++ {
				x0, y0 := ed.toCell(dr.Points[i-1])
				x1, y1 := ed.toCell(dr.Points[i])
				r := lineRune(x1-x0, y1-y0)
				if dr.Style.LineStyle == diagram.Dotted {
					r = runeDotted
				}
				ed.drawSegment(x0, y0, x1, y1, r, style)
			}
		case diagram.Vertex:
			if dr.Style.Marker != diagram.Square || len(dr.Points) == 0 {
				continue
			}
			x, y := ed.toCell(dr.Points[0])
			ed.setCell(int(math.Floor(x)), int(math.Floor(y)), runeNode, style)
		}
	}
}

// dim blends c toward black for cell backgrounds.
func dim(c color.RGBA) color.RGBA {
	a := float64(c.A) / 255 * 0.35
	return color.RGBA{uint8(float64(c.R) * a), uint8(float64(c.G) * a), uint8(float64(c.B) * a), 255}
}

// lineRune picks a box drawing rune for a segment direction in cells.
func lineRune(dx, dy float64) rune {
	switch {
	case math.Abs(dy)*2 < math.Abs(dx):
		return '─'
	case math.Abs(dx)*2 < math.Abs(dy):
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	}
	return '╱'
}

// setCell draws inside the canvas only, keeping the background.
func (ed *Editor) setCell(x, y int, r rune, style tcell.Style) {
	w, h := ed.canvasSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	_, _, old, _ := ed.screen.GetContent(x, y)
	_, bg, _ := old.Decompose()
	ed.screen.SetContent(x, y, r, nil, style.Background(bg))
}

// drawSegment rasterises a segment given in fractional cells.
func (ed *Editor) drawSegment(x0, y0, x1, y1 float64, r rune, style tcell.Style) {
	w, h := ed.canvasSize()
	x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1, float64(w), float64(h))
	if !ok {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		ed.setCell(int(math.Floor(x0+t*(x1-x0))), int(math.Floor(y0+t*(y1-y0))), r, style)
	}
}

// clipSegment clips a segment to [0,w]x[0,h] (Liang-Barsky). ok is false
// when nothing is left.
func clipSegment(x0, y0, x1, y1, w, h float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{{-dx, x0}, {dx, w - x0}, {-dy, y0}, {dy, h - y0}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
		if t0 > t1 {
			return 0, 0, 0, 0, false
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// fillPolygon sets the background of the cells whose center lies inside
// the polygon.
func (ed *Editor) fillPolygon(pts []geom.Point, style tcell.Style) {
	if len(pts) < 3 {
		return
	}
	w, h := ed.canvasSize()
	poly := make([]geom.Point, len(pts))
	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for i, p := range pts {
		x, y := ed.toCell(p)
		poly[i] = geom.Pt(x, y)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	_, bg, _ := style.Decompose()
	for y := max(int(minY), 0); y <= min(int(maxY), h-1); y++ {
		for x := max(int(minX), 0); x <= min(int(maxX), w-1); x++ {
			if insidePolygon(geom.Pt(float64(x)+0.5, float64(y)+0.5), poly) {
				mainc, _, old, _ := ed.screen.GetContent(x, y)
				ed.screen.SetContent(x, y, mainc, nil, old.Background(bg))
			}
		}
	}
}

// insidePolygon is the even-odd crossing test.
func insidePolygon(p geom.Point, poly []geom.Point) bool {
	in := false
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
		j = i
	}
	return in
}

func (ed *Editor) drawSidebar(w, h int) {
	x := w - ed.sidebarWidth + 2
	y := 0
	line := func(s string, style tcell.Style) {
		if y < h-2 {
			ed.drawString(x, y, truncate(s, ed.sidebarWidth-3), style)
		}
		y++
	}

	pm := ed.dgm.Model.Parax
	line(fmt.Sprintf("%s  %s", ed.sample, typeName(ed.dgm.Type)), styleSidebarH)
	line("", styleSidebar)
	line(fmt.Sprintf("%2s %8s %8s %8s", "#", "y", "ybar", "pwr"), styleSidebarH)
	for i, rec := range pm.Sys {
		vals := [2]float64{pm.Ax[i].Ht, pm.Pr[i].Ht}
		if ed.dgm.Type == diagram.Slope {
			vals = [2]float64{pm.Ax[i].Slp, pm.Pr[i].Slp}
		}
		line(fmt.Sprintf("%2d %8.3f %8.3f %8.4f", i, vals[0], vals[1], rec.Pwr), styleSidebar)
	}
	line("", styleSidebar)

	fod := pm.FirstOrder()
	line(fmt.Sprintf("EFL      %10.3f", fod.EFL), styleSidebar)
	line(fmt.Sprintf("Mag      %10.4f", fod.Magnification), styleSidebar)
	line(fmt.Sprintf("Track    %10.3f", fod.TotalTrack), styleSidebar)
	line(fmt.Sprintf("Inv      %10.5f", fod.OptInv), styleSidebar)
	line("", styleSidebar)
	line("Factory  "+ed.cfg.Edit.Factory, styleSidebar)
	line("Insert   "+ed.cfg.Edit.InteractMode, styleSidebar)
	line("Slide    "+onOff(ed.view.EnableSlide), styleSidebar)
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	ed.drawString(1, y, ed.sample, styleStatus)

	modeStr := ed.modeString()
	ed.drawString(w/2-len(modeStr)/2, y, modeStr, styleStatus)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		}
		if ed.messageType != MsgInfo && flashInverted(time.Now().UnixMilli()-ed.messageFlashStart) {
			style = style.Reverse(true)
		}
		msg := truncate(ed.message, max(w/2-2, 4))
		ed.drawString(w-len([]rune(msg))-2, y, msg, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(), styleHelp)
}

// flashInverted reports whether a message shown elapsed ms ago is drawn
// inverted: two short flashes, then steady.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		ed.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func (ed *Editor) modeString() string {
	if ed.mode == ModeAddReplace {
		return "ADD/REPLACE"
	}
	return "EDIT"
}

func (ed *Editor) helpString() string {
	if ed.mode == ModeAddReplace {
		return "Drag edge:Insert  Click node:Replace  M:Factory  R:Reflect  E:Edit  Q:Quit"
	}
	return "Drag:Move  S:Slide  B:Barrel  T:Type  F:Fit  Z/Y:Undo/Redo  A:Add  N:Next  W:Write  Q:Quit"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
