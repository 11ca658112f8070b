// Package render draws a paraxial diagram to PNG or SVG.
//
// Both renderers draw the same scene: the diagram axes through the origin,
// every drawable handle in z-order, and element labels placed next to
// their nodes.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// ErrUnknownFormat is returned for output formats other than png and svg.
var ErrUnknownFormat = errors.New("unknown output format")

// Options configures rendering.
type Options struct {
	Width    int
	Height   int
	Padding  int
	FontSize float64
	Title    string
	Labels   bool // draw element labels at their nodes
}

// DefaultOptions returns sensible defaults for rendering.
func DefaultOptions() Options {
	return Options{
		Width:    800,
		Height:   600,
		Padding:  40,
		FontSize: 12,
		Labels:   true,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	return o
}

// Colors used in rendering
var (
	colorWhite = color.RGBA{255, 255, 255, 255}
	colorAxis  = color.RGBA{153, 153, 153, 255}
	colorText  = color.RGBA{51, 51, 51, 255}
)

const markerSize = 6 // node marker side, pixels

// viewport maps diagram coordinates to screen pixels, y up.
type viewport struct {
	bounds    geom.Bbox
	left, top float64
	sx, sy    float64
}

func newViewport(b geom.Bbox, width, height, pad float64) viewport {
	w := width - 2*pad
	h := height - 2*pad
	bw, bh := b.Width(), b.Height()
	if bw <= 0 {
		bw = 1
	}
	if bh <= 0 {
		bh = 1
	}
	return viewport{
		bounds: b,
		left:   pad,
		top:    pad,
		sx:     w / bw,
		sy:     h / bh,
	}
}

func (v viewport) toScreen(p geom.Point) (float64, float64) {
	x := v.left + (p.X-v.bounds.Min.X)*v.sx
	y := v.top + (v.bounds.Max.Y-p.Y)*v.sy
	return x, y
}

// axes returns the diagram axes as screen segments, clipped to the bounds.
func (v viewport) axes() [][4]float64 {
	var out [][4]float64
	b := v.bounds
	if b.Min.Y <= 0 && b.Max.Y >= 0 {
		x0, y0 := v.toScreen(geom.Pt(b.Min.X, 0))
		x1, y1 := v.toScreen(geom.Pt(b.Max.X, 0))
		out = append(out, [4]float64{x0, y0, x1, y1})
	}
	if b.Min.X <= 0 && b.Max.X >= 0 {
		x0, y0 := v.toScreen(geom.Pt(0, b.Min.Y))
		x1, y1 := v.toScreen(geom.Pt(0, b.Max.Y))
		out = append(out, [4]float64{x0, y0, x1, y1})
	}
	return out
}

// Bounds returns the axis limits used to draw d: the fitted shape limits,
// grown to show the barrel constraint when present.
func Bounds(d *diagram.Diagram) geom.Bbox {
	b := d.FitAxisLimits()
	if d.Barrel != nil {
		b = b.Union(d.BarrelBbox)
	}
	return b
}

type label struct {
	text   string
	anchor geom.Point
}

// elementLabels returns one label per element, anchored at its first node.
func elementLabels(d *diagram.Diagram) []label {
	m := d.Model
	seen := make(map[optical.Element]bool)
	var out []label
	for i := 0; i < len(d.Shape) && i < len(m.Seq.Ifcs); i++ {
		e := m.Ele.ForSurface(m.Seq.Ifcs[i])
		if e == nil || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, label{text: e.Label(), anchor: d.Shape[i]})
	}
	return out
}

// placeLabels positions labels in screen space, avoiding node markers and
// each other. measure returns the label size in pixels; s is the pixel
// scale of the viewport.
func placeLabels(d *diagram.Diagram, v viewport, s float64, measure func(string) (float64, float64)) []geom.Point {
	var markers []geom.Rect
	for _, p := range d.Shape {
		x, y := v.toScreen(p)
		markers = append(markers, geom.Rect{X: x, Y: y, W: 2 * markerSize * s, H: 2 * markerSize * s})
	}
	gap := 4 * s
	lp := geom.NewLabelPlacer(markers)
	labels := elementLabels(d)
	out := make([]geom.Point, len(labels))
	for i, l := range labels {
		x, y := v.toScreen(l.anchor)
		w, h := measure(l.text)
		out[i] = lp.PlaceLabel(geom.Pt(x, y), w, h, gap)
	}
	return out
}

// Write renders d in the given format ("png" or "svg").
func Write(d *diagram.Diagram, w io.Writer, format string, opts Options) error {
	switch strings.ToLower(format) {
	case "png":
		return RenderPNG(d, w, opts)
	case "svg":
		return RenderSVG(d, w, opts)
	}
	return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// FormatFromPath returns the output format implied by a file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "svg":
		return ext, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}
