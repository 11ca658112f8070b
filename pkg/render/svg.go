package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// RenderSVG renders the diagram to SVG.
func RenderSVG(d *diagram.Diagram, w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(opts.Width, opts.Height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+cssColor(colorWhite))

	vp := newViewport(Bounds(d), float64(opts.Width), float64(opts.Height), float64(opts.Padding))

	axisStyle := fmt.Sprintf("stroke:%s;stroke-width:1", cssColor(colorAxis))
	for _, a := range vp.axes() {
		canvas.Line(px(a[0]), px(a[1]), px(a[2]), px(a[3]), axisStyle)
	}

	for _, dr := range d.Drawables() {
		svgHandle(canvas, vp, dr)
	}

	textStyle := fmt.Sprintf("text-anchor:middle;dominant-baseline:middle;font-family:sans-serif;font-size:%gpx;fill:%s",
		opts.FontSize, cssColor(colorText))
	if opts.Labels {
		labels := elementLabels(d)
		measure := func(s string) (float64, float64) {
			// rough average glyph width for a sans face
			return float64(len(s)) * opts.FontSize * 0.6, opts.FontSize
		}
		for i, p := range placeLabels(d, vp, 1, measure) {
			canvas.Text(px(p.X), px(p.Y), labels[i].text, textStyle)
		}
	}
	if opts.Title != "" {
		canvas.Text(opts.Width/2, opts.Padding/2, opts.Title, textStyle)
	}
	canvas.End()
	return ew.err
}

func svgHandle(canvas *svg.SVG, vp viewport, dr diagram.Drawable) {
	if len(dr.Points) == 0 {
		return
	}
	st := dr.Style
	switch dr.Kind {
	case diagram.Vertex:
		if st.Marker != diagram.Square {
			return
		}
		x, y := vp.toScreen(dr.Points[0])
		canvas.Rect(px(x)-markerSize/2, px(y)-markerSize/2, markerSize, markerSize,
			"fill:"+cssColor(st.Color))
	case diagram.Polygon:
		xs, ys := screenPoints(vp, dr.Points)
		canvas.Polygon(xs, ys, "stroke:none;fill:"+cssColor(st.Fill))
	case diagram.Polyline:
		if st.LineStyle == diagram.NoLine {
			return
		}
		xs, ys := screenPoints(vp, dr.Points)
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", cssColor(st.Color))
		if st.LineStyle == diagram.Dotted {
			style += ";stroke-dasharray:2,3"
		}
		canvas.Polyline(xs, ys, style)
	}
}

func screenPoints(vp viewport, pts []geom.Point) (xs, ys []int) {
	xs = make([]int, len(pts))
	ys = make([]int, len(pts))
	for i, p := range pts {
		x, y := vp.toScreen(p)
		xs[i], ys[i] = px(x), px(y)
	}
	return xs, ys
}

// px rounds a screen coordinate, clamping the far off points slide lines
// can produce.
func px(v float64) int {
	const limit = 1 << 20
	return int(math.Round(math.Max(-limit, math.Min(limit, v))))
}

func cssColor(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", c.R, c.G, c.B, float64(c.A)/255)
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
