// Package plotview shows a paraxial diagram as a gonum plot.
//
// A Figure owns the display state of one diagram: the view settings
// entities are built with and the axis limits of the last refresh. It
// implements diagram.Figure, so node and conjugate line gestures refresh
// it directly.
package plotview

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ha1tch/paraxial-toolkit/pkg/diagram"
	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// Figure is a diagram with its display state.
type Figure struct {
	Diagram *diagram.Diagram
	View    diagram.View
	Title   string

	// Bounds holds the axis limits of the last refresh.
	Bounds geom.Bbox

	// Width and Height size the written image.
	Width, Height vg.Length

	log *slog.Logger
}

// New returns a figure for d with default size.
func New(d *diagram.Diagram, title string) *Figure {
	return &Figure{
		Diagram: d,
		Title:   title,
		Bounds:  geom.EmptyBbox(),
		Width:   6 * vg.Inch,
		Height:  6 * vg.Inch,
		log:     slog.Default(),
	}
}

// SetLogger replaces the logger; nil restores slog.Default().
func (f *Figure) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	f.log = l
}

// Refresh rebuilds the diagram and refits the axes. Plain updates keep the
// current limits so a drag does not rescale under the pointer.
func (f *Figure) Refresh(mode diagram.BuildMode) error {
	if _, err := f.Diagram.UpdateData(mode, f.View); err != nil {
		return err
	}
	if mode != diagram.BuildUpdate || f.Bounds.IsEmpty() {
		f.Bounds = f.Diagram.FitAxisLimits()
		f.View.Bounds = f.Bounds
		// conjugate lines size themselves from the view limits
		if _, err := f.Diagram.UpdateData(diagram.BuildUpdate, f.View); err != nil {
			return err
		}
	}
	f.log.Debug("figure refreshed", "mode", mode.String(), "bounds", f.Bounds)
	return nil
}

func axisLabels(t diagram.Type) (x, y string) {
	if t == diagram.Slope {
		return "chief ray slope", "marginal ray slope"
	}
	return "chief ray height", "marginal ray height"
}

func xys(pts []geom.Point) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return out
}

// Plot draws the current diagram handles, lowest z-order first.
func (f *Figure) Plot() (*plot.Plot, error) {
	d := f.Diagram
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text, p.Y.Label.Text = axisLabels(d.Type)

	b := f.Bounds
	if b.IsEmpty() {
		b = d.FitAxisLimits()
	}

	axis, err := plotter.NewLine(plotter.XYs{{X: b.Min.X, Y: 0}, {X: b.Max.X, Y: 0}})
	if err != nil {
		return nil, err
	}
	axis.LineStyle.Color = plotter.DefaultLineStyle.Color
	axis.LineStyle.Width = vg.Points(0.5)
	p.Add(axis)

	for _, dr := range d.Drawables() {
		pl, err := plotterFor(dr)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", dr.Entity.Label(), dr.Name, err)
		}
		if pl != nil {
			p.Add(pl)
		}
	}

	labels, err := nodeLabels(d)
	if err != nil {
		return nil, err
	}
	if labels != nil {
		p.Add(labels)
	}

	// Add grows the axes to the data; clip the long conjugate and slide
	// lines back to the limits.
	p.X.Min, p.X.Max = b.Min.X, b.Max.X
	p.Y.Min, p.Y.Max = b.Min.Y, b.Max.Y
	return p, nil
}

func plotterFor(dr diagram.Drawable) (plot.Plotter, error) {
	st := dr.Style
	switch dr.Kind {
	case diagram.Vertex:
		if st.Marker != diagram.Square {
			return nil, nil
		}
		s, err := plotter.NewScatter(xys(dr.Points))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle = draw.GlyphStyle{Color: st.Color, Radius: vg.Points(3), Shape: draw.BoxGlyph{}}
		return s, nil
	case diagram.Polygon:
		pg, err := plotter.NewPolygon(xys(dr.Points))
		if err != nil {
			return nil, err
		}
		pg.Color = st.Fill
		pg.LineStyle.Width = 0
		return pg, nil
	case diagram.Polyline:
		if st.LineStyle == diagram.NoLine {
			return nil, nil
		}
		l, err := plotter.NewLine(xys(dr.Points))
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = st.Color
		l.LineStyle.Width = vg.Points(1.5)
		if st.LineStyle == diagram.Dotted {
			l.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
		}
		return l, nil
	}
	return nil, nil
}

// nodeLabels labels each element at its first node.
func nodeLabels(d *diagram.Diagram) (*plotter.Labels, error) {
	m := d.Model
	var data plotter.XYLabels
	for i := 0; i < len(d.Shape) && i < len(m.Seq.Ifcs); i++ {
		e := m.Ele.ForSurface(m.Seq.Ifcs[i])
		if e == nil {
			continue
		}
		if i > 0 && m.Ele.ForSurface(m.Seq.Ifcs[i-1]) == e {
			continue
		}
		data.XYs = append(data.XYs, plotter.XY{X: d.Shape[i].X, Y: d.Shape[i].Y})
		data.Labels = append(data.Labels, e.Label())
	}
	if len(data.XYs) == 0 {
		return nil, nil
	}
	l, err := plotter.NewLabels(data)
	if err != nil {
		return nil, err
	}
	l.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}
	return l, nil
}

// Write renders the figure in format ("png", "svg", "pdf", ...) to w.
func (f *Figure) Write(w io.Writer, format string) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(f.Width, f.Height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save writes the figure to path, choosing the format from its extension.
func (f *Figure) Save(path string) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	return p.Save(f.Width, f.Height, path)
}
