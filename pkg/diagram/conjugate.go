package diagram

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// LineType selects which conjugate a ConjugateLine shifts.
type LineType int

const (
	ObjectImage LineType = iota // shifts the object and image conjugates
	StopShift                   // shifts the stop position
)

// ConjugateLine is an axis of a height diagram. Dragging it shears the
// whole diagram: the y axis for the stop, the ybar axis for the object
// and image.
type ConjugateLine struct {
	dgm  *Diagram
	Type LineType
	K    float64 // shear factor of the current gesture

	// snapshot taken on press, cleared on release
	sysOrig   []optical.SysRecord
	shapeOrig []geom.Point

	action *ConjugateLineAction
}

func newConjugateLine(d *Diagram, t LineType) *ConjugateLine {
	c := &ConjugateLine{dgm: d, Type: t}
	c.action = &ConjugateLineAction{line: c}
	return c
}

// Editing reports whether a shear gesture is in progress.
func (c *ConjugateLine) Editing() bool { return c.shapeOrig != nil }

func (c *ConjugateLine) UpdateShape(v View) Handles {
	bb := c.dgm.ShapeBbox
	var line []geom.Point
	switch c.Type {
	case StopShift:
		ht := bb.Height()
		line = []geom.Point{{X: 0, Y: -2 * ht}, {X: 0, Y: 2 * ht}}
	case ObjectImage:
		wid := bb.Width()
		line = []geom.Point{{X: -2 * wid, Y: 0}, {X: 2 * wid, Y: 0}}
	}
	h := Handles{
		"shape": newHandle(Polyline, line, Style{
			Color:  colorBlack,
			Hilite: colorRed,
			Picker: 6,
			ZOrder: 1,
		}),
	}
	if !c.Editing() {
		return h
	}

	bounds := v.Bounds
	if bounds.IsEmpty() || bounds == (geom.Bbox{}) {
		bounds = c.dgm.FitAxisLimits()
	}
	var conj []geom.Point
	switch c.Type {
	case StopShift:
		ht := bounds.Height()
		conj = []geom.Point{{X: c.K * ht, Y: -ht}, {X: -c.K * ht, Y: ht}}
	case ObjectImage:
		wid := bounds.Width()
		conj = []geom.Point{{X: -wid, Y: c.K * wid}, {X: wid, Y: -c.K * wid}}
	}
	h["conj_line"] = newHandle(Polyline, conj, Style{Color: colorOrange, ZOrder: 1})
	h["shift"] = newHandle(Polyline, append([]geom.Point(nil), c.shapeOrig...), Style{Color: colorBlue, ZOrder: 1})
	return h
}

func (c *ConjugateLine) RenderColor() color.RGBA { return colorBlack }

func (c *ConjugateLine) Label() string {
	if c.Type == StopShift {
		return "stop shift line"
	}
	return "object shift line"
}

func (c *ConjugateLine) Action(handle string) Action {
	if handle == "shape" {
		return c.action
	}
	return nil
}

// Shear returns the shear factor and matrix for a pointer at p (x = ybar,
// y = y). ok is false when the pointer lies on the line's axis.
func (c *ConjugateLine) Shear(p geom.Point) (k float64, m *mat.Dense, ok bool) {
	switch c.Type {
	case StopShift:
		if p.Y == 0 {
			return 0, nil, false
		}
		k = -p.X / p.Y
		return k, geom.ShearY(k), true
	case ObjectImage:
		if p.X == 0 {
			return 0, nil, false
		}
		k = -p.Y / p.X
		return k, geom.ShearX(k), true
	}
	return 0, nil, false
}

// apply shears the snapshot for a pointer at p and pushes the result into
// the lens.
func (c *ConjugateLine) apply(p geom.Point) error {
	k, m, ok := c.Shear(p)
	if !ok || len(c.shapeOrig) < 2 {
		return nil
	}
	c.K = k
	d := c.dgm
	pm := d.Model.Parax
	d.Shape = geom.Transform(c.shapeOrig, m)
	d.UpdateDiagramFromShape(d.Shape)

	n := len(d.Shape)
	for i := 1; i < n; i++ {
		tau := c.sysOrig[i-1].Tau
		if math.Abs(tau) < 1e-12 {
			continue
		}
		pm.Pr[i-1].Slp = (pm.Pr[i].Ht - pm.Pr[i-1].Ht) / tau
		pm.Ax[i-1].Slp = (pm.Ax[i].Ht - pm.Ax[i-1].Ht) / tau
	}
	pm.Pr[n-1].Slp = pm.Pr[n-2].Slp
	pm.Ax[n-1].Slp = pm.Ax[n-2].Slp

	if c.Type == ObjectImage {
		// pin the object and image to the axis
		if pm.Ax[0].Slp != 0 {
			pm.Sys[0].Tau = pm.Ax[1].Ht / pm.Ax[0].Slp
			pm.Ax[0].Ht = 0
			pm.Pr[0].Ht = pm.Pr[1].Ht - pm.Sys[0].Tau*pm.Pr[0].Slp
		}
		if last := n - 2; pm.Ax[last].Slp != 0 {
			pm.Sys[last].Tau = -pm.Ax[last].Ht / pm.Ax[last].Slp
			pm.Ax[n-1].Ht = 0
			pm.Pr[n-1].Ht = pm.Pr[last].Ht + pm.Sys[last].Tau*pm.Pr[last].Slp
		}
	}
	return pm.ToSeqModel()
}

// ConjugateLineAction drags a conjugate line.
type ConjugateLineAction struct {
	line *ConjugateLine
}

// Press snapshots the lens data and the shape.
func (a *ConjugateLineAction) Press(fig Figure, ev Event, target Entity) error {
	c := a.line
	c.sysOrig = append([]optical.SysRecord(nil), c.dgm.Model.Parax.Sys...)
	c.shapeOrig = append([]geom.Point{}, c.dgm.Shape...)
	c.K = 0
	c.dgm.log.Debug("conjugate line press", "line", c.Label())
	return nil
}

func (a *ConjugateLineAction) Drag(fig Figure, ev Event, target Entity) error {
	if !ev.HasData {
		return nil
	}
	if !a.line.Editing() {
		return ErrNoGesture
	}
	if err := a.line.apply(ev.Pt); err != nil {
		a.line.clear()
		return err
	}
	return fig.Refresh(BuildUpdate)
}

// Release applies the final shear and drops the snapshot.
func (a *ConjugateLineAction) Release(fig Figure, ev Event, target Entity) error {
	c := a.line
	if !c.Editing() {
		return ErrNoGesture
	}
	var err error
	if ev.HasData {
		err = c.apply(ev.Pt)
	}
	c.clear()
	if err != nil {
		return err
	}
	return fig.Refresh(BuildUpdate)
}

func (c *ConjugateLine) clear() {
	c.sysOrig, c.shapeOrig = nil, nil
}
