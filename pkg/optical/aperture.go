package optical

import (
	"math"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// Aperture is a clear or edge aperture on a surface.
type Aperture interface {
	// Dimension returns the x and y half widths.
	Dimension() (x, y float64)
	SetDimension(x, y float64)
	MaxDimension() float64
	BoundingBox() geom.Bbox
}

// ApertureOffset positions an aperture on its surface.
type ApertureOffset struct {
	XOffset, YOffset float64
	Rotation         float64
}

func (o ApertureOffset) bbox(x, y float64) geom.Bbox {
	c := geom.Pt(o.XOffset, o.YOffset)
	e := geom.Pt(x, y)
	return geom.Bbox{Min: c.Sub(e), Max: c.Add(e)}
}

// Circular is a circular aperture.
type Circular struct {
	ApertureOffset
	Radius float64
}

func (c *Circular) Dimension() (float64, float64) { return c.Radius, c.Radius }

func (c *Circular) SetDimension(x, y float64) { c.Radius = math.Max(math.Abs(x), math.Abs(y)) }

func (c *Circular) MaxDimension() float64 { return c.Radius }

func (c *Circular) BoundingBox() geom.Bbox { return c.bbox(c.Radius, c.Radius) }

// Rectangular is a rectangular aperture.
type Rectangular struct {
	ApertureOffset
	XHalfWidth, YHalfWidth float64
}

func (r *Rectangular) Dimension() (float64, float64) { return r.XHalfWidth, r.YHalfWidth }

func (r *Rectangular) SetDimension(x, y float64) {
	r.XHalfWidth = math.Abs(x)
	r.YHalfWidth = math.Abs(y)
}

func (r *Rectangular) MaxDimension() float64 { return math.Hypot(r.XHalfWidth, r.YHalfWidth) }

func (r *Rectangular) BoundingBox() geom.Bbox { return r.bbox(r.XHalfWidth, r.YHalfWidth) }

// Elliptical is an elliptical aperture.
type Elliptical struct {
	ApertureOffset
	XHalfWidth, YHalfWidth float64
}

func (e *Elliptical) Dimension() (float64, float64) { return e.XHalfWidth, e.YHalfWidth }

func (e *Elliptical) SetDimension(x, y float64) {
	e.XHalfWidth = math.Abs(x)
	e.YHalfWidth = math.Abs(y)
}

// MaxDimension returns the larger semi-axis.
func (e *Elliptical) MaxDimension() float64 { return math.Max(e.XHalfWidth, e.YHalfWidth) }

func (e *Elliptical) BoundingBox() geom.Bbox { return e.bbox(e.XHalfWidth, e.YHalfWidth) }
