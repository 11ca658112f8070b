package geom

import "math"

// Bbox is an axis-aligned bounding box.
type Bbox struct {
	Min, Max Point
}

// EmptyBbox returns a box that any Union will replace.
func EmptyBbox() Bbox {
	return Bbox{
		Min: Point{math.Inf(1), math.Inf(1)},
		Max: Point{math.Inf(-1), math.Inf(-1)},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Bbox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y
}

// BboxFromPoly returns the bounding box of a polygon or polyline.
// An empty slice yields an empty box.
func BboxFromPoly(poly []Point) Bbox {
	b := EmptyBbox()
	for _, p := range poly {
		b = b.Extend(p)
	}
	return b
}

// Extend grows the box to include p.
func (b Bbox) Extend(p Point) Bbox {
	return Bbox{
		Min: Point{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y)},
		Max: Point{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y)},
	}
}

// Union returns the smallest box enclosing both boxes.
func (b Bbox) Union(o Bbox) Bbox {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Width returns the horizontal extent.
func (b Bbox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b Bbox) Height() float64 { return b.Max.Y - b.Min.Y }

// Center returns the center point.
func (b Bbox) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Contains reports whether p lies inside the box, expanded by tol.
func (b Bbox) Contains(p Point, tol float64) bool {
	return p.X >= b.Min.X-tol && p.X <= b.Max.X+tol &&
		p.Y >= b.Min.Y-tol && p.Y <= b.Max.Y+tol
}

// FitDataRange returns a padded [min, max] range for values that always
// includes zero. When the first value dominates the range and the remaining
// values span less than rangeTrunc of it, the first value is ignored so a
// distant object point does not flatten the rest of the diagram.
func FitDataRange(values []float64, margin, rangeTrunc float64) (lo, hi float64) {
	if len(values) == 0 {
		return -0.01, 0.01
	}
	span := func(vs []float64) (float64, float64) {
		lo, hi := 0.0, 0.0
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		return lo, hi
	}
	lo, hi = span(values)
	r := hi - lo
	if r != 0 && len(values) > 2 {
		lo1, hi1 := span(values[1:])
		if r1 := hi1 - lo1; math.Abs(r1/r) < rangeTrunc {
			lo, hi, r = lo1, hi1, r1
		}
	}
	pad := 0.01
	if r > 0 {
		pad = margin * r
	}
	return lo - pad, hi + pad
}

// FitBbox returns the axis limits that enclose a shape, padded by 5% and
// always containing the origin.
func FitBbox(shape []Point) Bbox {
	xs := make([]float64, len(shape))
	ys := make([]float64, len(shape))
	for i, p := range shape {
		xs[i] = p.X
		ys[i] = p.Y
	}
	xlo, xhi := FitDataRange(xs, 0.05, 0.25)
	ylo, yhi := FitDataRange(ys, 0.05, 0.25)
	return Bbox{Min: Point{xlo, ylo}, Max: Point{xhi, yhi}}
}
