// Package geom provides the 2D geometry used by paraxial diagrams:
// points, projections onto lines, bounding boxes and shear transforms.
package geom

import "math"

// Point represents a 2D coordinate. In a height diagram X is the chief ray
// (ybar) value and Y the marginal ray (y) value.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the cross product p × q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Norm2 returns the squared distance from the origin.
func (p Point) Norm2() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Norm returns the distance from the origin.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// PointOnLine returns p1 + t*(p2-p1).
func PointOnLine(p1, p2 Point, t float64) Point {
	return p1.Add(p2.Sub(p1).Scale(t))
}

// PerpendicularToLine returns the signed perpendicular distance from p to
// the line through p1 and p2. The sign follows cross(p2-p1, p-p1).
func PerpendicularToLine(p, p1, p2 Point) float64 {
	d := p2.Sub(p1)
	n := d.Norm()
	if n == 0 {
		return p.Sub(p1).Norm()
	}
	return d.Cross(p.Sub(p1)) / n
}

// PerpendicularFromOrigin returns the signed distance from the origin to
// the line through p1 and p2.
func PerpendicularFromOrigin(p1, p2 Point) float64 {
	return PerpendicularToLine(Point{}, p1, p2)
}

// ProjectedPointOnLine returns the orthogonal projection of p onto the
// line through p1 and p2. A degenerate line returns p1.
func ProjectedPointOnLine(p, p1, p2 Point) Point {
	d := p2.Sub(p1)
	dd := d.Dot(d)
	if dd == 0 {
		return p1
	}
	t := p.Sub(p1).Dot(d) / dd
	return p1.Add(d.Scale(t))
}

// ProjectedPointOnRadialLine projects p onto the line from the origin
// through radial.
func ProjectedPointOnRadialLine(p, radial Point) Point {
	rr := radial.Dot(radial)
	if rr == 0 {
		return Point{}
	}
	return radial.Scale(p.Dot(radial) / rr)
}
