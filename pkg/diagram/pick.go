package diagram

import (
	"math"
	"sort"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// Drawable is a handle together with its entity, as handed to renderers.
type Drawable struct {
	Entity Entity
	Name   string
	Handle
}

// Drawables returns the handles of the last UpdateData sorted by z-order,
// lowest first.
func (d *Diagram) Drawables() []Drawable {
	var out []Drawable
	for _, e := range d.order {
		h := d.handles[e]
		names := make([]string, 0, len(h))
		for name := range h {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, Drawable{Entity: e, Name: name, Handle: h[name]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Style.ZOrder < out[j].Style.ZOrder
	})
	return out
}

// Pick returns the topmost pickable handle within tol of p, in diagram
// units. ok is false when nothing is hit.
func (d *Diagram) Pick(p geom.Point, tol float64) (t Target, ok bool) {
	bestZ, bestDist := math.Inf(-1), math.Inf(1)
	for _, dr := range d.Drawables() {
		if dr.Style.Picker <= 0 || dr.Entity.Action(dr.Name) == nil {
			continue
		}
		dist := distanceToHandle(p, dr.Handle)
		if dist > tol {
			continue
		}
		z := dr.Style.ZOrder
		if z > bestZ || (z == bestZ && dist < bestDist) {
			bestZ, bestDist = z, dist
			t, ok = Target{Entity: dr.Entity, Handle: dr.Name}, true
		}
	}
	return t, ok
}

func distanceToHandle(p geom.Point, h Handle) float64 {
	if len(h.Points) == 0 {
		return math.Inf(1)
	}
	if h.Kind == Vertex || len(h.Points) == 1 {
		return p.Sub(h.Points[0]).Norm()
	}
	best := math.Inf(1)
	for i := 1; i < len(h.Points); i++ {
		best = math.Min(best, distanceToSegment(p, h.Points[i-1], h.Points[i]))
	}
	return best
}

func distanceToSegment(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Norm2()
	if l2 == 0 {
		return p.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(geom.PointOnLine(a, b, t)).Norm()
}
