// Label placement for diagram annotations.
// Node labels are placed around their vertex marker without covering other
// markers or previously placed labels.

package geom

import "math"

// Rect represents an axis-aligned rectangle in screen space.
type Rect struct {
	X, Y float64 // Center
	W, H float64 // Full width and height
}

// RectOverlap returns the overlap area between two rectangles.
// Returns 0 if they don't overlap.
func RectOverlap(a, b Rect) float64 {
	overlapX := (a.W/2 + b.W/2) - math.Abs(a.X-b.X)
	overlapY := (a.H/2 + b.H/2) - math.Abs(a.Y-b.Y)

	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}
	return overlapX * overlapY
}

// LabelPlacer manages label placement with collision avoidance.
type LabelPlacer struct {
	obstacles []Rect
}

// NewLabelPlacer creates a LabelPlacer with initial obstacles (markers).
func NewLabelPlacer(obstacles []Rect) *LabelPlacer {
	obs := make([]Rect, len(obstacles))
	copy(obs, obstacles)
	return &LabelPlacer{obstacles: obs}
}

// PlaceLabel finds the best position for a label near an anchor point and
// returns the label center. The chosen rectangle becomes an obstacle for
// later labels.
func (lp *LabelPlacer) PlaceLabel(anchor Point, labelW, labelH, gap float64) Point {
	candidates := []Point{
		{anchor.X + labelW/2 + gap, anchor.Y - labelH/2 - gap}, // top-right
		{anchor.X - labelW/2 - gap, anchor.Y - labelH/2 - gap}, // top-left
		{anchor.X + labelW/2 + gap, anchor.Y + labelH/2 + gap}, // bottom-right
		{anchor.X - labelW/2 - gap, anchor.Y + labelH/2 + gap}, // bottom-left
		{anchor.X, anchor.Y - labelH/2 - gap},                  // above
		{anchor.X, anchor.Y + labelH/2 + gap},                  // below
	}

	best := candidates[0]
	bestOverlap := math.MaxFloat64

	for _, pos := range candidates {
		r := Rect{pos.X, pos.Y, labelW, labelH}
		total := 0.0
		for _, obs := range lp.obstacles {
			total += RectOverlap(r, obs)
		}
		if total == 0 {
			lp.obstacles = append(lp.obstacles, r)
			return pos
		}
		if total < bestOverlap {
			bestOverlap = total
			best = pos
		}
	}

	lp.obstacles = append(lp.obstacles, Rect{best.X, best.Y, labelW, labelH})
	return best
}
