package diagram

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// ComputeSlideLine returns the constraint line for moving node while the
// total length of the two adjacent gaps stays constant. In transmit mode
// the line runs through the node parallel to the chord between its
// neighbors; in reflect mode it is the radial line through the node,
// long enough to reach the furthest of the three points. Returns nil for
// end nodes and for a transmit chord through the origin.
func ComputeSlideLine(shape []geom.Point, node int, mode optical.InteractionMode) []geom.Point {
	if node <= 0 || node >= len(shape)-1 {
		return nil
	}
	pt0, pt1, pt2 := shape[node-1], shape[node], shape[node+1]
	switch mode {
	case optical.Transmit:
		origin2line := geom.PerpendicularFromOrigin(pt0, pt2)
		if math.Abs(origin2line) < 1e-12 {
			return nil
		}
		pt2line := geom.PerpendicularToLine(pt1, pt0, pt2)
		scale := (origin2line - pt2line) / origin2line
		return []geom.Point{pt0.Scale(scale), pt2.Scale(scale)}
	case optical.Reflect:
		d1 := pt1.Norm2()
		if d1 == 0 {
			return nil
		}
		dist := math.Max(math.Max(pt0.Norm2(), d1), pt2.Norm2())
		return []geom.Point{{}, pt1.Scale(math.Sqrt(dist / d1))}
	}
	return nil
}

// Node is the diagram vertex of one paraxial surface.
type Node struct {
	dgm   *Diagram
	Index int

	edit  *EditNodeAction
	slide *EditNodeAction
}

func newNode(d *Diagram, idx int) *Node {
	n := &Node{dgm: d, Index: idx}
	n.edit = &EditNodeAction{node: n, curNode: -1}
	n.slide = &EditNodeAction{node: n, slide: true, curNode: -1}
	return n
}

// UpdateShape builds the vertex handle and, when the view enables it, the
// slide line.
func (n *Node) UpdateShape(v View) Handles {
	d := n.dgm
	h := Handles{
		"shape": newHandle(Vertex, []geom.Point{d.Shape[n.Index]}, Style{
			Color:     NodeColor,
			Hilite:    colorRed,
			LineStyle: NoLine,
			Marker:    Square,
			Picker:    6,
			ZOrder:    3,
		}),
	}
	if v.EnableSlide {
		if seg := ComputeSlideLine(d.Shape, n.Index, d.interactionMode(n.Index)); seg != nil {
			h["slide"] = newHandle(Polyline, seg, Style{
				Color:     slideLineColor,
				Hilite:    NodeColor,
				LineStyle: Dotted,
				Picker:    6,
				ZOrder:    2.5,
			})
		}
	}
	return h
}

// RenderColor returns the color of the element owning the surface.
func (n *Node) RenderColor() color.RGBA {
	m := n.dgm.Model
	if n.Index < len(m.Seq.Ifcs) {
		if e := m.Ele.ForSurface(m.Seq.Ifcs[n.Index]); e != nil {
			return e.RenderColor()
		}
	}
	return NodeColor
}

func (n *Node) Label() string { return fmt.Sprintf("node%d", n.Index) }

func (n *Node) Action(handle string) Action {
	switch handle {
	case "shape":
		return n.edit
	case "slide":
		return n.slide
	}
	return nil
}
