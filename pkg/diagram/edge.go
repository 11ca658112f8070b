package diagram

import (
	"fmt"
	"image/color"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// Edge is the diagram segment of the gap between nodes Index and Index+1.
type Edge struct {
	dgm   *Diagram
	Index int
}

// UpdateShape builds the segment handle and the area swept from the
// origin to the segment.
func (e *Edge) UpdateShape(v View) Handles {
	seg := append([]geom.Point(nil), e.dgm.Shape[e.Index:e.Index+2]...)
	area := append([]geom.Point{{}}, seg...)
	return Handles{
		"shape": newHandle(Polyline, seg, Style{
			Color:  NodeColor,
			Hilite: colorRed,
			Picker: 6,
			ZOrder: 2,
		}),
		"area": newHandle(Polygon, area, Style{
			Color:     e.RenderColor(),
			Fill:      e.RenderColor(),
			LineStyle: NoLine,
			ZOrder:    1,
		}),
	}
}

// RenderColor returns the color of the element owning the gap. Gaps
// between single surface elements use the air gap color.
func (e *Edge) RenderColor() color.RGBA {
	m := e.dgm.Model
	if e.Index < len(m.Seq.Gaps) {
		if el := m.Ele.ForGap(m.Seq.Gaps[e.Index]); el != nil {
			return el.RenderColor()
		}
	}
	return optical.ColorAirGap
}

func (e *Edge) Label() string { return fmt.Sprintf("edge%d", e.Index) }

// Action binds the segment to element insertion.
func (e *Edge) Action(handle string) Action {
	if handle == "shape" {
		return e.dgm.addReplace
	}
	return nil
}
