package diagram

import (
	"errors"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// ErrNoGesture is returned when a drag or release arrives for an action
// that was never pressed.
var ErrNoGesture = errors.New("no active gesture")

// EventKind identifies a step of a pointer gesture.
type EventKind int

const (
	Press EventKind = iota
	Drag
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	}
	return "unknown"
}

// Event is a pointer event in diagram coordinates. HasData is false when
// the pointer left the plot area.
type Event struct {
	Kind    EventKind
	Pt      geom.Point
	HasData bool
}

// At makes an event with coordinates.
func At(kind EventKind, x, y float64) Event {
	return Event{Kind: kind, Pt: geom.Pt(x, y), HasData: true}
}

// Figure is the view that hosts a diagram. Actions call Refresh after
// every change they make.
type Figure interface {
	Refresh(mode BuildMode) error
}

// Action handles the press, drag and release steps of a gesture.
type Action interface {
	Press(fig Figure, ev Event, target Entity) error
	Drag(fig Figure, ev Event, target Entity) error
	Release(fig Figure, ev Event, target Entity) error
}

// Dispatch routes ev to the handler for its kind. Unknown kinds are
// ignored.
func Dispatch(a Action, fig Figure, ev Event, target Entity) error {
	if a == nil {
		return nil
	}
	switch ev.Kind {
	case Press:
		return a.Press(fig, ev, target)
	case Drag:
		return a.Drag(fig, ev, target)
	case Release:
		return a.Release(fig, ev, target)
	}
	return nil
}

// wedgeBuffer keeps a dragged node off its neighbors, as a fraction of
// the adjacent segment.
const wedgeBuffer = 0.0025

// EditNodeAction moves a node. With slide set, input points are first
// projected onto the node's slide line.
type EditNodeAction struct {
	node  *Node
	slide bool

	// gesture state, valid between press and release
	active   bool
	curNode  int
	pt0, pt2 *geom.Point
	filter   func(geom.Point) geom.Point
}

func (a *EditNodeAction) reset() {
	a.active = false
	a.curNode = -1
	a.pt0, a.pt2 = nil, nil
	a.filter = nil
}

// Press records the wedge bounds from the neighboring nodes.
func (a *EditNodeAction) Press(fig Figure, ev Event, target Entity) error {
	a.reset()
	d := a.node.dgm
	shape := d.Shape
	cur := a.node.Index
	if cur < 0 || cur >= len(shape) {
		return nil
	}
	pt1 := shape[cur]
	// A neighbor at the origin spans no wedge. Buffering it would give
	// wedgeBuffer*pt1 and pin the node to its own radial line.
	if cur > 0 && shape[cur-1] != (geom.Point{}) {
		p := geom.PointOnLine(shape[cur-1], pt1, wedgeBuffer)
		a.pt0 = &p
	}
	if cur < len(shape)-1 && shape[cur+1] != (geom.Point{}) {
		p := geom.PointOnLine(pt1, shape[cur+1], 1-wedgeBuffer)
		a.pt2 = &p
	}
	if a.slide {
		if line := ComputeSlideLine(shape, cur, d.interactionMode(cur)); line != nil {
			p0, p2 := line[0], line[1]
			a.filter = func(p geom.Point) geom.Point {
				return geom.ProjectedPointOnLine(p, p0, p2)
			}
		}
	}
	a.curNode = cur
	a.active = true
	d.log.Debug("edit node press", "node", cur, "slide", a.filter != nil)
	return nil
}

func (a *EditNodeAction) apply(fig Figure, pt geom.Point) error {
	if a.filter != nil {
		pt = a.filter(pt)
	}
	pt = constrainToWedge(pt, a.pt0, a.pt2)
	if err := a.node.dgm.ApplyData(a.curNode, pt); err != nil {
		return err
	}
	return fig.Refresh(BuildUpdate)
}

// Drag applies the constrained point.
func (a *EditNodeAction) Drag(fig Figure, ev Event, target Entity) error {
	if !ev.HasData {
		return nil
	}
	if !a.active {
		return ErrNoGesture
	}
	if err := a.apply(fig, ev.Pt); err != nil {
		a.reset()
		return err
	}
	return nil
}

// Release applies the final point and ends the gesture. A release without
// coordinates ends the gesture without applying anything.
func (a *EditNodeAction) Release(fig Figure, ev Event, target Entity) error {
	if !a.active {
		return ErrNoGesture
	}
	defer a.reset()
	if !ev.HasData {
		return nil
	}
	return a.apply(fig, ev.Pt)
}

// constrainToWedge keeps p between the radial lines through pt0 and pt2.
// A point outside is projected onto the violated radial line. Nil bounds
// are not checked.
func constrainToWedge(p geom.Point, pt0, pt2 *geom.Point) geom.Point {
	if pt0 != nil && p.X*pt0.Y-pt0.X*p.Y < 0 {
		return geom.ProjectedPointOnRadialLine(p, *pt0)
	}
	if pt2 != nil && p.X*pt2.Y-pt2.X*p.Y > 0 {
		return geom.ProjectedPointOnRadialLine(p, *pt2)
	}
	return p
}
