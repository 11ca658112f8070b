// Package diagram implements the paraxial y-ybar and slope diagrams of a
// lens and the interactive edits that reshape the lens through them.
//
// A Diagram maps each paraxial surface to a vertex (a Node) and each gap
// to a segment (an Edge). Dragging nodes, edges and conjugate lines runs
// an Action that writes the edited shape back into the paraxial model,
// and from there into the sequential model.
//
// All mutation happens synchronously from the caller's event loop; a
// Diagram and its Model must not be shared between goroutines.
package diagram

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// Type selects the ray fields plotted on the diagram axes.
type Type string

const (
	Height Type = "ht"  // x = chief ray height, y = axial ray height
	Slope  Type = "slp" // x = chief ray slope, y = axial ray slope
)

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("unknown diagram type")

// ParseType converts "ht" or "slp" to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Height, Slope:
		return Type(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownType)
}

// Field returns the ray record field the type plots.
func (t Type) Field() optical.Field {
	if t == Slope {
		return optical.Slp
	}
	return optical.Ht
}

// BuildMode tells UpdateData how much changed since the last update.
type BuildMode int

const (
	// BuildUpdate: node positions changed, node count did not.
	BuildUpdate BuildMode = iota
	// BuildFullRebuild: the lens was changed elsewhere; rebuild the
	// paraxial model from the sequential model, then the entities.
	BuildFullRebuild
	// BuildRebuild: the node count changed; recreate the entities.
	BuildRebuild
)

func (m BuildMode) String() string {
	switch m {
	case BuildUpdate:
		return "update"
	case BuildFullRebuild:
		return "full_rebuild"
	case BuildRebuild:
		return "rebuild"
	}
	return "unknown"
}

type registration int

const (
	commandMode registration = iota
	addReplaceMode
)

// Diagram is the editable paraxial diagram of a lens.
type Diagram struct {
	Label string
	Type  Type
	Model *optical.Model

	Shape     []geom.Point
	ShapeBbox geom.Bbox

	Nodes       []*Node
	Edges       []*Edge
	ObjectShift *ConjugateLine // nil for slope diagrams
	StopShift   *ConjugateLine // nil unless the stop floats

	DoBarrelConstraint bool
	BarrelRadius       float64
	Barrel             *BarrelConstraint

	// bounding boxes of the last UpdateData, per entity group
	NodeBbox, EdgeBbox, ConjugateBbox, BarrelBbox geom.Bbox

	handles map[Entity]Handles
	order   []Entity

	mode       registration
	inputs     CommandInputs
	addReplace *AddReplaceElementAction
	log        *slog.Logger
}

// New creates a diagram of type t for m. Call UpdateData with
// BuildRebuild before use.
func New(m *optical.Model, t Type) *Diagram {
	d := &Diagram{
		Label:        "paraxial",
		Type:         t,
		Model:        m,
		BarrelRadius: 1,
		log:          slog.Default(),
	}
	d.addReplace = &AddReplaceElementAction{dgm: d, curNode: -1}
	return d
}

// SetLogger replaces the logger; nil restores slog.Default().
func (d *Diagram) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	d.log = l
}

// SetType switches between height and slope diagrams. The caller must
// rebuild.
func (d *Diagram) SetType(t Type) {
	d.Type = t
}

func (d *Diagram) interactionMode(node int) optical.InteractionMode {
	sys := d.Model.Parax.Sys
	if node < 0 || node >= len(sys) {
		return optical.Transmit
	}
	return sys[node].Rmd
}

// RenderShape projects the paraxial rays onto the diagram axes.
func (d *Diagram) RenderShape() []geom.Point {
	pm := d.Model.Parax
	f := d.Type.Field()
	shape := make([]geom.Point, len(pm.Pr))
	for i := range pm.Pr {
		shape[i] = geom.Pt(pm.Pr[i].Get(f), pm.Ax[i].Get(f))
	}
	return shape
}

// UpdateDiagramFromShape writes shape back into the paraxial rays.
func (d *Diagram) UpdateDiagramFromShape(shape []geom.Point) {
	pm := d.Model.Parax
	f := d.Type.Field()
	for i := 0; i < len(shape) && i < len(pm.Pr); i++ {
		pm.Pr[i].Set(f, shape[i].X)
		pm.Ax[i].Set(f, shape[i].Y)
	}
}

// UpdateData recomputes the shape and the drawable handles of every
// entity, and returns the shape bounding box.
func (d *Diagram) UpdateData(mode BuildMode, v View) (geom.Bbox, error) {
	if mode == BuildFullRebuild {
		if err := d.Model.Parax.Build(); err != nil {
			return geom.EmptyBbox(), fmt.Errorf("update diagram: %w", err)
		}
	}
	d.Shape = d.RenderShape()
	d.ShapeBbox = geom.BboxFromPoly(d.Shape)
	if mode != BuildUpdate || len(d.Nodes) != len(d.Shape) {
		d.rebuild()
	}

	d.handles = make(map[Entity]Handles, len(d.order))
	d.NodeBbox, d.EdgeBbox = geom.EmptyBbox(), geom.EmptyBbox()
	d.ConjugateBbox, d.BarrelBbox = geom.EmptyBbox(), geom.EmptyBbox()
	for _, e := range d.order {
		h := e.UpdateShape(v)
		d.handles[e] = h
		bb := geom.EmptyBbox()
		for _, hd := range h {
			bb = bb.Union(hd.Bbox)
		}
		switch e.(type) {
		case *Node:
			d.NodeBbox = d.NodeBbox.Union(bb)
		case *Edge:
			d.EdgeBbox = d.EdgeBbox.Union(bb)
		case *ConjugateLine:
			d.ConjugateBbox = d.ConjugateBbox.Union(bb)
		case *BarrelConstraint:
			d.BarrelBbox = d.BarrelBbox.Union(bb)
		}
	}
	return d.ShapeBbox, nil
}

// rebuild recreates all entities from the current shape.
func (d *Diagram) rebuild() {
	n := len(d.Shape)
	d.Nodes = make([]*Node, n)
	for i := range d.Nodes {
		d.Nodes[i] = newNode(d, i)
	}
	d.Edges = make([]*Edge, max(n-1, 0))
	for i := range d.Edges {
		d.Edges[i] = &Edge{dgm: d, Index: i}
	}

	d.ObjectShift, d.StopShift, d.Barrel = nil, nil, nil
	if d.Type == Height {
		d.ObjectShift = newConjugateLine(d, ObjectImage)
		if d.Model.Seq.StopSurface < 0 {
			d.StopShift = newConjugateLine(d, StopShift)
		}
	}
	if d.DoBarrelConstraint {
		d.Barrel = &BarrelConstraint{dgm: d}
	}

	d.order = d.order[:0]
	for _, e := range d.Edges {
		d.order = append(d.order, e)
	}
	for _, nd := range d.Nodes {
		d.order = append(d.order, nd)
	}
	if d.ObjectShift != nil {
		d.order = append(d.order, d.ObjectShift)
	}
	if d.StopShift != nil {
		d.order = append(d.order, d.StopShift)
	}
	if d.Barrel != nil {
		d.order = append(d.order, d.Barrel)
	}
	d.log.Debug("diagram rebuilt", "type", string(d.Type), "nodes", n)
}

// ApplyData moves node to pt and pushes the change into the sequential
// model.
func (d *Diagram) ApplyData(node int, pt geom.Point) error {
	pm := d.Model.Parax
	if err := pm.ApplyDgmData(d.Type.Field(), node, pt); err != nil {
		return err
	}
	return pm.ToSeqModel()
}

// AssignObjectToNode builds an element with factory at node and returns
// what is needed to remove it again.
func (d *Diagram) AssignObjectToNode(node int, factory *optical.Factory, insert bool) (optical.Insertion, error) {
	pm := d.Model.Parax
	ins, err := pm.AssignObjectToNode(node, factory, insert)
	if err != nil {
		return optical.Insertion{}, err
	}
	if err := pm.ToSeqModel(); err != nil {
		return optical.Insertion{}, err
	}
	return ins, nil
}

// FitAxisLimits returns padded axis limits enclosing the shape.
func (d *Diagram) FitAxisLimits() geom.Bbox {
	return geom.FitBbox(d.Shape)
}

// RegisterCommands binds pointer gestures to the actions of the picked
// handle: node edits, conjugate line shears and edge insertion.
func (d *Diagram) RegisterCommands(in CommandInputs) {
	d.mode = commandMode
	d.inputs = in
	d.addReplace.reset()
}

// RegisterAddReplaceElement binds gestures on nodes and edges to element
// insertion and replacement.
func (d *Diagram) RegisterAddReplaceElement(in CommandInputs) {
	d.mode = addReplaceMode
	d.inputs = in
	d.addReplace.reset()
}

// Inputs returns the registered command inputs.
func (d *Diagram) Inputs() CommandInputs { return d.inputs }

// Target is a picked handle.
type Target struct {
	Entity Entity
	Handle string
}

// DoAction dispatches ev to the action bound to target. A missing target
// or a handle without an action is ignored.
func (d *Diagram) DoAction(fig Figure, ev Event, target Target) error {
	if target.Entity == nil {
		return nil
	}
	switch d.mode {
	case addReplaceMode:
		switch target.Entity.(type) {
		case *Node, *Edge:
			return Dispatch(d.addReplace, fig, ev, target.Entity)
		}
		return nil
	default:
		return Dispatch(target.Entity.Action(target.Handle), fig, ev, target.Entity)
	}
}
