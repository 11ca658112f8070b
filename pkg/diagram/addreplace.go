package diagram

import (
	"fmt"

	"github.com/ha1tch/paraxial-toolkit/pkg/optical"
)

// CommandInputs configures element insertion. NodeInit builds the
// placeholder element dragged while inserting; Factory builds the final
// element. Either may be nil, which disables the gestures needing it.
type CommandInputs struct {
	NodeInit     *optical.Factory
	Factory      *optical.Factory
	InteractMode optical.InteractionMode
}

// AddReplaceElementAction inserts an element by pressing on an edge and
// dragging the new node into place, or replaces the element of a node
// by clicking it.
type AddReplaceElementAction struct {
	dgm *Diagram

	// gesture state
	active     bool
	replace    bool
	curNode    int
	initInputs optical.Insertion
}

func (a *AddReplaceElementAction) reset() {
	a.active, a.replace = false, false
	a.curNode = -1
	a.initInputs = optical.Insertion{}
}

// Press starts an insertion on an edge or records the element to replace
// on a node.
func (a *AddReplaceElementAction) Press(fig Figure, ev Event, target Entity) error {
	a.reset()
	d := a.dgm
	in := d.inputs
	switch t := target.(type) {
	case *Edge:
		if in.NodeInit == nil || in.Factory == nil || !ev.HasData {
			return nil
		}
		mode := in.InteractMode
		if mode == "" {
			mode = optical.Transmit
		}
		node, err := d.Model.Parax.AddNode(t.Index, ev.Pt, d.Type.Field(), mode)
		if err != nil {
			return fmt.Errorf("insert on %s: %w", t.Label(), err)
		}
		ins, err := d.AssignObjectToNode(node, in.NodeInit, true)
		if err != nil {
			return fmt.Errorf("insert on %s: %w", t.Label(), err)
		}
		a.active, a.curNode, a.initInputs = true, node, ins
		d.log.Debug("insert element", "node", node, "init", in.NodeInit.Name)
		return fig.Refresh(BuildRebuild)
	case *Node:
		if in.Factory == nil {
			return nil
		}
		ins, err := d.Model.Parax.ObjectForNode(t.Index)
		if err != nil {
			return fmt.Errorf("replace %s: %w", t.Label(), err)
		}
		a.active, a.replace, a.curNode, a.initInputs = true, true, t.Index, ins
	}
	return nil
}

// Drag moves the inserted node.
func (a *AddReplaceElementAction) Drag(fig Figure, ev Event, target Entity) error {
	if !a.active || a.replace || !ev.HasData {
		return nil
	}
	if _, ok := target.(*Edge); !ok {
		return nil
	}
	if err := a.dgm.ApplyData(a.curNode, ev.Pt); err != nil {
		a.reset()
		return err
	}
	return fig.Refresh(BuildUpdate)
}

// Release materialises the final element when it differs from the
// placeholder, or always when replacing, and removes the placeholder or
// the replaced element.
func (a *AddReplaceElementAction) Release(fig Figure, ev Event, target Entity) error {
	if !a.active {
		return nil
	}
	defer a.reset()
	d := a.dgm
	in := d.inputs
	if in.Factory != in.NodeInit || a.replace {
		if err := a.swap(in.Factory); err != nil {
			return err
		}
	}
	return fig.Refresh(BuildRebuild)
}

func (a *AddReplaceElementAction) swap(factory *optical.Factory) error {
	d := a.dgm
	sm := d.Model.Seq
	if a.curNode <= 0 || a.curNode >= sm.NumSurfaces()-1 {
		return fmt.Errorf("swap element at node %d: %w", a.curNode, optical.ErrNodeRange)
	}
	prev := sm.Ifcs[a.curNode]
	if _, err := d.AssignObjectToNode(a.curNode, factory, false); err != nil {
		return err
	}
	idx := sm.IndexOf(prev)
	rec := d.Model.Parax.Sys[idx-1]
	sm.Gaps[idx-1].Thi = rec.Indx * rec.Tau
	if err := d.Model.RemoveIfcGpEle(a.initInputs); err != nil {
		return err
	}
	d.log.Debug("element swapped", "node", a.curNode, "factory", factory.Name)
	return nil
}
