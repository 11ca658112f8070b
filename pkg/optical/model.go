package optical

import (
	"errors"
	"fmt"
)

var (
	ErrNodeRange      = errors.New("node index out of range")
	ErrNoElement      = errors.New("no element at node")
	ErrSurfaceCount   = errors.New("paraxial and sequential surface counts differ")
	ErrZeroInvariant  = errors.New("optical invariant is zero")
	ErrStopAiming     = errors.New("chief ray cannot be aimed at the stop")
	ErrUnknownFactory = errors.New("unknown element factory")

	ErrObjectAtInfinity = errors.New("object space axial slope is zero")
)

// FirstOrderSpec defines the two paraxial rays traced through the lens.
type FirstOrderSpec struct {
	ObjectSlope  float64 // reduced slope of the axial ray in object space
	ObjectHeight float64 // chief ray height at the object

	// ChiefSlope fixes the chief ray slope for a floating stop. When nil
	// the chief ray is aimed at surface 1.
	ChiefSlope *float64
}

// Descriptor is what an element factory produces: the sequence to insert
// and the elements that own it.
type Descriptor struct {
	Seq      []SeqItem
	Elements []Element
	Node     Element // the element that materialises the node
}

// Insertion records where a descriptor was placed so it can be removed.
type Insertion struct {
	Desc Descriptor
	Idx  int
	T    float64
}

// Model is a complete optical system.
type Model struct {
	Seq   *SeqModel
	Ele   *ElementModel
	Parax *ParaxialModel
	Spec  FirstOrderSpec
}

// NewModel creates an empty system with an object at objDist.
func NewModel(spec FirstOrderSpec, objDist float64) *Model {
	m := &Model{
		Seq:  NewSeqModel(objDist),
		Ele:  &ElementModel{},
		Spec: spec,
	}
	obj, img := m.Seq.Ifcs[0], m.Seq.Ifcs[1]
	m.Ele.Add(
		&Dummy{elementBase{"Object"}, obj},
		&AirGap{G: m.Seq.Gaps[0]},
		&Dummy{elementBase{"Image"}, img},
	)
	m.Parax = NewParaxialModel(m)
	return m
}

// InsertIfcGpEle inserts a descriptor before the interface at idx. The
// last gap of the descriptor gets thickness t.
func (m *Model) InsertIfcGpEle(desc Descriptor, idx int, t float64) error {
	if len(desc.Seq) == 0 {
		return fmt.Errorf("insert at %d: empty descriptor", idx)
	}
	desc.Seq[len(desc.Seq)-1].Gap.Thi = t
	if err := m.Seq.Insert(idx, desc.Seq); err != nil {
		return err
	}
	m.Ele.Add(desc.Elements...)
	for _, it := range desc.Seq {
		it.Ifc.Update()
	}
	return m.SyncParaxial()
}

// RemoveIfcGpEle removes the interfaces, gaps and elements of an earlier
// insertion.
func (m *Model) RemoveIfcGpEle(ins Insertion) error {
	for _, it := range ins.Desc.Seq {
		if err := m.Seq.Remove(it.Ifc); err != nil {
			return err
		}
	}
	for _, e := range ins.Desc.Elements {
		m.Ele.Remove(e)
	}
	return m.SyncParaxial()
}

// SyncParaxial rebuilds the paraxial model when its surface count no
// longer matches the sequential model.
func (m *Model) SyncParaxial() error {
	if m.Parax == nil {
		m.Parax = NewParaxialModel(m)
	}
	if len(m.Parax.Sys) == m.Seq.NumSurfaces() {
		return nil
	}
	return m.Parax.Build()
}

// Append inserts a descriptor just before the image surface.
func (m *Model) Append(desc Descriptor, t float64) error {
	return m.InsertIfcGpEle(desc, m.Seq.NumSurfaces()-1, t)
}

// SolveImageDistance moves the image surface to the paraxial focus.
func (m *Model) SolveImageDistance() error {
	if err := m.Parax.Build(); err != nil {
		return err
	}
	pm := m.Parax
	last := len(pm.Sys) - 2
	if pm.Ax[last].Slp == 0 {
		return fmt.Errorf("solve image distance: afocal system")
	}
	tau := -pm.Ax[last].Ht / pm.Ax[last].Slp
	m.Seq.Gaps[last].Thi = pm.Sys[last].Indx * tau
	return pm.Build()
}
