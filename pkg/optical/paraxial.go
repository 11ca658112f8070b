package optical

import (
	"fmt"
	"math"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// Field selects a value of a paraxial ray record.
type Field int

const (
	Ht  Field = iota // ray height
	Slp              // reduced ray slope, n*u
)

func (f Field) String() string {
	if f == Slp {
		return "slp"
	}
	return "ht"
}

// RayRecord is a paraxial ray at one surface. Slp is the slope after the
// surface.
type RayRecord struct {
	Ht, Slp float64
}

// Get returns the selected field.
func (r RayRecord) Get(f Field) float64 {
	if f == Slp {
		return r.Slp
	}
	return r.Ht
}

// Set assigns the selected field.
func (r *RayRecord) Set(f Field, v float64) {
	if f == Slp {
		r.Slp = v
		return
	}
	r.Ht = v
}

// SysRecord holds the paraxial lens data of one surface: its power, the
// reduced thickness and signed index of the following gap, and the
// interaction mode.
type SysRecord struct {
	Pwr  float64
	Tau  float64
	Indx float64
	Rmd  InteractionMode
}

// degenerate bounds reduced thicknesses and powers treated as zero.
const degenerate = 1e-12

// ParaxialModel is the first order model of a lens: per surface lens data
// plus an axial (marginal) and a chief (principal) ray.
type ParaxialModel struct {
	Sys    []SysRecord
	Ax     []RayRecord
	Pr     []RayRecord
	OptInv float64

	model *Model
}

// NewParaxialModel creates an empty paraxial model for m. Call Build to
// populate it.
func NewParaxialModel(m *Model) *ParaxialModel {
	return &ParaxialModel{model: m}
}

// Len returns the number of surfaces.
func (pm *ParaxialModel) Len() int {
	return len(pm.Sys)
}

// Build derives the lens data from the sequential model and traces the
// axial and chief rays.
func (pm *ParaxialModel) Build() error {
	sm := pm.model.Seq
	n := sm.NumSurfaces()
	if n < 2 {
		return fmt.Errorf("build paraxial model: %d surfaces: %w", n, ErrSurfaceCount)
	}
	idx := sm.Indices()

	sys := make([]SysRecord, n)
	for i, ifc := range sm.Ifcs {
		nb := idx[0]
		if i > 0 {
			nb = idx[i-1]
		}
		ifc.DeltaN = idx[i] - nb
		sys[i] = SysRecord{
			Pwr:  ifc.OpticalPower(),
			Indx: idx[i],
			Rmd:  ifc.Mode,
		}
		if i < n-1 {
			sys[i].Tau = sm.Gaps[i].Thi / idx[i]
		}
	}
	sys[0].Pwr, sys[n-1].Pwr = 0, 0

	spec := pm.model.Spec
	var chiefSlp float64
	stop := sm.StopSurface
	switch {
	case stop < 0 && spec.ChiefSlope != nil:
		chiefSlp = *spec.ChiefSlope
	default:
		if stop < 0 || stop > n-1 {
			stop = 1
		}
		a := trace(sys, 1, 0)[stop].Ht
		b := trace(sys, 0, 1)[stop].Ht
		if math.Abs(b) < degenerate {
			return fmt.Errorf("build paraxial model: stop %d: %w", stop, ErrStopAiming)
		}
		chiefSlp = -spec.ObjectHeight * a / b
	}

	ax := trace(sys, 0, spec.ObjectSlope)
	pr := trace(sys, spec.ObjectHeight, chiefSlp)
	inv := pr[0].Slp*ax[0].Ht - ax[0].Slp*pr[0].Ht
	if math.Abs(inv) < degenerate {
		return fmt.Errorf("build paraxial model: %w", ErrZeroInvariant)
	}

	pm.Sys, pm.Ax, pm.Pr, pm.OptInv = sys, ax, pr, inv
	return nil
}

// trace follows a ray through the lens data: y[i+1] = y[i] + tau[i]*w[i],
// w[i+1] = w[i] - y[i+1]*pwr[i+1].
func trace(sys []SysRecord, y0, w0 float64) []RayRecord {
	r := make([]RayRecord, len(sys))
	r[0] = RayRecord{Ht: y0, Slp: w0}
	for i := 1; i < len(sys); i++ {
		y := r[i-1].Ht + sys[i-1].Tau*r[i-1].Slp
		r[i] = RayRecord{Ht: y, Slp: r[i-1].Slp - y*sys[i].Pwr}
	}
	return r
}

// ToSeqModel applies the paraxial lens data (powers, reduced distances)
// to the sequential model. The object space rays are recorded in the
// model's first order spec so a later Build reproduces them.
func (pm *ParaxialModel) ToSeqModel() error {
	sm := pm.model.Seq
	if len(pm.Sys) != sm.NumSurfaces() {
		return fmt.Errorf("paraxial to sequential: %d vs %d: %w",
			len(pm.Sys), sm.NumSurfaces(), ErrSurfaceCount)
	}
	for i, ifc := range sm.Ifcs {
		rec := pm.Sys[i]
		if i < len(sm.Gaps) {
			sm.Gaps[i].Thi = rec.Indx * rec.Tau
		}
		nb := pm.Sys[0].Indx
		if i > 0 {
			nb = pm.Sys[i-1].Indx
		}
		ifc.Mode = rec.Rmd
		ifc.SetOpticalPower(rec.Pwr, nb, rec.Indx)
	}

	spec := &pm.model.Spec
	spec.ObjectSlope = pm.Ax[0].Slp
	spec.ObjectHeight = pm.Pr[0].Ht
	chief := pm.Pr[0].Slp
	spec.ChiefSlope = &chief
	return nil
}

func (pm *ParaxialModel) checkNode(node int) error {
	if node < 0 || node >= len(pm.Sys) {
		return fmt.Errorf("node %d of %d: %w", node, len(pm.Sys), ErrNodeRange)
	}
	return nil
}

// updateGap recomputes the reduced thickness between surfaces i and i+1
// from the ray heights, and the ray slopes across that gap. A degenerate
// thickness keeps the previous slopes.
func (pm *ParaxialModel) updateGap(i int) {
	ax, pr := pm.Ax, pm.Pr
	tau := (ax[i].Ht*pr[i+1].Ht - ax[i+1].Ht*pr[i].Ht) / pm.OptInv
	if math.Abs(tau) < degenerate {
		return
	}
	pm.Sys[i].Tau = tau
	ax[i].Slp = (ax[i+1].Ht - ax[i].Ht) / tau
	pr[i].Slp = (pr[i+1].Ht - pr[i].Ht) / tau
}

// updatePower recomputes the power of surface i from the slopes on either
// side of it.
func (pm *ParaxialModel) updatePower(i int) {
	ax, pr := pm.Ax, pm.Pr
	pm.Sys[i].Pwr = (ax[i-1].Slp*pr[i].Slp - ax[i].Slp*pr[i-1].Slp) / pm.OptInv
}

// updateHeights recomputes the ray heights at surface i from the power
// and slope change. Zero power keeps the heights.
func (pm *ParaxialModel) updateHeights(i int) {
	pwr := pm.Sys[i].Pwr
	if math.Abs(pwr) < degenerate {
		return
	}
	pm.Ax[i].Ht = (pm.Ax[i-1].Slp - pm.Ax[i].Slp) / pwr
	pm.Pr[i].Ht = (pm.Pr[i-1].Slp - pm.Pr[i].Slp) / pwr
}

// ApplyHtDgmData moves node to vertex in a height diagram (x = chief ray
// height, y = axial ray height) and updates the adjacent thicknesses,
// slopes and powers.
func (pm *ParaxialModel) ApplyHtDgmData(node int, vertex geom.Point) error {
	if err := pm.checkNode(node); err != nil {
		return err
	}
	n := len(pm.Sys)
	pm.Pr[node].Ht = vertex.X
	pm.Ax[node].Ht = vertex.Y

	if node > 0 {
		pm.updateGap(node - 1)
	}
	if node < n-1 {
		pm.updateGap(node)
	}
	pm.holdImageSlope()
	for i := max(1, node-1); i <= min(n-2, node+1); i++ {
		pm.updatePower(i)
	}
	return nil
}

// ApplySlopeDgmData moves node to vertex in a slope diagram (x = chief ray
// slope, y = axial ray slope) and updates the adjacent powers, heights and
// thicknesses. Editing the image node edits the final slope.
func (pm *ParaxialModel) ApplySlopeDgmData(node int, vertex geom.Point) error {
	if err := pm.checkNode(node); err != nil {
		return err
	}
	n := len(pm.Sys)
	if node == n-1 && n > 1 {
		node = n - 2
	}
	if node == 0 && math.Abs(vertex.Y) < degenerate {
		return fmt.Errorf("node 0 slope %g: %w", vertex.Y, ErrObjectAtInfinity)
	}
	pm.Pr[node].Slp = vertex.X
	pm.Ax[node].Slp = vertex.Y
	pm.holdImageSlope()

	for c := node; c <= node+1; c++ {
		if c > 0 && c < n-1 {
			pm.updatePower(c)
			pm.updateHeights(c)
		}
	}
	if node == 0 {
		pm.moveObject()
	}
	for i := max(0, node-1); i <= min(n-3, node+1); i++ {
		tau := (pm.Ax[i].Ht*pm.Pr[i+1].Ht - pm.Ax[i+1].Ht*pm.Pr[i].Ht) / pm.OptInv
		if math.Abs(tau) >= degenerate {
			pm.Sys[i].Tau = tau
		}
	}
	// image heights follow the final slopes across the last gap
	last := n - 2
	if last >= 0 {
		pm.Ax[n-1].Ht = pm.Ax[last].Ht + pm.Sys[last].Tau*pm.Ax[last].Slp
		pm.Pr[n-1].Ht = pm.Pr[last].Ht + pm.Sys[last].Tau*pm.Pr[last].Slp
	}
	return nil
}

// moveObject places the object where the new object space rays reach the
// surface 1 heights. The axial ray keeps its object height, so the object
// distance and the chief ray height change. Behind surface 1 the invariant
// is unchanged; with no lens between object and image it follows the new
// object space rays.
func (pm *ParaxialModel) moveObject() {
	ax, pr := pm.Ax, pm.Pr
	tau := (ax[1].Ht - ax[0].Ht) / ax[0].Slp
	pm.Sys[0].Tau = tau
	pr[0].Ht = pr[1].Ht - tau*pr[0].Slp
	pm.OptInv = pr[0].Slp*ax[0].Ht - ax[0].Slp*pr[0].Ht
}

func (pm *ParaxialModel) holdImageSlope() {
	n := len(pm.Sys)
	if n < 2 {
		return
	}
	pm.Ax[n-1].Slp = pm.Ax[n-2].Slp
	pm.Pr[n-1].Slp = pm.Pr[n-2].Slp
}

// ApplyDgmData dispatches to the height or slope diagram update.
func (pm *ParaxialModel) ApplyDgmData(field Field, node int, vertex geom.Point) error {
	if field == Slp {
		return pm.ApplySlopeDgmData(node, vertex)
	}
	return pm.ApplyHtDgmData(node, vertex)
}

// AddNode splits the gap after surface idx with a zero power node at
// idx+1 placed at vertex. Nodes added in reflect mode flip the sign of
// the downstream indices. Returns the new node index.
func (pm *ParaxialModel) AddNode(idx int, vertex geom.Point, field Field, mode InteractionMode) (int, error) {
	n := len(pm.Sys)
	if n < 2 || idx < 0 {
		return 0, fmt.Errorf("add node after %d: %w", idx, ErrNodeRange)
	}
	if idx >= n-1 {
		idx = n - 2
	}
	node := idx + 1

	rec := SysRecord{Indx: pm.Sys[idx].Indx, Rmd: mode}
	ax := RayRecord{
		Ht:  (pm.Ax[idx].Ht + pm.Ax[idx+1].Ht) / 2,
		Slp: pm.Ax[idx].Slp,
	}
	pr := RayRecord{
		Ht:  (pm.Pr[idx].Ht + pm.Pr[idx+1].Ht) / 2,
		Slp: pm.Pr[idx].Slp,
	}
	pm.Sys = insertAt(pm.Sys, node, rec)
	pm.Ax = insertAt(pm.Ax, node, ax)
	pm.Pr = insertAt(pm.Pr, node, pr)

	if err := pm.ApplyDgmData(field, node, vertex); err != nil {
		return 0, err
	}
	if mode == Reflect {
		for i := node; i < len(pm.Sys); i++ {
			pm.Sys[i].Indx = -pm.Sys[i].Indx
		}
	}
	return node, nil
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// AssignObjectToNode creates an element with factory, using the power,
// semi-diameter and following gap of node, and inserts it before the
// interface currently at node. With insert set, node is a paraxial node
// that has no interface yet. The returned insertion removes the element.
func (pm *ParaxialModel) AssignObjectToNode(node int, factory *Factory, insert bool) (Insertion, error) {
	n := len(pm.Sys)
	if node <= 0 || node >= n-1 {
		return Insertion{}, fmt.Errorf("assign %s to node %d: %w", factory.Name, node, ErrNodeRange)
	}
	sm := pm.model.Seq
	want := n
	if insert {
		want = n - 1
	}
	if sm.NumSurfaces() != want {
		return Insertion{}, fmt.Errorf("assign %s to node %d: %w", factory.Name, node, ErrSurfaceCount)
	}

	rec := pm.Sys[node]
	thi := rec.Indx * rec.Tau
	sd := math.Abs(pm.Ax[node].Ht) + math.Abs(pm.Pr[node].Ht)
	desc, err := factory.Create(rec.Pwr, sd)
	if err != nil {
		return Insertion{}, fmt.Errorf("assign %s to node %d: %w", factory.Name, node, err)
	}
	if rec.Rmd == Reflect && factory.Mode != Reflect {
		desc.Seq[0].Ifc.Mode = Reflect
	}

	prev := pm.Sys[node-1]
	sm.Gaps[node-1].Thi = prev.Indx * prev.Tau

	ins := Insertion{Desc: desc, Idx: node, T: thi}
	if err := pm.model.InsertIfcGpEle(desc, node, thi); err != nil {
		return Insertion{}, err
	}
	return ins, nil
}

// ObjectForNode returns the insertion describing the element that owns
// the interface at node: its interfaces, their following gaps and the
// element itself.
func (pm *ParaxialModel) ObjectForNode(node int) (Insertion, error) {
	sm := pm.model.Seq
	if node <= 0 || node >= sm.NumSurfaces()-1 {
		return Insertion{}, fmt.Errorf("object for node %d: %w", node, ErrNoElement)
	}
	e := pm.model.Ele.ForSurface(sm.Ifcs[node])
	if e == nil {
		return Insertion{}, fmt.Errorf("object for node %d: %w", node, ErrNoElement)
	}
	if _, ok := e.(*Dummy); ok {
		return Insertion{}, fmt.Errorf("object for node %d: %w", node, ErrNoElement)
	}

	desc := Descriptor{Node: e, Elements: []Element{e}}
	for _, s := range e.Surfaces() {
		i := sm.IndexOf(s)
		desc.Seq = append(desc.Seq, SeqItem{Ifc: s, Gap: sm.Gaps[i]})
	}
	lastGap := desc.Seq[len(desc.Seq)-1].Gap
	if ag := pm.model.Ele.ForGap(lastGap); ag != nil && ag != e {
		desc.Elements = append(desc.Elements, ag)
	}
	first := sm.IndexOf(desc.Seq[0].Ifc)
	return Insertion{Desc: desc, Idx: first, T: lastGap.Thi}, nil
}

// FirstOrderData summarises the paraxial properties of a lens.
type FirstOrderData struct {
	EFL            float64
	Power          float64
	Magnification  float64
	ObjectDistance float64
	ImageDistance  float64
	TotalTrack     float64
	OptInv         float64
}

// FirstOrder computes first order data from the current model.
func (pm *ParaxialModel) FirstOrder() FirstOrderData {
	n := len(pm.Sys)
	fod := FirstOrderData{OptInv: pm.OptInv}
	if n < 3 {
		return fod
	}
	last := n - 2

	// parallel ray through surfaces 1..last
	y, w := 1.0, 0.0
	for i := 1; i <= last; i++ {
		w -= y * pm.Sys[i].Pwr
		if i < last {
			y += pm.Sys[i].Tau * w
		}
	}
	fod.Power = -w
	fod.EFL = math.Inf(1)
	if fod.Power != 0 {
		fod.EFL = 1 / fod.Power
	}
	if pm.Ax[last].Slp != 0 {
		fod.Magnification = pm.Ax[0].Slp / pm.Ax[last].Slp
	}
	fod.ObjectDistance = pm.Sys[0].Indx * pm.Sys[0].Tau
	fod.ImageDistance = pm.Sys[last].Indx * pm.Sys[last].Tau
	for i := 1; i < last; i++ {
		fod.TotalTrack += math.Abs(pm.Sys[i].Indx * pm.Sys[i].Tau)
	}
	return fod
}
