package optical

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func mustSample(t *testing.T, name string) *Model {
	t.Helper()
	m, err := Sample(name)
	if err != nil {
		t.Fatalf("Sample(%q): %v", name, err)
	}
	return m
}

func thinLensModel(t *testing.T, power float64) *Model {
	t.Helper()
	m := NewModel(DefaultSpec, 200)
	desc, err := ThinLensFactory.Create(power, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Append(desc, 100); err != nil {
		t.Fatal(err)
	}
	m.Seq.StopSurface = 1
	if err := m.SolveImageDistance(); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBuildThinLens(t *testing.T) {
	m := thinLensModel(t, 0.01)
	pm := m.Parax

	if got := m.Seq.Gaps[1].Thi; math.Abs(got-200) > 1e-9 {
		t.Errorf("image distance = %v, want 200", got)
	}
	diff(t, []RayRecord{{0, 0.025}, {5, -0.025}, {0, -0.025}}, pm.Ax, approx)

	fod := pm.FirstOrder()
	diff(t, 100.0, fod.EFL, approx)
	diff(t, -1.0, fod.Magnification, approx)
	diff(t, 200.0, fod.ObjectDistance, approx)
	diff(t, 200.0, fod.ImageDistance, approx)
}

// invariant evaluates the Lagrange invariant at every surface.
func invariant(pm *ParaxialModel) []float64 {
	h := make([]float64, len(pm.Sys))
	for i := range pm.Sys {
		h[i] = pm.Pr[i].Slp*pm.Ax[i].Ht - pm.Ax[i].Slp*pm.Pr[i].Ht
	}
	return h
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestInvariantIsConstant(t *testing.T) {
	for _, name := range SampleNames() {
		t.Run(name, func(t *testing.T) {
			pm := mustSample(t, name).Parax
			diff(t, constant(pm.Len(), pm.OptInv), invariant(pm), approx)
		})
	}
}

func TestSamples(t *testing.T) {
	diff(t, []string{"mirror", "singlet", "telephoto", "triplet"}, SampleNames())

	m := mustSample(t, "mirror")
	if got := m.Seq.Gaps[1].Thi; math.Abs(got+200) > 1e-9 {
		t.Errorf("mirror image distance = %v, want -200", got)
	}
	diff(t, []float64{1, -1, -1}, m.Seq.Indices())

	if _, err := Sample("nope"); err == nil {
		t.Error("unknown sample: want error")
	}
}

// retrace checks that the lens data reproduces both rays.
func retrace(t *testing.T, pm *ParaxialModel) {
	t.Helper()
	diff(t, pm.Ax, trace(pm.Sys, pm.Ax[0].Ht, pm.Ax[0].Slp), approx)
	diff(t, pm.Pr, trace(pm.Sys, pm.Pr[0].Ht, pm.Pr[0].Slp), approx)
}

func TestApplyHtDgmData(t *testing.T) {
	pm := mustSample(t, "triplet").Parax
	before := append([]SysRecord(nil), pm.Sys...)

	// reapplying the current vertex is a no-op
	v := geom.Pt(pm.Pr[2].Ht, pm.Ax[2].Ht)
	if err := pm.ApplyHtDgmData(2, v); err != nil {
		t.Fatal(err)
	}
	diff(t, before, pm.Sys, approx)

	if err := pm.ApplyHtDgmData(2, v.Add(geom.Pt(0.5, 0.3))); err != nil {
		t.Fatal(err)
	}
	diff(t, geom.Pt(v.X+0.5, v.Y+0.3), geom.Pt(pm.Pr[2].Ht, pm.Ax[2].Ht), approx)
	retrace(t, pm)
	diff(t, constant(pm.Len(), pm.OptInv), invariant(pm), approx)

	if err := pm.ApplyHtDgmData(9, v); !errors.Is(err, ErrNodeRange) {
		t.Errorf("out of range: got %v", err)
	}
}

func TestApplySlopeDgmData(t *testing.T) {
	pm := mustSample(t, "triplet").Parax
	before := append([]SysRecord(nil), pm.Sys...)

	v := geom.Pt(pm.Pr[2].Slp, pm.Ax[2].Slp)
	if err := pm.ApplySlopeDgmData(2, v); err != nil {
		t.Fatal(err)
	}
	diff(t, before, pm.Sys, approx)

	if err := pm.ApplySlopeDgmData(2, v.Add(geom.Pt(0.002, -0.001))); err != nil {
		t.Fatal(err)
	}
	retrace(t, pm)

	// the image node edits the final slope
	last := pm.Len() - 1
	if err := pm.ApplySlopeDgmData(last, geom.Pt(0.01, -0.02)); err != nil {
		t.Fatal(err)
	}
	diff(t, RayRecord{Ht: pm.Ax[last].Ht, Slp: -0.02}, pm.Ax[last-1], cmpopts.IgnoreFields(RayRecord{}, "Ht"))
	diff(t, pm.Ax[last-1].Slp, pm.Ax[last].Slp)
}

func TestAddNodeOnSegment(t *testing.T) {
	pm := mustSample(t, "triplet").Parax
	n := pm.Len()
	tau0 := pm.Sys[0].Tau
	pwr := []float64{pm.Sys[1].Pwr, pm.Sys[2].Pwr}

	mid := geom.PointOnLine(geom.Pt(pm.Pr[0].Ht, pm.Ax[0].Ht), geom.Pt(pm.Pr[1].Ht, pm.Ax[1].Ht), 0.5)
	node, err := pm.AddNode(0, mid, Ht, Transmit)
	if err != nil {
		t.Fatal(err)
	}
	if node != 1 || pm.Len() != n+1 {
		t.Fatalf("node %d, len %d", node, pm.Len())
	}
	diff(t, 0.0, pm.Sys[1].Pwr, cmpopts.EquateApprox(0, 1e-12))
	diff(t, []float64{tau0 / 2, tau0 / 2}, []float64{pm.Sys[0].Tau, pm.Sys[1].Tau}, approx)
	diff(t, pwr, []float64{pm.Sys[2].Pwr, pm.Sys[3].Pwr}, approx)
	retrace(t, pm)
}

func TestAddNodeClampsAndReflects(t *testing.T) {
	pm := thinLensModel(t, 0.01).Parax
	n := pm.Len()
	v := geom.Pt(pm.Pr[1].Ht, pm.Ax[1].Ht+1)

	node, err := pm.AddNode(n+3, v, Ht, Reflect)
	if err != nil {
		t.Fatal(err)
	}
	if node != n-1 {
		t.Errorf("clamped node = %d, want %d", node, n-1)
	}
	if pm.Sys[node].Rmd != Reflect {
		t.Errorf("mode = %s", pm.Sys[node].Rmd)
	}
	diff(t, []float64{1, 1, -1, -1}, []float64{pm.Sys[0].Indx, pm.Sys[1].Indx, pm.Sys[2].Indx, pm.Sys[3].Indx})
}

func TestAssignObjectToNode(t *testing.T) {
	m := mustSample(t, "triplet")
	pm := m.Parax
	n := pm.Len()

	v := geom.Pt(pm.Pr[0].Ht+2, pm.Ax[0].Ht+2)
	node, err := pm.AddNode(0, v, Ht, Transmit)
	if err != nil {
		t.Fatal(err)
	}
	want := pm.Sys[node]
	tau0 := pm.Sys[0].Tau

	ins, err := pm.AssignObjectToNode(node, ThinLensFactory, true)
	if err != nil {
		t.Fatal(err)
	}
	if m.Seq.NumSurfaces() != n+1 || pm.Len() != n+1 {
		t.Fatalf("surfaces %d, parax %d", m.Seq.NumSurfaces(), pm.Len())
	}
	diff(t, want.Pwr, m.Seq.Ifcs[node].OpticalPower(), approx)
	diff(t, tau0, m.Seq.Gaps[0].Thi, approx)
	diff(t, want.Tau, ins.T, approx)
	if ins.Idx != node || ins.Desc.Node.Label() != "TL4" {
		t.Errorf("insertion %d %s", ins.Idx, ins.Desc.Node.Label())
	}

	if err := m.RemoveIfcGpEle(ins); err != nil {
		t.Fatal(err)
	}
	if m.Seq.NumSurfaces() != n || pm.Len() != n {
		t.Errorf("after remove: surfaces %d, parax %d", m.Seq.NumSurfaces(), pm.Len())
	}
	if e := m.Ele.ForSurface(ins.Desc.Seq[0].Ifc); e != nil {
		t.Errorf("removed element still present: %s", e.Label())
	}

	if _, err := pm.AssignObjectToNode(0, ThinLensFactory, false); !errors.Is(err, ErrNodeRange) {
		t.Errorf("object node: got %v", err)
	}
}

func TestObjectForNode(t *testing.T) {
	m := mustSample(t, "singlet")
	for _, node := range []int{1, 2} {
		ins, err := m.Parax.ObjectForNode(node)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := ins.Desc.Node.(*Lens); !ok || ins.Idx != 1 || len(ins.Desc.Seq) != 2 {
			t.Errorf("node %d: %+v", node, ins)
		}
		if len(ins.Desc.Elements) != 2 {
			t.Errorf("node %d: want lens and air gap, got %d elements", node, len(ins.Desc.Elements))
		}
	}
	for _, node := range []int{0, 3, 7} {
		if _, err := m.Parax.ObjectForNode(node); !errors.Is(err, ErrNoElement) {
			t.Errorf("node %d: got %v", node, err)
		}
	}
}

func TestToSeqModelRoundTrip(t *testing.T) {
	m := mustSample(t, "telephoto")
	pm := m.Parax
	if err := pm.ApplyHtDgmData(1, geom.Pt(pm.Pr[1].Ht-1, pm.Ax[1].Ht+0.5)); err != nil {
		t.Fatal(err)
	}
	sys := append([]SysRecord(nil), pm.Sys...)
	ax := append([]RayRecord(nil), pm.Ax...)
	pr := append([]RayRecord(nil), pm.Pr...)

	if err := pm.ToSeqModel(); err != nil {
		t.Fatal(err)
	}
	if err := pm.Build(); err != nil {
		t.Fatal(err)
	}
	diff(t, sys, pm.Sys, approx)
	diff(t, ax, pm.Ax, approx)
	diff(t, pr, pm.Pr, approx)
}

func TestFactories(t *testing.T) {
	for _, name := range []string{"thinlens", "lens", "mirror"} {
		f, err := FactoryByName(name)
		if err != nil {
			t.Fatal(err)
		}
		desc, err := f.Create(0.02, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := desc.Elements[len(desc.Elements)-1].(*AirGap); !ok {
			t.Errorf("%s: last element is not an air gap", name)
		}
		if got := desc.Seq[0].Ifc.MaxAperture; got != 1 {
			t.Errorf("%s: default semi-diameter %v", name, got)
		}
	}
	if _, err := FactoryByName("prism"); !errors.Is(err, ErrUnknownFactory) {
		t.Errorf("got %v", err)
	}

	desc, _ := LensFactory.Create(0.02, 10)
	diff(t, 2.5, desc.Seq[0].Gap.Thi)
	diff(t, 0.02/(2*(BK7.N-1)), desc.Seq[0].Ifc.Profile.Cv, approx)
}

func TestSeqInsertRemoveShiftsStop(t *testing.T) {
	sm := NewSeqModel(100)
	items := []SeqItem{{Ifc: NewSurface("a", 0), Gap: NewGap(5, Air)}}
	if err := sm.Insert(1, items); err != nil {
		t.Fatal(err)
	}
	sm.StopSurface = 1
	if err := sm.Insert(1, []SeqItem{{Ifc: NewSurface("b", 0), Gap: NewGap(3, Air)}}); err != nil {
		t.Fatal(err)
	}
	if sm.StopSurface != 2 {
		t.Errorf("stop = %d, want 2", sm.StopSurface)
	}
	if err := sm.Remove(items[0].Ifc); err != nil {
		t.Fatal(err)
	}
	if sm.StopSurface != -1 {
		t.Errorf("stop = %d, want floating", sm.StopSurface)
	}
	if err := sm.Insert(0, items); !errors.Is(err, ErrNodeRange) {
		t.Errorf("insert before object: got %v", err)
	}
}

func TestBendDecenter(t *testing.T) {
	d := NewDecenterData(DecenterBend, 0, 0, 5, 0, 0)
	rot, dec := d.TformAfterSurf()
	if dec != (r3.Vec{}) {
		t.Errorf("dec = %v", dec)
	}
	s, c := math.Sincos(5 * math.Pi / 180)
	diff(t, r3.Vec{Y: s, Z: c}, Rotate(rot, r3.Vec{Z: 1}), approx)

	d = NewDecenterData(DecenterLocal, 1, 2, 0, 0, 0)
	if rot, _ := d.TformBeforeSurf(); rot != nil {
		t.Error("untilted decenter should have no rotation")
	}
}

func TestSetMaxApertureScalesApertures(t *testing.T) {
	s := &Surface{ClearApertures: []Aperture{
		&Rectangular{XHalfWidth: 3, YHalfWidth: 4},
		&Circular{Radius: 2},
		&Elliptical{XHalfWidth: 1, YHalfWidth: 2},
	}}
	s.SetMaxAperture(10)
	for i, a := range s.ClearApertures {
		if got := a.MaxDimension(); math.Abs(got-10) > 1e-12 {
			t.Errorf("aperture %d: max dimension %g, want 10", i, got)
		}
	}
	x, y := s.ClearApertures[0].Dimension()
	diff(t, [2]float64{6, 8}, [2]float64{x, y}, approx)
	diff(t, [2]float64{-10, 10}, s.YApertureExtent(), approx)
	if got := s.SurfaceOD(); math.Abs(got-10) > 1e-12 {
		t.Errorf("surface OD = %g", got)
	}
}

func TestMirrorSampleAperture(t *testing.T) {
	m := mustSample(t, "mirror")
	ifc := m.Seq.Ifcs[1]
	if len(ifc.ClearApertures) != 1 {
		t.Fatalf("clear apertures = %d, want 1", len(ifc.ClearApertures))
	}
	diff(t, [2]float64{-9.6, 9.6}, ifc.YApertureExtent(), approx)

	// each build gets its own aperture
	other := mustSample(t, "mirror")
	other.Seq.Ifcs[1].SetMaxAperture(1)
	diff(t, [2]float64{-9.6, 9.6}, ifc.YApertureExtent(), approx)
}

func TestAxisDirections(t *testing.T) {
	dirs := mustSample(t, "mirror").Seq.AxisDirections()
	if len(dirs) != 3 {
		t.Fatalf("dirs = %d, want 3", len(dirs))
	}
	diff(t, r3.Vec{Z: 1}, dirs[0], approx)
	s, c := math.Sincos(10 * math.Pi / 180)
	diff(t, r3.Vec{Y: s, Z: c}, dirs[1], approx)
	diff(t, dirs[1], dirs[2], approx)

	for _, d := range mustSample(t, "triplet").Seq.AxisDirections() {
		diff(t, r3.Vec{Z: 1}, d, approx)
	}
}
