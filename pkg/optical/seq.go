package optical

import "fmt"

// Medium is the optical material filling a gap.
type Medium struct {
	Name string
	N    float64
}

// Air is the default medium.
var Air = Medium{Name: "air", N: 1.0}

// Gap is the space following an interface. Thi is signed: it is negative
// while light travels in the -z direction after an odd number of
// reflections.
type Gap struct {
	Thi    float64
	Medium Medium
}

// NewGap creates a gap of the given thickness in a medium.
func NewGap(thi float64, m Medium) *Gap {
	return &Gap{Thi: thi, Medium: m}
}

// SeqItem pairs an interface with the gap that follows it.
type SeqItem struct {
	Ifc *Surface
	Gap *Gap
}

// SeqModel is the ordered sequence of interfaces and gaps, from the object
// surface to the image surface. len(Gaps) == len(Ifcs)-1.
type SeqModel struct {
	Ifcs []*Surface
	Gaps []*Gap

	// StopSurface is the aperture stop index, or -1 for a floating stop.
	StopSurface int
}

// NewSeqModel creates a sequence holding only an object and an image
// surface separated by objDist in air.
func NewSeqModel(objDist float64) *SeqModel {
	return &SeqModel{
		Ifcs:        []*Surface{NewSurface("Obj", 0), NewSurface("Img", 0)},
		Gaps:        []*Gap{NewGap(objDist, Air)},
		StopSurface: -1,
	}
}

// NumSurfaces returns the number of interfaces, object and image included.
func (sm *SeqModel) NumSurfaces() int {
	return len(sm.Ifcs)
}

// IndexOf returns the position of ifc, or -1.
func (sm *SeqModel) IndexOf(ifc *Surface) int {
	for i, s := range sm.Ifcs {
		if s == ifc {
			return i
		}
	}
	return -1
}

// ZDirs returns the propagation direction (+1 or -1) after each surface.
func (sm *SeqModel) ZDirs() []float64 {
	z := make([]float64, len(sm.Ifcs))
	dir := 1.0
	for i, s := range sm.Ifcs {
		if s.Mode == Reflect {
			dir = -dir
		}
		z[i] = dir
	}
	return z
}

// Indices returns the signed refractive index after each surface. The
// image surface takes the index of the last gap.
func (sm *SeqModel) Indices() []float64 {
	z := sm.ZDirs()
	n := make([]float64, len(sm.Ifcs))
	for i := range sm.Ifcs {
		g := i
		if g >= len(sm.Gaps) {
			g = len(sm.Gaps) - 1
		}
		idx := 1.0
		if g >= 0 {
			idx = sm.Gaps[g].Medium.N
		}
		n[i] = z[i] * idx
	}
	return n
}

// Insert places items before the interface at idx. Inserted gaps other
// than the last take the sign of the local propagation direction.
func (sm *SeqModel) Insert(idx int, items []SeqItem) error {
	if idx < 1 || idx > len(sm.Ifcs)-1 {
		return fmt.Errorf("insert at %d: %w", idx, ErrNodeRange)
	}
	k := len(items)
	ifcs := make([]*Surface, 0, len(sm.Ifcs)+k)
	ifcs = append(ifcs, sm.Ifcs[:idx]...)
	gaps := make([]*Gap, 0, len(sm.Gaps)+k)
	gaps = append(gaps, sm.Gaps[:idx]...)
	for _, it := range items {
		ifcs = append(ifcs, it.Ifc)
		gaps = append(gaps, it.Gap)
	}
	ifcs = append(ifcs, sm.Ifcs[idx:]...)
	gaps = append(gaps, sm.Gaps[idx:]...)
	sm.Ifcs, sm.Gaps = ifcs, gaps

	z := sm.ZDirs()
	for i := idx; i < idx+k-1; i++ {
		if z[i]*sm.Gaps[i].Thi < 0 {
			sm.Gaps[i].Thi = -sm.Gaps[i].Thi
		}
	}
	if sm.StopSurface >= idx {
		sm.StopSurface += k
	}
	return nil
}

// Remove deletes ifc and the gap that follows it. Removing the stop
// surface makes the stop float.
func (sm *SeqModel) Remove(ifc *Surface) error {
	i := sm.IndexOf(ifc)
	if i < 1 || i > len(sm.Ifcs)-2 {
		return fmt.Errorf("remove %v: %w", ifc, ErrNodeRange)
	}
	sm.Ifcs = append(sm.Ifcs[:i], sm.Ifcs[i+1:]...)
	sm.Gaps = append(sm.Gaps[:i], sm.Gaps[i+1:]...)
	switch {
	case sm.StopSurface == i:
		sm.StopSurface = -1
	case sm.StopSurface > i:
		sm.StopSurface--
	}
	return nil
}
