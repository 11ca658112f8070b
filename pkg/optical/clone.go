package optical

import "gonum.org/v1/gonum/mat"

// cloner maps the interfaces and gaps of a model to their copies so
// elements of the copy point into the copied sequence.
type cloner struct {
	ifcs map[*Surface]*Surface
	gaps map[*Gap]*Gap
}

func (c *cloner) surface(s *Surface) *Surface {
	if s == nil {
		return nil
	}
	if n, ok := c.ifcs[s]; ok {
		return n
	}
	n := *s
	if s.Decenter != nil {
		d := *s.Decenter
		if s.Decenter.RotMat != nil {
			d.RotMat = mat.DenseCopyOf(s.Decenter.RotMat)
		}
		n.Decenter = &d
	}
	n.ClearApertures = cloneApertures(s.ClearApertures)
	n.EdgeApertures = cloneApertures(s.EdgeApertures)
	c.ifcs[s] = &n
	return &n
}

func (c *cloner) gap(g *Gap) *Gap {
	if g == nil {
		return nil
	}
	if n, ok := c.gaps[g]; ok {
		return n
	}
	n := *g
	c.gaps[g] = &n
	return &n
}

func cloneApertures(as []Aperture) []Aperture {
	if as == nil {
		return nil
	}
	out := make([]Aperture, len(as))
	for i, a := range as {
		switch a := a.(type) {
		case *Circular:
			v := *a
			out[i] = &v
		case *Rectangular:
			v := *a
			out[i] = &v
		case *Elliptical:
			v := *a
			out[i] = &v
		default:
			out[i] = a
		}
	}
	return out
}

func (c *cloner) element(e Element) Element {
	switch e := e.(type) {
	case *Dummy:
		return &Dummy{e.elementBase, c.surface(e.S)}
	case *ThinLens:
		return &ThinLens{e.elementBase, c.surface(e.S)}
	case *Mirror:
		return &Mirror{e.elementBase, c.surface(e.S)}
	case *Lens:
		return &Lens{e.elementBase, c.surface(e.S1), c.surface(e.S2), c.gap(e.G)}
	case *AirGap:
		return &AirGap{e.elementBase, c.gap(e.G)}
	}
	return e
}

// Clone returns a deep copy of the model. The copy shares nothing with m,
// so edits to one leave the other untouched.
func (m *Model) Clone() *Model {
	c := &cloner{ifcs: make(map[*Surface]*Surface), gaps: make(map[*Gap]*Gap)}

	seq := &SeqModel{
		Ifcs:        make([]*Surface, len(m.Seq.Ifcs)),
		Gaps:        make([]*Gap, len(m.Seq.Gaps)),
		StopSurface: m.Seq.StopSurface,
	}
	for i, s := range m.Seq.Ifcs {
		seq.Ifcs[i] = c.surface(s)
	}
	for i, g := range m.Seq.Gaps {
		seq.Gaps[i] = c.gap(g)
	}

	ele := &ElementModel{counts: make(map[string]int, len(m.Ele.counts))}
	for k, v := range m.Ele.counts {
		ele.counts[k] = v
	}
	for _, e := range m.Ele.Elements {
		ele.Elements = append(ele.Elements, c.element(e))
	}

	spec := m.Spec
	if m.Spec.ChiefSlope != nil {
		v := *m.Spec.ChiefSlope
		spec.ChiefSlope = &v
	}

	n := &Model{Seq: seq, Ele: ele, Spec: spec}
	n.Parax = NewParaxialModel(n)
	if m.Parax != nil {
		n.Parax.Sys = append([]SysRecord(nil), m.Parax.Sys...)
		n.Parax.Ax = append([]RayRecord(nil), m.Parax.Ax...)
		n.Parax.Pr = append([]RayRecord(nil), m.Parax.Pr...)
		n.Parax.OptInv = m.Parax.OptInv
	}
	return n
}
