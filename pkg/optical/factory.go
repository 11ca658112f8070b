package optical

import (
	"fmt"
	"math"
)

// BK7 is the glass used for singlets.
var BK7 = Medium{Name: "N-BK7", N: 1.5168}

// Factory creates an element sequence for a node of given power and
// semi-diameter. Factories are identified by pointer.
type Factory struct {
	Name string
	Mode InteractionMode

	create func(power, sd float64) Descriptor
}

// Create builds a new descriptor. The last gap of the descriptor is owned
// by a new air gap element.
func (f *Factory) Create(power, sd float64) (Descriptor, error) {
	if f == nil || f.create == nil {
		return Descriptor{}, ErrUnknownFactory
	}
	if sd <= 0 {
		sd = 1
	}
	desc := f.create(power, sd)
	last := desc.Seq[len(desc.Seq)-1].Gap
	desc.Elements = append(desc.Elements, &AirGap{G: last})
	return desc, nil
}

func (f *Factory) String() string { return f.Name }

// ThinLensFactory creates a thin lens.
var ThinLensFactory = &Factory{
	Name: "thinlens",
	Mode: Transmit,
	create: func(power, sd float64) Descriptor {
		s := NewThinSurface("", power)
		s.SetMaxAperture(sd)
		tl := &ThinLens{S: s}
		return Descriptor{
			Seq:      []SeqItem{{Ifc: s, Gap: NewGap(0, Air)}},
			Elements: []Element{tl},
			Node:     tl,
		}
	},
}

// MirrorFactory creates a spherical mirror.
var MirrorFactory = &Factory{
	Name: "mirror",
	Mode: Reflect,
	create: func(power, sd float64) Descriptor {
		s := NewSurface("", -power/2)
		s.Mode = Reflect
		s.SetMaxAperture(sd)
		m := &Mirror{S: s}
		return Descriptor{
			Seq:      []SeqItem{{Ifc: s, Gap: NewGap(0, Air)}},
			Elements: []Element{m},
			Node:     m,
		}
	},
}

// LensFactory creates an equi-convex (or equi-concave) BK7 singlet whose
// thin lens power matches power.
var LensFactory = &Factory{
	Name: "lens",
	Mode: Transmit,
	create: func(power, sd float64) Descriptor {
		c1 := power / (2 * (BK7.N - 1))
		ct := math.Max(0.25*sd, 0.1)
		s1 := NewSurface("", c1)
		s2 := NewSurface("", -c1)
		s1.SetMaxAperture(sd)
		s2.SetMaxAperture(sd)
		g := NewGap(ct, BK7)
		l := &Lens{S1: s1, S2: s2, G: g}
		return Descriptor{
			Seq: []SeqItem{
				{Ifc: s1, Gap: g},
				{Ifc: s2, Gap: NewGap(0, Air)},
			},
			Elements: []Element{l},
			Node:     l,
		}
	},
}

// Factories lists the known element factories.
var Factories = []*Factory{ThinLensFactory, LensFactory, MirrorFactory}

// FactoryByName looks up a factory.
func FactoryByName(name string) (*Factory, error) {
	for _, f := range Factories {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownFactory)
}
