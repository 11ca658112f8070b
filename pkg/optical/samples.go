package optical

import (
	"fmt"
	"sort"
)

// DefaultSpec is the first order spec used by the sample lenses.
// The object sits below the axis, so the height diagram runs clockwise
// from the object node and the invariant is positive.
var DefaultSpec = FirstOrderSpec{ObjectSlope: 0.025, ObjectHeight: -10}

type sampleElement struct {
	factory *Factory
	power   float64
	sd      float64
	thi     float64
	tilt    float64
	// aperture gives the clear aperture shape; it is scaled to sd.
	aperture Aperture
}

type sample struct {
	objDist  float64
	elements []sampleElement
	stop     int
}

var samples = map[string]sample{
	"singlet": {
		objDist:  200,
		elements: []sampleElement{{factory: LensFactory, power: 0.02, sd: 10, thi: 50}},
		stop:     1,
	},
	"triplet": {
		objDist: 200,
		elements: []sampleElement{
			{factory: ThinLensFactory, power: 0.025, sd: 8, thi: 8},
			{factory: ThinLensFactory, power: -0.05, sd: 6, thi: 8},
			{factory: ThinLensFactory, power: 0.025, sd: 8, thi: 50},
		},
		stop: 2,
	},
	"telephoto": {
		objDist: 200,
		elements: []sampleElement{
			{factory: ThinLensFactory, power: 0.02, sd: 10, thi: 20},
			{factory: ThinLensFactory, power: -0.015, sd: 8, thi: 50},
		},
		stop: -1,
	},
	"mirror": {
		objDist: 200,
		elements: []sampleElement{{
			factory: MirrorFactory, power: 0.01, sd: 12, thi: -100, tilt: 5,
			aperture: &Rectangular{XHalfWidth: 3, YHalfWidth: 4},
		}},
		stop: 1,
	},
}

// SampleNames returns the names of the built in lenses.
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for k := range samples {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Sample builds one of the built in lenses with the image at focus.
func Sample(name string) (*Model, error) {
	s, ok := samples[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q", name)
	}
	m := NewModel(DefaultSpec, s.objDist)
	for _, e := range s.elements {
		desc, err := e.factory.Create(e.power, e.sd)
		if err != nil {
			return nil, err
		}
		if e.tilt != 0 {
			desc.Seq[0].Ifc.Decenter = NewDecenterData(DecenterBend, 0, 0, e.tilt, 0, 0)
		}
		if e.aperture != nil {
			ifc := desc.Seq[0].Ifc
			ifc.ClearApertures = cloneApertures([]Aperture{e.aperture})
			ifc.SetMaxAperture(e.sd)
		}
		if err := m.Append(desc, e.thi); err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
	}
	m.Seq.StopSurface = s.stop
	if err := m.SolveImageDistance(); err != nil {
		return nil, fmt.Errorf("sample %s: %w", name, err)
	}
	return m, nil
}
