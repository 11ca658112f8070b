// Package optical provides the lens model behind a paraxial diagram: the
// sequential model of interfaces and gaps, the element model that groups
// them, and the paraxial model derived from both.
package optical

import (
	"fmt"
	"math"
)

// InteractionMode describes how a ray interacts with an interface.
type InteractionMode string

const (
	Transmit InteractionMode = "transmit"
	Reflect  InteractionMode = "reflect"
)

// ParseInteractionMode converts a string to an InteractionMode.
func ParseInteractionMode(s string) (InteractionMode, error) {
	switch InteractionMode(s) {
	case Transmit, Reflect:
		return InteractionMode(s), nil
	}
	return "", fmt.Errorf("unknown interaction mode %q", s)
}

// Spherical is a spherical surface profile given by its curvature.
type Spherical struct {
	Cv float64
}

// Sag returns the surface sag at (x, y).
func (p Spherical) Sag(x, y float64) float64 {
	r2 := x*x + y*y
	arg := 1 - p.Cv*p.Cv*r2
	if arg < 0 {
		return math.NaN()
	}
	return p.Cv * r2 / (1 + math.Sqrt(arg))
}

// Surface holds the profile, extent, position and orientation of an
// interface. A thin surface models a thin lens: its power is stored
// directly instead of being derived from curvature and index change.
type Surface struct {
	Label       string
	Mode        InteractionMode
	Profile     Spherical
	DeltaN      float64
	MaxAperture float64 // max aperture radius
	Decenter    *DecenterData

	Thin  bool
	Power float64 // used when Thin

	ClearApertures []Aperture
	EdgeApertures  []Aperture
}

// NewSurface creates a transmitting spherical surface.
func NewSurface(label string, cv float64) *Surface {
	return &Surface{
		Label:       label,
		Mode:        Transmit,
		Profile:     Spherical{Cv: cv},
		MaxAperture: 1,
	}
}

// NewThinSurface creates a thin lens interface of the given power.
func NewThinSurface(label string, power float64) *Surface {
	s := NewSurface(label, 0)
	s.Thin = true
	s.Power = power
	return s
}

func (s *Surface) String() string {
	if s.Thin {
		return fmt.Sprintf("ThinLens(lbl=%q, power=%g)", s.Label, s.Power)
	}
	return fmt.Sprintf("Surface(lbl=%q, cv=%g, mode=%s)", s.Label, s.Profile.Cv, s.Mode)
}

// Update refreshes derived data such as the decenter rotation.
func (s *Surface) Update() {
	if s.Decenter != nil {
		s.Decenter.Update()
	}
}

// OpticalPower returns the surface power.
func (s *Surface) OpticalPower() float64 {
	if s.Thin {
		return s.Power
	}
	return s.DeltaN * s.Profile.Cv
}

// SetOpticalPowerValue sets the power, keeping the current index change.
// A surface with no index change gets zero curvature.
func (s *Surface) SetOpticalPowerValue(pwr float64) {
	if s.Thin {
		s.Power = pwr
		return
	}
	if s.DeltaN != 0 {
		s.Profile.Cv = pwr / s.DeltaN
	} else {
		s.Profile.Cv = 0
	}
}

// SetOpticalPower sets the power for the given (signed) indices before
// and after the surface.
func (s *Surface) SetOpticalPower(pwr, nBefore, nAfter float64) {
	s.DeltaN = nAfter - nBefore
	s.SetOpticalPowerValue(pwr)
}

// SetMaxAperture sets the max aperture radius and scales the clear and
// edge apertures to it, keeping their aspect.
func (s *Surface) SetMaxAperture(maxAp float64) {
	s.MaxAperture = maxAp
	for _, aps := range [][]Aperture{s.ClearApertures, s.EdgeApertures} {
		for _, a := range aps {
			md := a.MaxDimension()
			if md == 0 {
				continue
			}
			x, y := a.Dimension()
			k := maxAp / md
			a.SetDimension(k*x, k*y)
		}
	}
}

// SurfaceOD returns the outer radius of the surface: the largest edge
// aperture, else the largest clear aperture, else MaxAperture.
func (s *Surface) SurfaceOD() float64 {
	od := 0.0
	switch {
	case len(s.EdgeApertures) > 0:
		for _, e := range s.EdgeApertures {
			od = math.Max(od, e.MaxDimension())
		}
	case len(s.ClearApertures) > 0:
		for _, ca := range s.ClearApertures {
			od = math.Max(od, ca.MaxDimension())
		}
	default:
		od = s.MaxAperture
	}
	return od
}

// YApertureExtent returns [yMin, yMax] for the union of apertures.
func (s *Surface) YApertureExtent() [2]float64 {
	aps := s.EdgeApertures
	if len(aps) == 0 {
		aps = s.ClearApertures
	}
	if len(aps) == 0 {
		return [2]float64{-s.MaxAperture, s.MaxAperture}
	}
	od := [2]float64{1e10, -1e10}
	for _, a := range aps {
		bb := a.BoundingBox()
		od[0] = math.Min(od[0], bb.Min.Y)
		od[1] = math.Max(od[1], bb.Max.Y)
	}
	return od
}
