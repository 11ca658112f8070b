package optical

import (
	"fmt"
	"image/color"
)

// Render colors for elements.
var (
	ColorLens     = color.RGBA{254, 197, 254, 64}
	ColorMirror   = color.RGBA{158, 158, 158, 64}
	ColorAirGap   = color.RGBA{237, 243, 254, 64} // light blue
	ColorDummy    = color.RGBA{0, 0, 0, 0}
	ColorThinLens = color.RGBA{254, 197, 254, 64}
)

// Element groups interfaces and gaps into a physical component.
type Element interface {
	Label() string
	RenderColor() color.RGBA
	Surfaces() []*Surface
	// Gap returns the gap owned by the element, or nil for single
	// interface elements such as mirrors and thin lenses.
	Gap() *Gap

	setLabel(string)
	prefix() string
}

type elementBase struct {
	Name string
}

func (e *elementBase) Label() string        { return e.Name }
func (e *elementBase) setLabel(name string) { e.Name = name }

// Dummy marks the object and image surfaces.
type Dummy struct {
	elementBase
	S *Surface
}

func (e *Dummy) RenderColor() color.RGBA { return ColorDummy }
func (e *Dummy) Surfaces() []*Surface    { return []*Surface{e.S} }
func (e *Dummy) Gap() *Gap               { return nil }
func (e *Dummy) prefix() string          { return "D" }

// ThinLens is a single thin surface of given power.
type ThinLens struct {
	elementBase
	S *Surface
}

func (e *ThinLens) RenderColor() color.RGBA { return ColorThinLens }
func (e *ThinLens) Surfaces() []*Surface    { return []*Surface{e.S} }
func (e *ThinLens) Gap() *Gap               { return nil }
func (e *ThinLens) prefix() string          { return "TL" }

// Mirror is a single reflecting surface.
type Mirror struct {
	elementBase
	S *Surface
}

func (e *Mirror) RenderColor() color.RGBA { return ColorMirror }
func (e *Mirror) Surfaces() []*Surface    { return []*Surface{e.S} }
func (e *Mirror) Gap() *Gap               { return nil }
func (e *Mirror) prefix() string          { return "M" }

// Lens is a singlet: two surfaces and the glass between them.
type Lens struct {
	elementBase
	S1, S2 *Surface
	G      *Gap
}

func (e *Lens) RenderColor() color.RGBA { return ColorLens }
func (e *Lens) Surfaces() []*Surface    { return []*Surface{e.S1, e.S2} }
func (e *Lens) Gap() *Gap               { return e.G }
func (e *Lens) prefix() string          { return "E" }

// AirGap is an air space between elements.
type AirGap struct {
	elementBase
	G *Gap
}

func (e *AirGap) RenderColor() color.RGBA { return ColorAirGap }
func (e *AirGap) Surfaces() []*Surface    { return nil }
func (e *AirGap) Gap() *Gap               { return e.G }
func (e *AirGap) prefix() string          { return "AG" }

// ElementModel is the list of elements of a lens.
type ElementModel struct {
	Elements []Element
	counts   map[string]int
}

// Add appends elements, naming the ones without a label.
func (em *ElementModel) Add(elems ...Element) {
	if em.counts == nil {
		em.counts = make(map[string]int)
	}
	for _, e := range elems {
		if e.Label() == "" {
			p := e.prefix()
			em.counts[p]++
			e.setLabel(fmt.Sprintf("%s%d", p, em.counts[p]))
		}
		em.Elements = append(em.Elements, e)
	}
}

// Remove deletes an element. Unknown elements are ignored.
func (em *ElementModel) Remove(e Element) {
	for i, x := range em.Elements {
		if x == e {
			em.Elements = append(em.Elements[:i], em.Elements[i+1:]...)
			return
		}
	}
}

// ForSurface returns the element owning s, or nil.
func (em *ElementModel) ForSurface(s *Surface) Element {
	for _, e := range em.Elements {
		for _, es := range e.Surfaces() {
			if es == s {
				return e
			}
		}
	}
	return nil
}

// ForGap returns the element owning g, or nil.
func (em *ElementModel) ForGap(g *Gap) Element {
	for _, e := range em.Elements {
		if e.Gap() == g && g != nil {
			return e
		}
	}
	return nil
}
