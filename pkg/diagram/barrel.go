package diagram

import (
	"image/color"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// BarrelConstraint outlines the region |y|+|ybar| <= r (diamond) and
// max(|y|,|ybar|) <= r (square). It has no actions.
type BarrelConstraint struct {
	dgm *Diagram
}

func (b *BarrelConstraint) UpdateShape(v View) Handles {
	r := b.dgm.BarrelRadius
	diamond := []geom.Point{{X: 0, Y: r}, {X: r, Y: 0}, {X: 0, Y: -r}, {X: -r, Y: 0}, {X: 0, Y: r}}
	square := []geom.Point{{X: r, Y: r}, {X: -r, Y: r}, {X: -r, Y: -r}, {X: r, Y: -r}, {X: r, Y: r}}
	st := Style{Color: colorBlack, ZOrder: 1}
	return Handles{
		"shape":  newHandle(Polyline, diamond, st),
		"square": newHandle(Polyline, square, st),
	}
}

func (b *BarrelConstraint) RenderColor() color.RGBA { return colorBlack }
func (b *BarrelConstraint) Label() string           { return "barrel constraint" }
func (b *BarrelConstraint) Action(string) Action    { return nil }
