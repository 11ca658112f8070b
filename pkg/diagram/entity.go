package diagram

import (
	"image/color"

	"github.com/ha1tch/paraxial-toolkit/pkg/geom"
)

// HandleKind is the geometry type of a drawable handle.
type HandleKind int

const (
	Vertex HandleKind = iota
	Polyline
	Polygon
)

func (k HandleKind) String() string {
	switch k {
	case Vertex:
		return "vertex"
	case Polyline:
		return "polyline"
	case Polygon:
		return "polygon"
	}
	return "unknown"
}

// LineStyle of a polyline or polygon outline.
type LineStyle int

const (
	Solid LineStyle = iota
	Dotted
	NoLine
)

// Marker drawn at vertices.
type Marker int

const (
	NoMarker Marker = iota
	Square
)

// Style holds the drawing options of a handle.
type Style struct {
	Color     color.RGBA
	Hilite    color.RGBA // color while picked
	Fill      color.RGBA // polygons only
	LineStyle LineStyle
	Marker    Marker
	Picker    float64 // pick tolerance in pixels, 0 = not pickable
	ZOrder    float64
}

// Handle is one drawable piece of an entity.
type Handle struct {
	Kind   HandleKind
	Points []geom.Point
	Style  Style
	Bbox   geom.Bbox
}

func newHandle(kind HandleKind, pts []geom.Point, style Style) Handle {
	return Handle{Kind: kind, Points: pts, Style: style, Bbox: geom.BboxFromPoly(pts)}
}

// Handles maps handle names ("shape", "slide", "area", ...) to handles.
type Handles map[string]Handle

// View carries the display settings entities need to build their handles.
type View struct {
	EnableSlide bool
	Bounds      geom.Bbox // current axis limits; empty means fit to shape
}

// Entity is something drawn in a diagram.
type Entity interface {
	UpdateShape(v View) Handles
	RenderColor() color.RGBA
	Label() string
	// Action returns the action bound to a handle, or nil.
	Action(handle string) Action
}

var (
	colorBlack  = color.RGBA{0, 0, 0, 255}
	colorRed    = color.RGBA{255, 0, 0, 255}
	colorOrange = color.RGBA{255, 165, 0, 255}
	colorBlue   = color.RGBA{0, 0, 255, 255}

	// NodeColor is blueviolet.
	NodeColor      = color.RGBA{138, 43, 226, 255}
	slideLineColor = color.RGBA{138, 43, 226, 127}
)
