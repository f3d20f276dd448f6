// Package projection extracts 2D orthographic line drawings from a tool
// mesh for vector export. Views are axis-aligned; edge lists are
// deterministic for identical input.
package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// View is an orthographic projection direction. The tool axis is Y with
// the tip at +Y.
type View int

const (
	ViewTop   View = iota // looking down the axis from the tip; plane XZ
	ViewFront             // axis horizontal, looking along -Z; plane YX
	ViewSide              // axis horizontal, looking along -X; plane YZ
)

// Views lists every view in drawing order.
var Views = []View{ViewTop, ViewFront, ViewSide}

func (v View) String() string {
	switch v {
	case ViewTop:
		return "top"
	case ViewFront:
		return "front"
	case ViewSide:
		return "side"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Direction returns the unit vector pointing from the model towards the
// viewer.
func (v View) Direction() r3.Vec {
	switch v {
	case ViewTop:
		return r3.Vec{Y: 1}
	case ViewFront:
		return r3.Vec{Z: 1}
	default:
		return r3.Vec{X: 1}
	}
}

// Project maps a model point into the view plane.
func (v View) Project(p r3.Vec) r2.Vec {
	switch v {
	case ViewTop:
		return r2.Vec{X: p.X, Y: p.Z}
	case ViewFront:
		return r2.Vec{X: p.Y, Y: p.X}
	default:
		return r2.Vec{X: p.Y, Y: p.Z}
	}
}

// Depth returns the distance of p towards the viewer; larger is nearer.
func (v View) Depth(p r3.Vec) float64 {
	return r3.Dot(p, v.Direction())
}

// EdgeKind tags where a line came from.
type EdgeKind int

const (
	EdgeSharp      EdgeKind = iota // mesh crease above the dihedral threshold
	EdgeSilhouette                 // mesh outline for this view
	EdgeOutline                    // exact primitive boundary
	EdgeGuide                      // helix guide segment
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSharp:
		return "sharp"
	case EdgeSilhouette:
		return "silhouette"
	case EdgeOutline:
		return "outline"
	case EdgeGuide:
		return "guide"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Line is a projected 2D segment.
type Line struct {
	A, B  r2.Vec
	Kind  EdgeKind
	Depth float64 // mean depth of the source segment
}

// Circle is an exact circular edge, only produced in the top view.
type Circle struct {
	Center r2.Vec
	Radius float64
}

// ViewDrawing is the content of one view.
type ViewDrawing struct {
	View    View
	Lines   []Line
	Circles []Circle
}

// Bounds returns the 2D extent of the view content. An empty view
// returns zero vectors.
func (d ViewDrawing) Bounds() (min, max r2.Vec) {
	min = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p r2.Vec) {
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	for _, l := range d.Lines {
		grow(l.A)
		grow(l.B)
	}
	for _, c := range d.Circles {
		grow(r2.Vec{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius})
		grow(r2.Vec{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius})
	}
	if math.IsInf(min.X, 1) {
		return r2.Vec{}, r2.Vec{}
	}
	return min, max
}

// Drawing is the full projection output.
type Drawing struct {
	Views      []ViewDrawing
	Dimensions []Dimension
}

// View returns the drawing of v, if present.
func (d Drawing) View(v View) (ViewDrawing, bool) {
	for _, vd := range d.Views {
		if vd.View == v {
			return vd, true
		}
	}
	return ViewDrawing{}, false
}
