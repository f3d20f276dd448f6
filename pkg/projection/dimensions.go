package projection

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/chazu/fluteforge/pkg/tool"
)

// DimensionKind selects how an annotation is drawn.
type DimensionKind int

const (
	DimLinear   DimensionKind = iota // measured distance between A and B
	DimDiameter                      // diameter across A and B
	DimAngle                         // angle with apex at A
	DimNote                          // free text anchored at A
)

func (k DimensionKind) String() string {
	switch k {
	case DimLinear:
		return "linear"
	case DimDiameter:
		return "diameter"
	case DimAngle:
		return "angle"
	case DimNote:
		return "note"
	default:
		return fmt.Sprintf("DimensionKind(%d)", int(k))
	}
}

// Dimension is a labelled annotation in view coordinates. Offset moves
// the dimension line perpendicular to AB; its sign picks the side.
type Dimension struct {
	Kind   DimensionKind
	View   View
	Label  string
	Value  float64
	A, B   r2.Vec
	Offset float64
}

// dimGap is the spacing between stacked dimension lines, in mm.
const dimGap = 4.0

// Dimensions annotates the front view from the parameters alone; the mesh
// is never measured.
func Dimensions(p tool.Parameters, d tool.Derived) []Dimension {
	half := d.Length / 2
	r := p.Diameter / 2
	rs := p.ShankDiameter / 2
	outer := max(r, rs)
	shankEnd := -half + p.ShankLength
	fluteStart := half - p.FluteLength

	dims := []Dimension{
		linear(d.Length, r2.Vec{X: -half, Y: -outer}, r2.Vec{X: half, Y: -outer}, -3*dimGap),
		linear(p.ShankLength, r2.Vec{X: -half, Y: -rs}, r2.Vec{X: shankEnd, Y: -rs}, -dimGap),
		linear(p.FluteLength, r2.Vec{X: fluteStart, Y: r}, r2.Vec{X: half, Y: r}, dimGap),
	}
	if d.NonCuttingLength > 0 {
		start := shankEnd + d.ChamferHeight
		dims = append(dims, linear(d.NonCuttingLength,
			r2.Vec{X: start, Y: -r}, r2.Vec{X: start + d.NonCuttingLength, Y: -r}, -2*dimGap))
	}

	label := fmt.Sprintf("Ø%g", p.Diameter)
	if p.Tolerance != "" {
		label += " " + string(p.Tolerance)
	}
	bodyX := fluteStart + p.FluteLength/2
	shankX := -half + p.ShankLength/2
	dims = append(dims,
		diameter(p.Diameter, label, bodyX),
		diameter(p.ShankDiameter, fmt.Sprintf("Ø%g", p.ShankDiameter), shankX),
	)

	if d.TipHeight > 0 {
		dims = append(dims, Dimension{
			Kind:  DimAngle,
			View:  ViewFront,
			Label: fmt.Sprintf("%g°", p.TipAngle),
			Value: p.TipAngle,
			A:     r2.Vec{X: half},
			B:     r2.Vec{X: half - d.TipHeight, Y: r},
		})
	}

	helixLabel := "straight flutes"
	if p.HelixAngle > 0 {
		helixLabel = fmt.Sprintf("helix %g°", p.HelixAngle)
	}
	dims = append(dims,
		Dimension{Kind: DimNote, View: ViewFront, Label: helixLabel, Value: p.HelixAngle, A: r2.Vec{X: bodyX, Y: outer + 2*dimGap}},
		Dimension{Kind: DimNote, View: ViewFront, Label: note(p), A: r2.Vec{X: -half, Y: outer + 4*dimGap}},
	)
	return dims
}

func linear(value float64, a, b r2.Vec, offset float64) Dimension {
	return Dimension{
		Kind:   DimLinear,
		View:   ViewFront,
		Label:  fmt.Sprintf("%g", value),
		Value:  value,
		A:      a,
		B:      b,
		Offset: offset,
	}
}

// diameter measures across the axis at axial position x.
func diameter(value float64, label string, x float64) Dimension {
	return Dimension{
		Kind:  DimDiameter,
		View:  ViewFront,
		Label: label,
		Value: value,
		A:     r2.Vec{X: x, Y: -value / 2},
		B:     r2.Vec{X: x, Y: value / 2},
	}
}

// note is the title-block line, e.g. "Drill Ø10 2F HSS Bright".
func note(p tool.Parameters) string {
	parts := []string{string(p.Type), fmt.Sprintf("Ø%g", p.Diameter), fmt.Sprintf("%dF", p.FluteCount)}
	for _, s := range []string{string(p.Material), string(p.SurfaceFinish)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
