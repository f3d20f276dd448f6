package export

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/chazu/fluteforge/pkg/projection"
)

// viewGap separates neighbouring views on the sheet, in mm.
const viewGap = 20.0

// textHeight is the label height for dimensions and titles, in mm.
const textHeight = 2.5

type sheetLine struct {
	a, b  r2.Vec
	layer string
	kind  projection.EdgeKind
}

type sheetCircle struct {
	center r2.Vec
	radius float64
	layer  string
}

type sheetText struct {
	at    r2.Vec
	text  string
	layer string
}

// sheet is a drawing laid out in sheet coordinates. Views sit side by
// side in Views order with their axes on y = 0.
type sheet struct {
	lines    []sheetLine
	circles  []sheetCircle
	texts    []sheetText
	min, max r2.Vec
}

const (
	layerDimensions = "Dimensions"
	layerText       = "Text"
)

func viewLayer(v projection.View) string {
	switch v {
	case projection.ViewTop:
		return "Top"
	case projection.ViewFront:
		return "Front"
	default:
		return "Side"
	}
}

func layout(d projection.Drawing) sheet {
	var s sheet
	s.min = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	s.max = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}

	offsets := make(map[projection.View]r2.Vec, len(d.Views))
	cursor := 0.0
	for _, vd := range d.Views {
		min, max := vd.Bounds()
		off := r2.Vec{X: cursor - min.X}
		offsets[vd.View] = off
		cursor += max.X - min.X + viewGap

		layer := viewLayer(vd.View)
		for _, l := range vd.Lines {
			s.addLine(sheetLine{a: r2.Add(l.A, off), b: r2.Add(l.B, off), layer: layer, kind: l.Kind})
		}
		for _, c := range vd.Circles {
			s.addCircle(sheetCircle{center: r2.Add(c.Center, off), radius: c.Radius, layer: layer})
		}
		s.addText(sheetText{
			at:    r2.Vec{X: off.X + min.X, Y: min.Y - 3*textHeight},
			text:  vd.View.String(),
			layer: layerText,
		})
	}

	for _, dim := range d.Dimensions {
		s.addDimension(dim, offsets[dim.View])
	}
	if math.IsInf(s.min.X, 1) {
		s.min, s.max = r2.Vec{}, r2.Vec{}
	}
	return s
}

func (s *sheet) grow(p r2.Vec) {
	s.min.X, s.min.Y = math.Min(s.min.X, p.X), math.Min(s.min.Y, p.Y)
	s.max.X, s.max.Y = math.Max(s.max.X, p.X), math.Max(s.max.Y, p.Y)
}

func (s *sheet) addLine(l sheetLine) {
	s.lines = append(s.lines, l)
	s.grow(l.a)
	s.grow(l.b)
}

func (s *sheet) addCircle(c sheetCircle) {
	s.circles = append(s.circles, c)
	s.grow(r2.Vec{X: c.center.X - c.radius, Y: c.center.Y - c.radius})
	s.grow(r2.Vec{X: c.center.X + c.radius, Y: c.center.Y + c.radius})
}

func (s *sheet) addText(t sheetText) {
	s.texts = append(s.texts, t)
	s.grow(t.at)
	s.grow(r2.Vec{X: t.at.X + float64(len(t.text))*textHeight*0.6, Y: t.at.Y + textHeight})
}

// addDimension expands an annotation into extension lines, a dimension
// line and its label.
func (s *sheet) addDimension(dim projection.Dimension, off r2.Vec) {
	a, b := r2.Add(dim.A, off), r2.Add(dim.B, off)
	line := func(p, q r2.Vec) {
		s.addLine(sheetLine{a: p, b: q, layer: layerDimensions, kind: projection.EdgeGuide})
	}
	label := func(at r2.Vec) {
		s.addText(sheetText{at: at, text: dim.Label, layer: layerDimensions})
	}

	switch dim.Kind {
	case projection.DimLinear:
		ab := r2.Sub(b, a)
		n := r2.Vec{X: -ab.Y, Y: ab.X}
		if l := r2.Norm(n); l > 0 {
			n = r2.Scale(1/l, n)
		}
		shift := r2.Scale(dim.Offset, n)
		pa, pb := r2.Add(a, shift), r2.Add(b, shift)
		line(a, pa)
		line(b, pb)
		line(pa, pb)
		mid := r2.Scale(0.5, r2.Add(pa, pb))
		label(r2.Add(mid, r2.Scale(math.Copysign(textHeight, dim.Offset), n)))
	case projection.DimDiameter:
		line(a, b)
		label(r2.Add(b, r2.Vec{X: textHeight / 2, Y: textHeight / 2}))
	case projection.DimAngle:
		line(a, b)
		label(r2.Add(a, r2.Vec{X: textHeight, Y: textHeight}))
	default:
		s.addText(sheetText{at: a, text: dim.Label, layer: layerText})
	}
}
