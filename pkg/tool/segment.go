package tool

import (
	"fmt"

	"github.com/samber/lo"
)

// SegmentKind identifies one axial section of the tool.
type SegmentKind int

const (
	SegmentShank SegmentKind = iota
	SegmentChamfer
	SegmentNonCutting
	SegmentFlutedBody
	SegmentTip
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentShank:
		return "shank"
	case SegmentChamfer:
		return "chamfer"
	case SegmentNonCutting:
		return "non-cutting"
	case SegmentFlutedBody:
		return "fluted-body"
	case SegmentTip:
		return "tip"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is one rotational section along the tool (Y) axis.
type Segment struct {
	Kind        SegmentKind `json:"kind"`
	Start       float64     `json:"start"` // axial position of the start face
	Length      float64     `json:"length"`
	StartRadius float64     `json:"startRadius"`
	EndRadius   float64     `json:"endRadius"`
}

// End returns the axial position of the end face.
func (s Segment) End() float64 {
	return s.Start + s.Length
}

// Segments lays the tool out along Y from -Length/2 (shank end) to
// +Length/2 (tip). The chamfer and non-cutting sections are omitted when
// they have zero length. The tip is always present; a flat-bottom tool has
// a zero-length tip that closes the body with a disc.
func Segments(p Parameters, d Derived) []Segment {
	rs := p.ShankDiameter / 2
	rb := p.Diameter / 2

	var segs []Segment
	y := -d.Length / 2
	add := func(kind SegmentKind, length, r0, r1 float64) {
		segs = append(segs, Segment{Kind: kind, Start: y, Length: length, StartRadius: r0, EndRadius: r1})
		y += length
	}

	add(SegmentShank, p.ShankLength, rs, rs)
	if d.ChamferHeight > 0 {
		add(SegmentChamfer, d.ChamferHeight, rs, rb)
	}
	if d.NonCuttingLength > 0 {
		add(SegmentNonCutting, d.NonCuttingLength, rb, rb)
	}
	add(SegmentFlutedBody, d.BodyLength, rb, rb)
	if d.TipHeight > 0 {
		add(SegmentTip, d.TipHeight, rb, 0)
	} else {
		add(SegmentTip, 0, rb, rb)
	}
	return segs
}

// TotalLength sums the segment lengths.
func TotalLength(segs []Segment) float64 {
	return lo.SumBy(segs, func(s Segment) float64 { return s.Length })
}
