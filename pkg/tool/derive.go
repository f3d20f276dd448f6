package tool

import (
	"fmt"
	"math"
)

// NoticeLevel grades a user-facing notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarning:
		return "warning"
	default:
		return fmt.Sprintf("NoticeLevel(%d)", int(l))
	}
}

// Notice is a non-fatal message for the user, e.g. "length was clamped".
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Derived holds every quantity computed from Parameters. Length is the
// effective overall length after the minimum-length clamp.
type Derived struct {
	MinimumLength    float64 `json:"minimumLength"`
	ChamferHeight    float64 `json:"chamferHeight"`
	TipHeight        float64 `json:"tipHeight"`
	FlutedPartLength float64 `json:"flutedPartLength"`
	NonCuttingLength float64 `json:"nonCuttingLength"`
	Length           float64 `json:"length"`

	// RunOutLength is the margin consumed by the helix lead-in.
	RunOutLength float64 `json:"runOutLength"`

	// BodyLength is the axial length of the fluted body segment: whatever
	// remains of Length after shank, chamfer, non-cutting section and tip.
	BodyLength float64 `json:"bodyLength"`
}

// ChamferHeight returns the axial height of the frustum joining two
// diameters. It is symmetric in its arguments.
func ChamferHeight(d1, d2 float64) float64 {
	return math.Abs(d1-d2) / 2
}

// TipHeight returns the axial height of the point cone. A tip angle of
// exactly 180 degrees is a flat-bottom tool and has no cone.
func TipHeight(diameter, tipAngle float64) float64 {
	if tipAngle == 180 {
		return 0
	}
	half := tipAngle / 2 * math.Pi / 180
	return (diameter / 2) / math.Tan(half)
}

// MinimumLength returns the shortest overall length that fits the flutes,
// shank and chamfer plus the safety buffer, rounded to whole millimetres.
func MinimumLength(fluteLength, shankLength, chamferHeight float64) float64 {
	return math.Round(fluteLength + shankLength + chamferHeight + SafetyBuffer)
}

// FlutedPartLength returns the axial length actually swept by the helix.
// A negative value means the flute length cannot accommodate the tip and
// run-out margin and is rejected by Validate.
func FlutedPartLength(fluteLength, tipHeight, diameter float64) float64 {
	return fluteLength - tipHeight - diameter*ExtensionFactor
}

// Derive computes all derived quantities. When the requested length is
// below the minimum, the length is clamped up to the minimum, the
// non-cutting section is dropped and a warning notice is returned.
// The non-cutting length is always recomputed from the overall length;
// whatever the caller supplied in p.NonCuttingLength is ignored.
func Derive(p Parameters) (Derived, []Notice) {
	var notices []Notice

	d := Derived{
		ChamferHeight: ChamferHeight(p.Diameter, p.ShankDiameter),
		TipHeight:     TipHeight(p.Diameter, p.TipAngle),
		RunOutLength:  p.Diameter * ExtensionFactor,
	}
	d.MinimumLength = MinimumLength(p.FluteLength, p.ShankLength, d.ChamferHeight)
	d.FlutedPartLength = FlutedPartLength(p.FluteLength, d.TipHeight, p.Diameter)

	if p.Length < d.MinimumLength {
		d.Length = d.MinimumLength
		d.NonCuttingLength = 0
		notices = append(notices, Notice{
			Level: NoticeWarning,
			Message: fmt.Sprintf("length %g mm is below the minimum of %g mm; clamped to %g mm",
				p.Length, d.MinimumLength, d.MinimumLength),
		})
	} else {
		d.Length = p.Length
		d.NonCuttingLength = math.Round(p.Length - d.MinimumLength)
	}

	d.BodyLength = d.Length - p.ShankLength - d.ChamferHeight - d.NonCuttingLength - d.TipHeight
	return d, notices
}

// Apply returns p with the clamped length and recomputed non-cutting
// length written back. Deriving the result again yields the same Derived.
func Apply(p Parameters, d Derived) Parameters {
	p.Length = d.Length
	p.NonCuttingLength = d.NonCuttingLength
	return p
}

// TipStart returns the axial (Y) position where the tip begins. The tool
// spans [-Length/2, +Length/2] with the shank at the negative end.
func (d Derived) TipStart() float64 {
	return d.Length/2 - d.TipHeight
}

// FluteStart returns the axial position where the helical flute begins.
func (d Derived) FluteStart() float64 {
	return d.TipStart() - d.FlutedPartLength
}

// HelixHeight returns the axial rise of the helix. It overshoots the
// fluted part and tip by ExtensionFactor so the cutter consumes the tip.
func (d Derived) HelixHeight() float64 {
	return (d.FlutedPartLength + d.TipHeight) * ExtensionFactor
}
