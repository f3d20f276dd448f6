// Package helix generates the sweep paths of the flutes: a straight lead-in
// joined tangentially to a cylindrical helix, evaluated as one continuous
// curve over t in [0, 1].
package helix

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/tool"
)

// Path is the sweep path of one flute. It owns no state beyond its
// defining scalars.
type Path struct {
	Radius          float64 `json:"radius"`
	Pitch           float64 `json:"pitch"` // +Inf for straight flutes
	BaseAngle       float64 `json:"baseAngle"`
	Height          float64 `json:"height"`
	StartY          float64 `json:"startY"`
	ExtensionLength float64 `json:"extensionLength"`
}

// NewPath builds a path from a helix angle in degrees. A helix angle of 0
// gives straight axial flutes.
func NewPath(radius, helixAngle, baseAngle, height, startY, extension float64) Path {
	pitch := math.Inf(1)
	if helixAngle > 0 {
		pitch = math.Pi * 2 * radius / math.Tan(helixAngle*math.Pi/180)
	}
	return Path{
		Radius:          radius,
		Pitch:           pitch,
		BaseAngle:       baseAngle,
		Height:          height,
		StartY:          startY,
		ExtensionLength: extension,
	}
}

// Paths returns one path per flute, evenly spaced around the axis.
func Paths(p tool.Parameters, d tool.Derived) []Path {
	paths := make([]Path, 0, p.FluteCount)
	for i := 0; i < p.FluteCount; i++ {
		base := 2 * math.Pi * float64(i) / float64(p.FluteCount)
		paths = append(paths, NewPath(p.Diameter/2, p.HelixAngle, base, d.HelixHeight(), d.FluteStart(), d.RunOutLength))
	}
	return paths
}

// Revolutions returns the number of turns the helix makes over its height.
func (p Path) Revolutions() float64 {
	if math.IsInf(p.Pitch, 0) || p.Pitch == 0 {
		return 0
	}
	return p.Height / p.Pitch
}

// HelixLength returns the arc length of the helical portion.
func (p Path) HelixLength() float64 {
	return math.Hypot(2*math.Pi*p.Radius*p.Revolutions(), p.Height)
}

// TotalLength returns the arc length of lead-in plus helix.
func (p Path) TotalLength() float64 {
	return p.HelixLength() + p.ExtensionLength
}

// ExtensionRatio returns the share of t in [0, 1] taken by the lead-in.
func (p Path) ExtensionRatio() float64 {
	total := p.TotalLength()
	if total == 0 {
		return 0
	}
	return p.ExtensionLength / total
}

// helixPoint evaluates the helix at h in [0, 1]. The angle decreases as the
// helix climbs, which gives right-hand flutes for a tool pointing up +Y.
func (p Path) helixPoint(h float64) r3.Vec {
	angle := p.BaseAngle - h*p.Revolutions()*2*math.Pi
	sin, cos := math.Sincos(angle)
	return r3.Vec{X: p.Radius * cos, Y: p.StartY + h*p.Height, Z: p.Radius * sin}
}

// helixDerivative is d(helixPoint)/dh.
func (p Path) helixDerivative(h float64) r3.Vec {
	w := p.Revolutions() * 2 * math.Pi
	angle := p.BaseAngle - h*w
	sin, cos := math.Sincos(angle)
	return r3.Vec{X: p.Radius * sin * w, Y: p.Height, Z: -p.Radius * cos * w}
}

// split maps t to the lead-in (s in [0,1], true) or the helix (h in [0,1]).
func (p Path) split(t float64) (float64, bool) {
	t = math.Max(0, math.Min(1, t))
	er := p.ExtensionRatio()
	if er > 0 && t <= er {
		return t / er, true
	}
	if er >= 1 {
		return 1, false
	}
	return (t - er) / (1 - er), false
}

// Start returns the point where the lead-in joins the helix.
func (p Path) Start() r3.Vec {
	return p.helixPoint(0)
}

// LeadInStart returns the free end of the lead-in, offset from Start
// against the helix tangent.
func (p Path) LeadInStart() r3.Vec {
	dir := r3.Unit(p.helixDerivative(0))
	return r3.Sub(p.Start(), r3.Scale(p.ExtensionLength, dir))
}

// Point evaluates the path at t in [0, 1].
func (p Path) Point(t float64) r3.Vec {
	s, lead := p.split(t)
	if lead {
		a, b := p.LeadInStart(), p.Start()
		return r3.Add(a, r3.Scale(s, r3.Sub(b, a)))
	}
	return p.helixPoint(s)
}

// Tangent returns the unit tangent at t. The lead-in shares the helix
// tangent at the junction, so the curve has no kink.
func (p Path) Tangent(t float64) r3.Vec {
	s, lead := p.split(t)
	if lead {
		return r3.Unit(p.helixDerivative(0))
	}
	return r3.Unit(p.helixDerivative(s))
}

// Sample returns n+1 evenly spaced points over t in [0, 1].
func (p Path) Sample(n int) []r3.Vec {
	n = max(n, 1)
	pts := make([]r3.Vec, n+1)
	for i := range pts {
		pts[i] = p.Point(float64(i) / float64(n))
	}
	return pts
}
