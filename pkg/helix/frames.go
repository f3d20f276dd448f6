package helix

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a parametric space curve over t in [0, 1].
type Curve interface {
	Point(t float64) r3.Vec
	Tangent(t float64) r3.Vec
}

// Frame is an orthonormal moving frame along a curve.
type Frame struct {
	Tangent  r3.Vec
	Normal   r3.Vec
	Binormal r3.Vec
}

// Frames returns segments+1 frames at t = i/segments. The first normal is
// chosen perpendicular to the tangent using its smallest component; later
// normals are parallel-transported by rotating across consecutive tangents,
// so the frame does not flip at inflections.
func Frames(c Curve, segments int) []Frame {
	segments = max(segments, 1)
	frames := make([]Frame, segments+1)
	for i := range frames {
		frames[i].Tangent = r3.Unit(c.Tangent(float64(i) / float64(segments)))
	}

	t0 := frames[0].Tangent
	axis, smallest := r3.Vec{X: 1}, math.Abs(t0.X)
	if a := math.Abs(t0.Y); a < smallest {
		axis, smallest = r3.Vec{Y: 1}, a
	}
	if a := math.Abs(t0.Z); a < smallest {
		axis = r3.Vec{Z: 1}
	}
	v := r3.Unit(r3.Cross(t0, axis))
	frames[0].Normal = r3.Cross(t0, v)
	frames[0].Binormal = r3.Cross(t0, frames[0].Normal)

	for i := 1; i <= segments; i++ {
		prev, cur := frames[i-1].Tangent, frames[i].Tangent
		n := frames[i-1].Normal
		v := r3.Cross(prev, cur)
		if r3.Norm(v) > 1e-12 {
			theta := math.Acos(math.Max(-1, math.Min(1, r3.Dot(prev, cur))))
			n = r3.Rotate(n, theta, r3.Unit(v))
		}
		frames[i].Normal = n
		frames[i].Binormal = r3.Cross(cur, n)
	}
	return frames
}
