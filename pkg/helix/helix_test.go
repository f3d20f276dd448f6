package helix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/tool"
)

func defaultPaths(t *testing.T) ([]Path, tool.Parameters, tool.Derived) {
	t.Helper()
	p := tool.Defaults()
	d, _ := tool.Derive(p)
	paths := Paths(p, d)
	require.Len(t, paths, p.FluteCount)
	return paths, p, d
}

func TestPitchFromHelixAngle(t *testing.T) {
	p := NewPath(5, 30, 0, 50, 0, 13.5)
	assert.InDelta(t, math.Pi*10/math.Tan(math.Pi/6), p.Pitch, 1e-9)
	assert.InDelta(t, 54.414, p.Pitch, 1e-3)
	assert.InDelta(t, 50/p.Pitch, p.Revolutions(), 1e-12)
}

func TestStraightFlutes(t *testing.T) {
	p := NewPath(5, 0, 0, 50, -10, 13.5)
	assert.True(t, math.IsInf(p.Pitch, 1))
	assert.Equal(t, 0.0, p.Revolutions())
	assert.InDelta(t, 50, p.HelixLength(), 1e-12)

	for _, tt := range []float64{0.3, 0.5, 1} {
		pt := p.Point(tt)
		assert.InDelta(t, 5, pt.X, 1e-9)
		assert.InDelta(t, 0, pt.Z, 1e-9)
	}
	tan := p.Tangent(0.7)
	assert.InDelta(t, 1, tan.Y, 1e-12)

	// The lead-in runs straight down the axis.
	lead := p.Point(0)
	assert.InDelta(t, -10-13.5, lead.Y, 1e-9)
}

func TestPathsEvenlySpaced(t *testing.T) {
	p := tool.Defaults()
	p.FluteCount = 4
	d, _ := tool.Derive(p)
	paths := Paths(p, d)
	require.Len(t, paths, 4)
	for i, path := range paths {
		assert.InDelta(t, float64(i)*math.Pi/2, path.BaseAngle, 1e-12)
		assert.Equal(t, p.Diameter/2, path.Radius)
		assert.Equal(t, d.FluteStart(), path.StartY)
		assert.Equal(t, d.HelixHeight(), path.Height)
		assert.Equal(t, d.RunOutLength, path.ExtensionLength)
	}
}

func TestPointsStayOnCylinder(t *testing.T) {
	paths, p, d := defaultPaths(t)
	r := p.Diameter / 2
	for _, path := range paths {
		er := path.ExtensionRatio()
		for i := 0; i <= 100; i++ {
			tt := er + (1-er)*float64(i)/100
			pt := path.Point(tt)
			assert.InDelta(t, r, math.Hypot(pt.X, pt.Z), 1e-9)
		}
		end := path.Point(1)
		assert.InDelta(t, d.FluteStart()+d.HelixHeight(), end.Y, 1e-9)
		assert.Greater(t, end.Y, d.Length/2, "helix must overshoot the tip")
	}
}

func TestLeadInJoinsHelixSmoothly(t *testing.T) {
	paths, _, _ := defaultPaths(t)
	path := paths[0]
	er := path.ExtensionRatio()
	require.Greater(t, er, 0.0)
	require.Less(t, er, 1.0)

	junction := path.Point(er)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(junction, path.Start())), 1e-9)

	before := path.Tangent(er - 1e-6)
	after := path.Tangent(er + 1e-6)
	assert.InDelta(t, 1, r3.Dot(before, after), 1e-6)

	lead := r3.Sub(path.Start(), path.Point(0))
	assert.InDelta(t, path.ExtensionLength, r3.Norm(lead), 1e-9)
}

func TestExtensionRatio(t *testing.T) {
	p := NewPath(5, 30, 0, 40, 0, 13.5)
	assert.InDelta(t, 13.5/(p.HelixLength()+13.5), p.ExtensionRatio(), 1e-12)
	assert.Equal(t, 0.0, NewPath(5, 30, 0, 0, 0, 0).ExtensionRatio())
}

func TestRightHandTwist(t *testing.T) {
	p := NewPath(5, 30, 0, 40, 0, 0)
	a := p.Point(0)
	b := p.Point(0.01)
	// Angle decreases as y increases.
	assert.Less(t, math.Atan2(b.Z, b.X), math.Atan2(a.Z, a.X))
	assert.Greater(t, b.Y, a.Y)
}

func TestSample(t *testing.T) {
	paths, _, _ := defaultPaths(t)
	pts := paths[1].Sample(20)
	require.Len(t, pts, 21)
	assert.Equal(t, paths[1].Point(0), pts[0])
	assert.Equal(t, paths[1].Point(1), pts[20])
}

func TestFramesOrthonormal(t *testing.T) {
	paths, _, _ := defaultPaths(t)
	frames := Frames(paths[0], 64)
	require.Len(t, frames, 65)
	for i, f := range frames {
		assert.InDelta(t, 1, r3.Norm(f.Tangent), 1e-9, "frame %d", i)
		assert.InDelta(t, 1, r3.Norm(f.Normal), 1e-9, "frame %d", i)
		assert.InDelta(t, 1, r3.Norm(f.Binormal), 1e-9, "frame %d", i)
		assert.InDelta(t, 0, r3.Dot(f.Tangent, f.Normal), 1e-9, "frame %d", i)
		assert.InDelta(t, 0, r3.Dot(f.Tangent, f.Binormal), 1e-9, "frame %d", i)
		assert.InDelta(t, 0, r3.Dot(f.Normal, f.Binormal), 1e-9, "frame %d", i)
	}
}

func TestFramesDoNotFlip(t *testing.T) {
	paths, _, _ := defaultPaths(t)
	frames := Frames(paths[0], 128)
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, r3.Dot(frames[i-1].Normal, frames[i].Normal), 0.9, "frame %d", i)
	}
}
