package bsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// cube returns an unindexed axis-aligned cube with outward winding.
func cube(min r3.Vec, size float64) *kernel.Mesh {
	quads := [6][4][3]float64{
		{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
		{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
		{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
		{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
		{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	}
	m := kernel.NewMesh("cube")
	for _, q := range quads {
		for _, k := range [6]int{0, 1, 2, 0, 2, 3} {
			c := q[k]
			m.Vertices = append(m.Vertices,
				float32(min.X+c[0]*size), float32(min.Y+c[1]*size), float32(min.Z+c[2]*size))
		}
	}
	return m
}

// volume returns the signed enclosed volume of a closed mesh.
func volume(m *kernel.Mesh) float64 {
	var v float64
	for t := 0; t < m.TriangleCount(); t++ {
		p := m.Triangle(t)
		v += r3.Dot(p[0], r3.Cross(p[1], p[2])) / 6
	}
	return v
}

func TestCubeVolume(t *testing.T) {
	assert.InDelta(t, 8, volume(cube(r3.Vec{}, 2)), 1e-9)
}

func TestDifference(t *testing.T) {
	k := New()
	a := cube(r3.Vec{}, 2)
	b := cube(r3.Vec{X: 1, Y: 1, Z: 1}, 2)

	out, err := k.Difference(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 7, volume(out), 1e-3)
	assert.True(t, out.Finite())
	assert.Equal(t, len(out.Vertices), len(out.Normals))

	// Inputs are not modified.
	assert.InDelta(t, 8, volume(a), 1e-9)
	assert.InDelta(t, 8, volume(b), 1e-9)
}

func TestUnion(t *testing.T) {
	out, err := New().Union(cube(r3.Vec{}, 2), cube(r3.Vec{X: 1, Y: 1, Z: 1}, 2))
	require.NoError(t, err)
	assert.InDelta(t, 15, volume(out), 1e-3)
}

func TestIntersection(t *testing.T) {
	out, err := New().Intersection(cube(r3.Vec{}, 2), cube(r3.Vec{X: 1, Y: 1, Z: 1}, 2))
	require.NoError(t, err)
	assert.InDelta(t, 1, volume(out), 1e-3)

	min, max := out.BoundingBox()
	assert.InDelta(t, 1, min[0], 1e-5)
	assert.InDelta(t, 2, max[0], 1e-5)
}

func TestDisjointDifferenceKeepsA(t *testing.T) {
	out, err := New().Difference(cube(r3.Vec{}, 1), cube(r3.Vec{X: 5}, 1))
	require.NoError(t, err)
	assert.InDelta(t, 1, volume(out), 1e-6)
}

func TestEmptyResult(t *testing.T) {
	_, err := New().Difference(cube(r3.Vec{X: 1, Y: 1, Z: 1}, 1), cube(r3.Vec{}, 3))
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = New().Intersection(cube(r3.Vec{}, 1), cube(r3.Vec{X: 5}, 1))
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestDegenerateTrianglesIgnored(t *testing.T) {
	a := cube(r3.Vec{}, 2)
	a.Vertices = append(a.Vertices, 0, 0, 0, 1, 1, 1, 2, 2, 2)
	out, err := New().Difference(a, cube(r3.Vec{X: 1, Y: 1, Z: 1}, 2))
	require.NoError(t, err)
	assert.InDelta(t, 7, volume(out), 1e-3)
}

func TestName(t *testing.T) {
	assert.Equal(t, "bsp", New().Name())
}
