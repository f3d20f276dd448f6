// Package sweep turns helix paths into the tube solids that are subtracted
// from the blank to cut the flutes.
package sweep

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/helix"
	"github.com/chazu/fluteforge/pkg/kernel"
)

// Resolution is the tessellation density of a flute tube.
type Resolution struct {
	Tubular int `json:"tubular"` // segments along the path
	Radial  int `json:"radial"`  // segments around the cross-section
}

const (
	minRadial    = 8
	maxRadial    = 32
	minTubular   = 64
	maxTubular   = 320
	radialPerMM  = 2.0
	tubularPerMM = 16.0
)

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ResolutionFor returns the tube density for a tool diameter. scale
// multiplies both counts; values <= 0 mean 1.
func ResolutionFor(diameter, scale float64) Resolution {
	if scale <= 0 {
		scale = 1
	}
	radial := clamp(int(math.Round(diameter*radialPerMM)), minRadial, maxRadial)
	tubular := clamp(int(math.Round(diameter*tubularPerMM)), minTubular, maxTubular)
	return Resolution{
		Tubular: max(int(math.Round(float64(tubular)*scale)), 4),
		Radial:  max(int(math.Round(float64(radial)*scale)), 3),
	}
}

// Tube sweeps a circle of the given radius along c and closes both ends.
// Rings follow parallel-transported frames; faces wind outward.
func Tube(c helix.Curve, radius float64, res Resolution) *kernel.Mesh {
	tubular := max(res.Tubular, 1)
	radial := max(res.Radial, 3)
	frames := helix.Frames(c, tubular)

	m := kernel.NewMesh("flute")
	for i := 0; i <= tubular; i++ {
		u := float64(i) / float64(tubular)
		p := c.Point(u)
		f := frames[i]
		for j := 0; j < radial; j++ {
			sin, cos := math.Sincos(float64(j) / float64(radial) * 2 * math.Pi)
			dir := r3.Add(r3.Scale(cos, f.Normal), r3.Scale(sin, f.Binormal))
			v := r3.Add(p, r3.Scale(radius, dir))
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(dir.X), float32(dir.Y), float32(dir.Z))
			m.UVs = append(m.UVs, float32(u), float32(j)/float32(radial))
		}
	}

	ring := func(i, j int) uint32 {
		return uint32(i*radial + j%radial)
	}
	for i := 0; i < tubular; i++ {
		for j := 0; j < radial; j++ {
			a, b := ring(i, j), ring(i, j+1)
			cc, d := ring(i+1, j+1), ring(i+1, j)
			m.Indices = append(m.Indices, a, b, d, b, cc, d)
		}
	}

	addCap(m, c.Point(0), r3.Scale(-1, frames[0].Tangent), radial, 0, false)
	addCap(m, c.Point(1), frames[tubular].Tangent, radial, tubular, true)
	return m
}

// addCap closes ring i with a fan around its centre.
func addCap(m *kernel.Mesh, center, normal r3.Vec, radial, i int, end bool) {
	ci := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, float32(center.X), float32(center.Y), float32(center.Z))
	m.Normals = append(m.Normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
	m.UVs = append(m.UVs, 0.5, 0.5)

	base := uint32(i * radial)
	for j := 0; j < radial; j++ {
		a, b := base+uint32(j), base+uint32((j+1)%radial)
		if end {
			m.Indices = append(m.Indices, ci, a, b)
		} else {
			m.Indices = append(m.Indices, ci, b, a)
		}
	}
}

// Cutter sweeps every path with the flute depth as tube radius and merges
// the tubes so the blank needs a single boolean.
func Cutter(paths []helix.Path, depth float64, res Resolution) *kernel.Mesh {
	tubes := make([]*kernel.Mesh, 0, len(paths))
	for _, p := range paths {
		tubes = append(tubes, Tube(p, depth, res))
	}
	return kernel.Merge("cutter", tubes...)
}
