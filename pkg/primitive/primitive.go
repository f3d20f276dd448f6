// Package primitive builds the axis-aligned rotational meshes a tool blank
// is assembled from: cylinders, frustums, cones and discs, all centred on
// the origin with their axis along +Y.
package primitive

import (
	"math"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// Facet density in facets per millimetre of diameter. The fluted body is
// tessellated finer because the flute boolean cuts through it.
const (
	BaseFacetsPerMM = 4.0
	BodyFacetsPerMM = 8.0

	MinFacets = 16
	MaxFacets = 64
)

// Facets returns the circumferential facet count for a diameter,
// clamped to [MinFacets, MaxFacets].
func Facets(diameter, perMM float64) int {
	n := int(math.Round(diameter * perMM))
	return min(max(n, MinFacets), MaxFacets)
}

// Options tunes a rotational primitive.
type Options struct {
	Facets     int
	OpenTop    bool // omit the +Y cap
	OpenBottom bool // omit the -Y cap
}

// Frustum returns an indexed truncated cone of the given height with
// radiusBottom at -height/2 and radiusTop at +height/2. A zero radius
// collapses that end to an apex; its cap and degenerate side triangles
// are skipped.
func Frustum(radiusBottom, radiusTop, height float64, opts Options) *kernel.Mesh {
	n := max(opts.Facets, 3)
	m := kernel.NewMesh("frustum")
	half := height / 2
	slope := 0.0
	if height > 0 {
		slope = (radiusBottom - radiusTop) / height
	}

	// Side rows: row 0 is the top ring, row 1 the bottom ring. Each ring has
	// n+1 vertices so the uv seam is not shared.
	rows := [2]struct{ y, r float64 }{{half, radiusTop}, {-half, radiusBottom}}
	var ring [2][]uint32
	for row, rr := range rows {
		for x := 0; x <= n; x++ {
			u := float64(x) / float64(n)
			theta := u * 2 * math.Pi
			sin, cos := math.Sincos(theta)
			idx := m.VertexCount()
			nx, ny, nz := normalize(sin, slope, cos)
			m.Vertices = append(m.Vertices, float32(rr.r*sin), float32(rr.y), float32(rr.r*cos))
			m.Normals = append(m.Normals, float32(nx), float32(ny), float32(nz))
			m.UVs = append(m.UVs, float32(u), float32(1-row))
			ring[row] = append(ring[row], uint32(idx))
		}
	}
	for x := 0; x < n; x++ {
		a, b := ring[0][x], ring[1][x]
		c, d := ring[1][x+1], ring[0][x+1]
		if radiusTop > 0 {
			m.Indices = append(m.Indices, a, b, d)
		}
		if radiusBottom > 0 {
			m.Indices = append(m.Indices, b, c, d)
		}
	}

	if !opts.OpenTop && radiusTop > 0 {
		addCap(m, radiusTop, half, n, true)
	}
	if !opts.OpenBottom && radiusBottom > 0 {
		addCap(m, radiusBottom, -half, n, false)
	}
	return m
}

// Cylinder returns an indexed closed cylinder.
func Cylinder(radius, height float64, opts Options) *kernel.Mesh {
	m := Frustum(radius, radius, height, opts)
	m.PartName = "cylinder"
	return m
}

// Cone returns an indexed cone with its base at -height/2 and apex at
// +height/2.
func Cone(radius, height float64, opts Options) *kernel.Mesh {
	m := Frustum(radius, 0, height, opts)
	m.PartName = "cone"
	return m
}

// Disc returns a flat disc in the y=0 plane facing +Y.
func Disc(radius float64, facets int) *kernel.Mesh {
	m := kernel.NewMesh("disc")
	addCap(m, radius, 0, max(facets, 3), true)
	return m
}

// addCap appends a triangle fan closing a ring at height y. Top caps face
// +Y, bottom caps face -Y.
func addCap(m *kernel.Mesh, radius, y float64, n int, top bool) {
	ny := float32(-1)
	sign := -1.0
	if top {
		ny, sign = 1, 1
	}
	center := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, 0, float32(y), 0)
	m.Normals = append(m.Normals, 0, ny, 0)
	m.UVs = append(m.UVs, 0.5, 0.5)

	first := uint32(m.VertexCount())
	for x := 0; x <= n; x++ {
		theta := float64(x) / float64(n) * 2 * math.Pi
		sin, cos := math.Sincos(theta)
		m.Vertices = append(m.Vertices, float32(radius*sin), float32(y), float32(radius*cos))
		m.Normals = append(m.Normals, 0, ny, 0)
		m.UVs = append(m.UVs, float32(cos*0.5+0.5), float32(sin*0.5*sign+0.5))
	}
	for x := uint32(0); x < uint32(n); x++ {
		i, j := first+x, first+x+1
		if top {
			m.Indices = append(m.Indices, center, i, j)
		} else {
			m.Indices = append(m.Indices, center, j, i)
		}
	}
}

func normalize(x, y, z float64) (float64, float64, float64) {
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return 0, 0, 0
	}
	return x / l, y / l, z / l
}
