package kernel

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/unixpickle/model3d/model3d"
)

// HealOptions controls the optional topology repair pass of Heal.
type HealOptions struct {
	// Repair welds vertices closer than Epsilon and re-orients inconsistent
	// faces before normals are rebuilt. The result is unindexed.
	Repair  bool
	Epsilon float64
}

// DefaultHealOptions leaves topology untouched.
func DefaultHealOptions() HealOptions {
	return HealOptions{Epsilon: 1e-5}
}

// Heal prepares a mesh to be treated as final: optional repair, fresh
// vertex normals, guaranteed uvs and current bounding volumes. Booleans
// emit missing or wrong normals, so normals are always recomputed.
func Heal(m *Mesh, opts HealOptions) *Mesh {
	if opts.Repair && !m.IsEmpty() {
		m = Repair(m, opts.Epsilon)
	}
	m.ComputeVertexNormals()
	m.EnsureUVs()
	m.ComputeBounds()
	return m
}

// ComputeVertexNormals rebuilds the normal buffer. Unindexed meshes get flat
// per-face normals; indexed meshes get area-weighted smooth normals.
func (m *Mesh) ComputeVertexNormals() {
	n := make([]float32, len(m.Vertices))
	for t := 0; t < m.TriangleCount(); t++ {
		idx := m.TriangleIndices(t)
		fx, fy, fz := m.faceCross(idx)
		for _, i := range idx {
			n[i*3] += fx
			n[i*3+1] += fy
			n[i*3+2] += fz
		}
	}
	for i := 0; i < len(n); i += 3 {
		l := math32.Sqrt(n[i]*n[i] + n[i+1]*n[i+1] + n[i+2]*n[i+2])
		if l > 1e-20 {
			n[i] /= l
			n[i+1] /= l
			n[i+2] /= l
		}
	}
	m.Normals = n
}

// faceCross returns the unnormalised face normal, whose length is twice
// the triangle area.
func (m *Mesh) faceCross(idx [3]int) (x, y, z float32) {
	v := m.Vertices
	ax, ay, az := v[idx[0]*3], v[idx[0]*3+1], v[idx[0]*3+2]
	e1x, e1y, e1z := v[idx[1]*3]-ax, v[idx[1]*3+1]-ay, v[idx[1]*3+2]-az
	e2x, e2y, e2z := v[idx[2]*3]-ax, v[idx[2]*3+1]-ay, v[idx[2]*3+2]-az
	return e1y*e2z - e1z*e2y, e1z*e2x - e1x*e2z, e1x*e2y - e1y*e2x
}

// EnsureUVs fills a zero uv buffer when uvs are missing or misaligned.
func (m *Mesh) EnsureUVs() {
	if len(m.UVs) != m.VertexCount()*2 {
		m.UVs = make([]float32, m.VertexCount()*2)
	}
}

// ComputeBounds refreshes the cached bounding box and sphere.
func (m *Mesh) ComputeBounds() {
	min, max := m.BoundingBox()
	m.Bounds = Box{Min: min, Max: max}

	c := [3]float64{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}
	var r2 float64
	for i := 0; i < len(m.Vertices); i += 3 {
		dx := float64(m.Vertices[i]) - c[0]
		dy := float64(m.Vertices[i+1]) - c[1]
		dz := float64(m.Vertices[i+2]) - c[2]
		r2 = math.Max(r2, dx*dx+dy*dy+dz*dz)
	}
	m.Sphere = Sphere{Center: c, Radius: math.Sqrt(r2)}
}

// ToModel3D converts a mesh to a model3d triangle mesh.
func ToModel3D(m *Mesh) *model3d.Mesh {
	out := model3d.NewMesh()
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		out.Add(&model3d.Triangle{
			model3d.XYZ(tri[0].X, tri[0].Y, tri[0].Z),
			model3d.XYZ(tri[1].X, tri[1].Y, tri[1].Z),
			model3d.XYZ(tri[2].X, tri[2].Y, tri[2].Z),
		})
	}
	return out
}

// FromModel3D converts a model3d mesh to an unindexed mesh with flat normals.
func FromModel3D(mm *model3d.Mesh, partName string) *Mesh {
	out := NewMesh(partName)
	for _, t := range mm.TriangleSlice() {
		for _, c := range t {
			out.Vertices = append(out.Vertices, float32(c.X), float32(c.Y), float32(c.Z))
		}
	}
	out.ComputeVertexNormals()
	out.EnsureUVs()
	return out
}

// Repair welds nearly coincident vertices and fixes inconsistent face
// orientation using model3d. The result is unindexed.
func Repair(m *Mesh, epsilon float64) *Mesh {
	mm := ToModel3D(m).Repair(epsilon)
	mm, _ = mm.RepairNormals(epsilon)
	return FromModel3D(mm, m.PartName)
}

// OpenEdges counts directed triangle edges with no matching reverse edge,
// joining vertices by position. A closed, consistently wound mesh has
// none; T-junctions and holes show up here.
func (m *Mesh) OpenEdges() int {
	type pos [3]float32
	type edge [2]pos
	at := func(i int) pos {
		return pos{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
	}

	count := make(map[edge]int)
	for t := 0; t < m.TriangleCount(); t++ {
		idx := m.TriangleIndices(t)
		for k := 0; k < 3; k++ {
			a, b := at(idx[k]), at(idx[(k+1)%3])
			if a == b {
				continue
			}
			count[edge{a, b}]++
		}
	}
	open := 0
	for e, n := range count {
		if back := count[edge{e[1], e[0]}]; n > back {
			open += n - back
		}
	}
	return open
}
