package kernel

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Size returns the edge lengths of the box.
func (b Box) Size() [3]float64 {
	return [3]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: vertices and normals have 3 floats per vertex,
// uvs has 2 floats per vertex. Indices is optional; when it is empty every
// three consecutive vertices form a triangle ("unindexed").
//
// A Mesh returned by the pipeline is owned by the caller, who releases it
// with Dispose once it has been replaced. Renderers and exporters must not
// modify a mesh in place; Clone it first.
type Mesh struct {
	ID       string    `json:"id"`
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles, optional
	PartName string    `json:"partName"` // which tool section this came from

	// Bounds and Sphere are caches refreshed by ComputeBounds.
	Bounds Box    `json:"bounds"`
	Sphere Sphere `json:"sphere"`

	disposed bool
}

// NewMesh returns an empty mesh with a fresh ID.
func NewMesh(partName string) *Mesh {
	return &Mesh{ID: uuid.NewString(), PartName: partName}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m.IsIndexed() {
		return len(m.Indices) / 3
	}
	return m.VertexCount() / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// IsIndexed reports whether the mesh carries an index buffer.
func (m *Mesh) IsIndexed() bool {
	return len(m.Indices) > 0
}

// Vertex returns vertex i as a vector.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}

// TriangleIndices returns the vertex indices of triangle t.
func (m *Mesh) TriangleIndices(t int) [3]int {
	if m.IsIndexed() {
		return [3]int{int(m.Indices[t*3]), int(m.Indices[t*3+1]), int(m.Indices[t*3+2])}
	}
	return [3]int{t * 3, t*3 + 1, t*3 + 2}
}

// Triangle returns the corner positions of triangle t.
func (m *Mesh) Triangle(t int) [3]r3.Vec {
	idx := m.TriangleIndices(t)
	return [3]r3.Vec{m.Vertex(idx[0]), m.Vertex(idx[1]), m.Vertex(idx[2])}
}

// BoundingBox returns the axis-aligned bounding box of the vertex data.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for k := 0; k < 3; k++ {
		min[k] = math.Inf(1)
		max[k] = math.Inf(-1)
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			v := float64(m.Vertices[i+k])
			min[k] = math.Min(min[k], v)
			max[k] = math.Max(max[k], v)
		}
	}
	return min, max
}

// Finite reports whether every position and normal is a finite number.
func (m *Mesh) Finite() bool {
	for _, buf := range [][]float32{m.Vertices, m.Normals, m.UVs} {
		for _, v := range buf {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy with a new ID.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.ID = uuid.NewString()
	c.Vertices = append([]float32(nil), m.Vertices...)
	c.Normals = append([]float32(nil), m.Normals...)
	c.UVs = append([]float32(nil), m.UVs...)
	c.Indices = append([]uint32(nil), m.Indices...)
	return &c
}

// NonIndexed returns an unindexed copy: every triangle gets its own three
// vertices. An already unindexed mesh is cloned.
func (m *Mesh) NonIndexed() *Mesh {
	if !m.IsIndexed() {
		return m.Clone()
	}
	out := &Mesh{ID: uuid.NewString(), PartName: m.PartName, Bounds: m.Bounds, Sphere: m.Sphere}
	hasN := len(m.Normals) == len(m.Vertices)
	hasUV := len(m.UVs) == m.VertexCount()*2
	out.Vertices = make([]float32, 0, len(m.Indices)*3)
	if hasN {
		out.Normals = make([]float32, 0, len(m.Indices)*3)
	}
	if hasUV {
		out.UVs = make([]float32, 0, len(m.Indices)*2)
	}
	for _, i := range m.Indices {
		out.Vertices = append(out.Vertices, m.Vertices[i*3:i*3+3]...)
		if hasN {
			out.Normals = append(out.Normals, m.Normals[i*3:i*3+3]...)
		}
		if hasUV {
			out.UVs = append(out.UVs, m.UVs[i*2:i*2+2]...)
		}
	}
	return out
}

// Translate moves every vertex by (x, y, z) in place and returns m.
func (m *Mesh) Translate(x, y, z float64) *Mesh {
	for i := 0; i < len(m.Vertices); i += 3 {
		m.Vertices[i] += float32(x)
		m.Vertices[i+1] += float32(y)
		m.Vertices[i+2] += float32(z)
	}
	return m
}

// Merge concatenates meshes into one. Per-vertex arrays are concatenated
// and index buffers are offset and concatenated. If any input is unindexed
// the result is unindexed. Missing normals or uvs are zero-filled so the
// buffers stay aligned.
func Merge(partName string, meshes ...*Mesh) *Mesh {
	out := NewMesh(partName)
	allIndexed := len(meshes) > 0
	for _, m := range meshes {
		if !m.IsIndexed() {
			allIndexed = false
		}
	}

	for _, m := range meshes {
		src := m
		if !allIndexed && m.IsIndexed() {
			src = m.NonIndexed()
		}
		base := uint32(out.VertexCount())
		n := src.VertexCount()

		out.Vertices = append(out.Vertices, src.Vertices...)
		if len(src.Normals) == n*3 {
			out.Normals = append(out.Normals, src.Normals...)
		} else {
			out.Normals = append(out.Normals, make([]float32, n*3)...)
		}
		if len(src.UVs) == n*2 {
			out.UVs = append(out.UVs, src.UVs...)
		} else {
			out.UVs = append(out.UVs, make([]float32, n*2)...)
		}
		if allIndexed {
			for _, i := range src.Indices {
				out.Indices = append(out.Indices, base+i)
			}
		}
	}
	return out
}

// Equal reports whether two meshes have identical buffers.
func (m *Mesh) Equal(o *Mesh) bool {
	return equalF32(m.Vertices, o.Vertices) &&
		equalF32(m.Normals, o.Normals) &&
		equalF32(m.UVs, o.UVs) &&
		equalU32(m.Indices, o.Indices)
}

// Dispose releases the mesh buffers. A disposed mesh is empty.
func (m *Mesh) Dispose() {
	m.Vertices = nil
	m.Normals = nil
	m.UVs = nil
	m.Indices = nil
	m.disposed = true
}

// Disposed reports whether Dispose has been called.
func (m *Mesh) Disposed() bool {
	return m.disposed
}

func equalF32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
