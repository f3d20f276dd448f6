package kernel

import (
	"errors"
	"math"
	"testing"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		indices  []uint32
		want     int
	}{
		{"empty", nil, nil, 0},
		{"one indexed triangle", nil, []uint32{0, 1, 2}, 1},
		{"two indexed triangles", nil, []uint32{0, 1, 2, 2, 3, 0}, 2},
		{"one unindexed triangle", []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices, Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// quad returns a unit square in the XY plane as two indexed triangles.
func quad() *Mesh {
	m := NewMesh("quad")
	m.Vertices = []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	m.UVs = []float32{0, 0, 1, 0, 1, 1, 0, 1}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return m
}

func TestNonIndexed(t *testing.T) {
	m := quad()
	n := m.NonIndexed()
	if n.IsIndexed() {
		t.Fatal("NonIndexed() result still has indices")
	}
	if n.VertexCount() != 6 {
		t.Fatalf("VertexCount() = %d, want 6", n.VertexCount())
	}
	if n.TriangleCount() != m.TriangleCount() {
		t.Errorf("TriangleCount() = %d, want %d", n.TriangleCount(), m.TriangleCount())
	}
	if len(n.UVs) != 12 {
		t.Errorf("len(UVs) = %d, want 12", len(n.UVs))
	}
	if n.Triangle(1) != m.Triangle(1) {
		t.Errorf("triangle 1 differs: %v vs %v", n.Triangle(1), m.Triangle(1))
	}
	if n.ID == m.ID {
		t.Error("NonIndexed() must produce a new mesh ID")
	}
}

func TestMergeOffsetsIndices(t *testing.T) {
	a := quad()
	b := quad().Translate(0, 0, 1)

	m := Merge("both", a, b)
	if m.VertexCount() != 8 {
		t.Fatalf("VertexCount() = %d, want 8", m.VertexCount())
	}
	if m.TriangleCount() != 4 {
		t.Fatalf("TriangleCount() = %d, want 4", m.TriangleCount())
	}
	if got := m.Indices[6]; got != 4 {
		t.Errorf("first index of second mesh = %d, want 4", got)
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals not zero-filled: %d vs %d", len(m.Normals), len(m.Vertices))
	}
	if m.Triangle(2)[0].Z != 1 {
		t.Errorf("second mesh lost its translation: %v", m.Triangle(2))
	}
}

func TestMergeMixedDeindexes(t *testing.T) {
	m := Merge("mixed", quad(), quad().NonIndexed())
	if m.IsIndexed() {
		t.Fatal("merge of indexed and unindexed meshes must be unindexed")
	}
	if m.TriangleCount() != 4 {
		t.Errorf("TriangleCount() = %d, want 4", m.TriangleCount())
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := quad()
	c := m.Clone()
	c.Vertices[0] = 42
	if m.Vertices[0] == 42 {
		t.Error("Clone() shares the vertex buffer")
	}
	if !m.Clone().Equal(m) {
		t.Error("Clone() is not Equal to the original")
	}
}

func TestDispose(t *testing.T) {
	m := quad()
	m.Dispose()
	if !m.IsEmpty() || !m.Disposed() {
		t.Error("Dispose() must empty the mesh and mark it disposed")
	}
}

func TestFinite(t *testing.T) {
	m := quad()
	if !m.Finite() {
		t.Fatal("quad should be finite")
	}
	m.Vertices[4] = float32(math.NaN())
	if m.Finite() {
		t.Error("NaN vertex not detected")
	}
}

func TestHealComputesNormalsUVsBounds(t *testing.T) {
	m := quad().NonIndexed()
	m.Normals = nil
	m.UVs = nil

	Heal(m, DefaultHealOptions())

	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("len(Normals) = %d, want %d", len(m.Normals), len(m.Vertices))
	}
	for i := 0; i < len(m.Normals); i += 3 {
		if m.Normals[i+2] != 1 {
			t.Fatalf("normal %d = %v, want +Z", i/3, m.Normals[i:i+3])
		}
	}
	if len(m.UVs) != m.VertexCount()*2 {
		t.Errorf("len(UVs) = %d, want %d", len(m.UVs), m.VertexCount()*2)
	}
	if m.Bounds.Max != [3]float64{1, 1, 0} || m.Bounds.Min != [3]float64{0, 0, 0} {
		t.Errorf("Bounds = %+v", m.Bounds)
	}
	if math.Abs(m.Sphere.Radius-math.Sqrt2/2) > 1e-9 {
		t.Errorf("Sphere.Radius = %v, want %v", m.Sphere.Radius, math.Sqrt2/2)
	}
}

func TestHealIndexedSmoothNormals(t *testing.T) {
	m := quad()
	Heal(m, DefaultHealOptions())
	for i := 0; i < m.VertexCount(); i++ {
		if m.Normals[i*3+2] != 1 {
			t.Errorf("vertex %d normal = %v, want +Z", i, m.Normals[i*3:i*3+3])
		}
	}
}

func TestModel3DRoundTrip(t *testing.T) {
	m := quad()
	back := FromModel3D(ToModel3D(m), m.PartName)
	if back.TriangleCount() != 2 {
		t.Fatalf("TriangleCount() = %d, want 2", back.TriangleCount())
	}
	if back.PartName != "quad" {
		t.Errorf("PartName = %q", back.PartName)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable.
type stubKernel struct{ err error }

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) Union(a, _ *Mesh) (*Mesh, error)        { return a.Clone(), k.err }
func (k *stubKernel) Difference(a, _ *Mesh) (*Mesh, error)   { return a.Clone(), k.err }
func (k *stubKernel) Intersection(a, _ *Mesh) (*Mesh, error) { return a.Clone(), k.err }

var _ Kernel = (*stubKernel)(nil)

func TestStubKernelDifference(t *testing.T) {
	var k Kernel = &stubKernel{}
	a := quad()
	m, err := k.Difference(a, quad())
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if !m.Equal(a) {
		t.Error("stub Difference() should return a copy of a")
	}

	k = &stubKernel{err: errors.New("boom")}
	if _, err := k.Difference(a, a); err == nil {
		t.Error("expected error from failing stub")
	}
}

func tetrahedron() *Mesh {
	return &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
}

func TestOpenEdges(t *testing.T) {
	open := tetrahedron()
	open.Indices = open.Indices[:9]

	// An open sheet: four boundary edges, plus three more because the long
	// edge of the first triangle is split by vertex 3 of the other two.
	tjunction := &Mesh{
		Vertices: []float32{0, 0, 0, 2, 0, 0, 0, 2, 0, 1, 0, 0, 0, -1, 0},
		Indices:  []uint32{0, 1, 2, 3, 0, 4, 1, 3, 4},
	}

	tests := []struct {
		name string
		m    *Mesh
		want int
	}{
		{"empty", &Mesh{}, 0},
		{"closed indexed", tetrahedron(), 0},
		{"closed unindexed", tetrahedron().NonIndexed(), 0},
		{"missing face", open, 3},
		{"t-junction", tjunction, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.OpenEdges(); got != tt.want {
				t.Errorf("OpenEdges() = %d, want %d", got, tt.want)
			}
		})
	}
}
