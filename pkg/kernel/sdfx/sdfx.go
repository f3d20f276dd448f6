// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Input meshes are turned
// into signed distance fields with model3d, combined with sdfx's CSG
// operators and re-meshed with marching cubes.
package sdfx

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution along
// the longest axis.
const defaultMeshCells = 200

// ErrEmptyResult is returned when marching cubes finds no surface.
var ErrEmptyResult = errors.New("sdfx: boolean produced an empty mesh")

// meshSDF adapts a closed triangle mesh to sdf.SDF3. model3d reports
// distances positive inside; sdfx expects negative inside.
type meshSDF struct {
	field model3d.SDF
	box   sdf.Box3
}

func newMeshSDF(m *kernel.Mesh) (*meshSDF, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("sdfx: empty input mesh")
	}
	field := model3d.MeshToSDF(kernel.ToModel3D(m))
	lo, hi := field.Min(), field.Max()

	// Pad so marching cubes samples outside the surface on every side.
	pad := 0.02 * max(hi.X-lo.X, hi.Y-lo.Y, hi.Z-lo.Z)
	return &meshSDF{
		field: field,
		box: sdf.Box3{
			Min: v3.Vec{X: lo.X - pad, Y: lo.Y - pad, Z: lo.Z - pad},
			Max: v3.Vec{X: hi.X + pad, Y: hi.Y + pad, Z: hi.Z + pad},
		},
	}, nil
}

// Evaluate returns the signed distance at p.
func (s *meshSDF) Evaluate(p v3.Vec) float64 {
	return -s.field.SDF(model3d.XYZ(p.X, p.Y, p.Z))
}

// BoundingBox returns the padded bounds of the source mesh.
func (s *meshSDF) BoundingBox() sdf.Box3 {
	return s.box
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel. cells <= 0 selects the default resolution.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Name identifies the backend.
func (k *SdfxKernel) Name() string { return "sdfx" }

// Union returns the union of two meshes.
func (k *SdfxKernel) Union(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return k.combine(a, b, "union", sdf.Union3D)
}

// Difference returns a - b.
func (k *SdfxKernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return k.combine(a, b, "difference", func(s ...sdf.SDF3) sdf.SDF3 {
		return sdf.Difference3D(s[0], s[1])
	})
}

// Intersection returns the intersection of two meshes.
func (k *SdfxKernel) Intersection(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return k.combine(a, b, "intersection", func(s ...sdf.SDF3) sdf.SDF3 {
		return sdf.Intersect3D(s[0], s[1])
	})
}

func (k *SdfxKernel) combine(a, b *kernel.Mesh, op string, fn func(...sdf.SDF3) sdf.SDF3) (*kernel.Mesh, error) {
	sa, err := newMeshSDF(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sb, err := newMeshSDF(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m := k.toMesh(fn(sa, sb), op)
	if m.IsEmpty() {
		return nil, ErrEmptyResult
	}
	if !m.Finite() {
		return nil, fmt.Errorf("sdfx: %s produced non-finite coordinates", op)
	}
	return m, nil
}

// toMesh converts a field to an unindexed triangle mesh using marching
// cubes.
func (k *SdfxKernel) toMesh(s sdf.SDF3, partName string) *kernel.Mesh {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(s, renderer)

	m := kernel.NewMesh(partName)
	m.Vertices = make([]float32, 0, len(triangles)*9)
	m.Normals = make([]float32, 0, len(triangles)*9)
	for _, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, nx, ny, nz)
		}
	}
	return m
}
