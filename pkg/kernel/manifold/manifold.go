//go:build manifold

// Package manifold provides a CGo-based boolean backend binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold provides
// guaranteed-manifold mesh boolean operations.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*ManifoldKernel)(nil)

// ErrUnavailable mirrors the stub build; New never returns it here.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Name identifies the backend.
func (k *ManifoldKernel) Name() string { return "manifold" }

// Union returns the boolean union of two meshes.
func (k *ManifoldKernel) Union(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return boolean(a, b, "union", func(mem unsafe.Pointer, x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_union(mem, x, y)
	})
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return boolean(a, b, "difference", func(mem unsafe.Pointer, x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_difference(mem, x, y)
	})
}

// Intersection returns the boolean intersection of two meshes.
func (k *ManifoldKernel) Intersection(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	return boolean(a, b, "intersection", func(mem unsafe.Pointer, x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_intersection(mem, x, y)
	})
}

type opFunc func(mem unsafe.Pointer, x, y *C.ManifoldManifold) *C.ManifoldManifold

func boolean(a, b *kernel.Mesh, op string, fn opFunc) (*kernel.Mesh, error) {
	ma, err := toManifold(a)
	if err != nil {
		return nil, fmt.Errorf("manifold: %s: first operand: %w", op, err)
	}
	defer C.manifold_delete_manifold(ma)
	mb, err := toManifold(b)
	if err != nil {
		return nil, fmt.Errorf("manifold: %s: second operand: %w", op, err)
	}
	defer C.manifold_delete_manifold(mb)

	out := fn(unsafe.Pointer(C.manifold_alloc_manifold()), ma, mb)
	defer C.manifold_delete_manifold(out)
	if status := C.manifold_status(out); status != 0 {
		return nil, fmt.Errorf("manifold: %s failed with status %d", op, int(status))
	}
	return fromManifold(out, op)
}

// toManifold uploads a mesh as MeshGL, welds coincident vertices and
// builds a manifold from it.
func toManifold(m *kernel.Mesh) (*C.ManifoldManifold, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("empty mesh")
	}
	props := make([]float32, len(m.Vertices))
	copy(props, m.Vertices)

	tris := make([]uint32, 0, m.TriangleCount()*3)
	for t := 0; t < m.TriangleCount(); t++ {
		idx := m.TriangleIndices(t)
		tris = append(tris, uint32(idx[0]), uint32(idx[1]), uint32(idx[2]))
	}

	gl := C.manifold_meshgl(C.manifold_alloc_meshgl(),
		(*C.float)(unsafe.Pointer(&props[0])), C.size_t(m.VertexCount()), C.size_t(3),
		(*C.uint32_t)(unsafe.Pointer(&tris[0])), C.size_t(m.TriangleCount()))
	defer C.manifold_delete_meshgl(gl)

	merged := C.manifold_meshgl_merge(C.manifold_alloc_meshgl(), gl)
	defer C.manifold_delete_meshgl(merged)

	mf := C.manifold_of_meshgl(C.manifold_alloc_manifold(), merged)
	if status := C.manifold_status(mf); status != 0 {
		C.manifold_delete_manifold(mf)
		return nil, fmt.Errorf("mesh is not manifold (status %d)", int(status))
	}
	return mf, nil
}

// fromManifold downloads the result as an indexed mesh. Positions are the
// first three vertex properties; normals are recomputed by the healer.
func fromManifold(mf *C.ManifoldManifold, partName string) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), mf)
	defer C.manifold_delete_meshgl(gl)

	numVert := int(C.manifold_meshgl_num_vert(gl))
	numTri := int(C.manifold_meshgl_num_tri(gl))
	if numVert == 0 || numTri == 0 {
		return nil, errors.New("manifold: boolean produced an empty mesh")
	}
	numProp := int(C.manifold_meshgl_num_prop(gl))

	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&propData[0])), gl)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), gl)

	m := kernel.NewMesh(partName)
	m.Vertices = make([]float32, numVert*3)
	for i := 0; i < numVert; i++ {
		copy(m.Vertices[i*3:i*3+3], propData[i*numProp:i*numProp+3])
	}
	m.Indices = indices
	m.ComputeVertexNormals()

	if m.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			m.VertexCount(), numVert)
	}
	return m, nil
}
