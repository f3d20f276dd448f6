// Package kernel defines the triangle mesh shared by the whole pipeline and
// the abstract boolean backend interface. Implementations (bsp, sdfx,
// manifold) perform mesh booleans behind this interface, so the backend can
// be swapped without changing the rest of the system.
package kernel

// Kernel is a mesh-boolean backend. Implementations must not modify their
// inputs and must return an error rather than a nil or partial mesh when
// the operation fails.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Boolean operations
	Union(a, b *Mesh) (*Mesh, error)
	Difference(a, b *Mesh) (*Mesh, error)
	Intersection(a, b *Mesh) (*Mesh, error)
}
