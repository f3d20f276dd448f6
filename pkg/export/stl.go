package export

import (
	"fmt"
	"io"

	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// WriteSTL writes m as a binary STL triangle soup. Facet normals are
// recomputed from the winding.
func WriteSTL(w io.Writer, m *kernel.Mesh, name string) error {
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, 0, m.TriangleCount()),
	}
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		var n r3.Vec
		if c := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0])); r3.Norm(c) > 0 {
			n = r3.Unit(c)
		}
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal:   vec3(n),
			Vertices: [3]stl.Vec3{vec3(tri[0]), vec3(tri[1]), vec3(tri[2])},
		})
	}
	if err := solid.WriteAll(w); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	return nil
}

func vec3(v r3.Vec) stl.Vec3 {
	return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
