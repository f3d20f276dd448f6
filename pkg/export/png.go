package export

import (
	"fmt"
	"image/png"
	"io"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/tool"
)

// DefaultImageSize is the preview edge length in pixels.
const DefaultImageSize = 512

const (
	supersample = 2
	fovy        = 40
	near        = 1
	far         = 10
	background  = "#F4F4F0"
)

// WritePreview renders m with Phong shading in the appearance colour and
// writes a square PNG. The tool axis runs left to right.
func WritePreview(w io.Writer, m *kernel.Mesh, a tool.Appearance, size int) error {
	if size <= 0 {
		size = DefaultImageSize
	}
	if _, _, _, err := a.RGB(); err != nil {
		return fmt.Errorf("write png: %w", err)
	}

	tris := make([]*fauxgl.Triangle, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		tris = append(tris, fauxgl.NewTriangleForPoints(fv(tri[0]), fv(tri[1]), fv(tri[2])))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		eye    = fauxgl.V(3.2, 0.6, 1.4)
		center = fauxgl.V(0, 0, 0)
		up     = fauxgl.V(0, 0, 1)
		light  = fauxgl.V(0.5, -0.25, 1).Normalize()
	)
	context := fauxgl.NewContext(size*supersample, size*supersample)
	context.ClearColorBufferWith(fauxgl.HexColor(background))
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, 1, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(a.Color)
	if a.Shininess > 0 {
		shader.SpecularPower = a.Shininess
	}
	context.Shader = shader
	context.DrawMesh(mesh)

	img := resize.Resize(uint(size), uint(size), context.Image(), resize.Bilinear)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func fv(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
