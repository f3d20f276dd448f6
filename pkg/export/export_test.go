package export

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hschendel/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/fluteforge/pkg/helix"
	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/primitive"
	"github.com/chazu/fluteforge/pkg/projection"
	"github.com/chazu/fluteforge/pkg/tool"
)

func artifacts(t *testing.T) Artifacts {
	t.Helper()
	p := tool.Defaults()
	d, _ := tool.Derive(p)
	segs := tool.Segments(p, d)
	m := primitive.Blank(segs)
	drawing := projection.Extract(projection.Input{
		Mesh:       m,
		Segments:   segs,
		Paths:      helix.Paths(p, d),
		Parameters: p,
		Derived:    d,
	}, projection.DefaultOptions())
	return Artifacts{
		Parameters: []tool.Parameters{p},
		Mesh:       m,
		Drawing:    &drawing,
		Appearance: tool.AppearanceFor(p.Material, p.SurfaceFinish),
		ImageSize:  64,
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"stl", "STL", ".dxf", " svg ", "png", "json", "csv"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("step")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteUnsupportedWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Format("obj"), artifacts(t))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}

func TestSTLMatchesRenderedMesh(t *testing.T) {
	a := artifacts(t)
	before := a.Mesh.Clone()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatSTL, a))
	assert.Equal(t, 84+50*a.Mesh.TriangleCount(), buf.Len())
	assert.True(t, a.Mesh.Equal(before), "export must not modify the mesh")

	solid, err := stl.ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, solid.Triangles, a.Mesh.TriangleCount())

	min, max := a.Mesh.BoundingBox()
	lo := [3]float64{1e9, 1e9, 1e9}
	hi := [3]float64{-1e9, -1e9, -1e9}
	for _, tri := range solid.Triangles {
		for _, v := range tri.Vertices {
			for k := 0; k < 3; k++ {
				lo[k] = minf(lo[k], float64(v[k]))
				hi[k] = maxf(hi[k], float64(v[k]))
			}
		}
	}
	for k := 0; k < 3; k++ {
		assert.InDelta(t, min[k], lo[k], 1e-4)
		assert.InDelta(t, max[k], hi[k], 1e-4)
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func TestSTLEmptyMesh(t *testing.T) {
	a := artifacts(t)
	a.Mesh = kernel.NewMesh("empty")
	err := Write(&bytes.Buffer{}, FormatSTL, a)
	assert.ErrorIs(t, err, ErrMissingArtifact)
}

func TestDXFLayers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatDXF, artifacts(t)))
	out := buf.String()
	for _, l := range DXFLayers {
		assert.Contains(t, out, l.Name)
	}
	assert.Contains(t, out, "LINE")
	assert.Contains(t, out, "CIRCLE")
	assert.Contains(t, out, "TEXT")
}

func TestSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatSVG, artifacts(t)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `id="Front"`)
	assert.Contains(t, out, "<line")
	assert.Contains(t, out, "<circle")
	assert.Contains(t, out, "</svg>")
}

func TestPreviewPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPNG, artifacts(t)))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 64, b.Dy())

	corner := img.At(0, 0)
	drawn := false
	for y := b.Min.Y; y < b.Max.Y && !drawn; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) != corner {
				drawn = true
				break
			}
		}
	}
	assert.True(t, drawn, "preview should show the tool")
}

func TestPreviewBadColour(t *testing.T) {
	a := artifacts(t)
	a.Appearance.Color = "teal"
	assert.Error(t, Write(&bytes.Buffer{}, FormatPNG, a))
}

func TestJSONRoundTrip(t *testing.T) {
	p := tool.Defaults()
	q := tool.Defaults()
	q.FluteCount = 3

	var one bytes.Buffer
	require.NoError(t, WriteJSON(&one, p))
	got, err := tool.ParseParameters(one.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []tool.Parameters{p}, got)

	var many bytes.Buffer
	require.NoError(t, WriteJSON(&many, p, q))
	got, err = tool.ParseParameters(many.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []tool.Parameters{p, q}, got)

	assert.ErrorIs(t, WriteJSON(&bytes.Buffer{}), ErrMissingArtifact)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tool.Defaults()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(CSVHeader, ","), lines[0])
	assert.Equal(t, "Drill,10,10,100,30,60,0,2,118,30,h7,HSS,Bright", lines[1])
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportFile(dir, FormatSTL, artifacts(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Drill_10x100_2F.stl"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files may remain")
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	a := artifacts(t)
	a.Drawing = nil

	_, err := ExportFile(dir, FormatDXF, a)
	assert.True(t, errors.Is(err, ErrMissingArtifact))
	_, err = ExportFile(dir, Format("step"), a)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLayoutSeparatesViews(t *testing.T) {
	a := artifacts(t)
	s := layout(*a.Drawing)

	spans := map[string][2]float64{}
	for _, l := range s.lines {
		if l.layer == layerDimensions {
			continue
		}
		sp, ok := spans[l.layer]
		if !ok {
			sp = [2]float64{1e9, -1e9}
		}
		sp[0] = minf(sp[0], minf(l.a.X, l.b.X))
		sp[1] = maxf(sp[1], maxf(l.a.X, l.b.X))
		spans[l.layer] = sp
	}
	for _, c := range s.circles {
		sp, ok := spans[c.layer]
		if !ok {
			sp = [2]float64{1e9, -1e9}
		}
		sp[0] = minf(sp[0], c.center.X-c.radius)
		sp[1] = maxf(sp[1], c.center.X+c.radius)
		spans[c.layer] = sp
	}
	require.Len(t, spans, 3)
	assert.Less(t, spans["Top"][1], spans["Front"][0])
	assert.Less(t, spans["Front"][1], spans["Side"][0])
	assert.LessOrEqual(t, s.min.X, spans["Top"][0])
	assert.GreaterOrEqual(t, s.max.X, spans["Side"][1])
}
