package primitive

import (
	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/tool"
)

// SegmentFacets returns the facet count used for one segment.
func SegmentFacets(s tool.Segment) int {
	d := 2 * max(s.StartRadius, s.EndRadius)
	if s.Kind == tool.SegmentFlutedBody {
		return Facets(d, BodyFacetsPerMM)
	}
	return Facets(d, BaseFacetsPerMM)
}

// Solids builds one closed primitive per segment, positioned along Y.
// A zero-length tip becomes a flat disc that closes the fluted body, whose
// own top cap is then omitted.
func Solids(segs []tool.Segment) []*kernel.Mesh {
	flatTip := len(segs) > 0 && segs[len(segs)-1].Kind == tool.SegmentTip && segs[len(segs)-1].Length == 0

	out := make([]*kernel.Mesh, 0, len(segs))
	for i, s := range segs {
		opts := Options{Facets: SegmentFacets(s)}
		var m *kernel.Mesh
		switch {
		case s.Kind == tool.SegmentTip && s.Length == 0:
			// The disc must match the body ring it closes.
			body := opts.Facets
			if i > 0 {
				body = SegmentFacets(segs[i-1])
			}
			m = Disc(s.StartRadius, body).Translate(0, s.Start, 0)
		case s.Kind == tool.SegmentTip:
			m = Cone(s.StartRadius, s.Length, opts)
			m.Translate(0, s.Start+s.Length/2, 0)
		default:
			if s.Kind == tool.SegmentFlutedBody && flatTip && i == len(segs)-2 {
				opts.OpenTop = true
			}
			m = Frustum(s.StartRadius, s.EndRadius, s.Length, opts)
			m.Translate(0, s.Start+s.Length/2, 0)
		}
		m.PartName = s.Kind.String()
		out = append(out, m)
	}
	return out
}

// Blank assembles the segments into the single unindexed mesh the flutes
// are cut from.
func Blank(segs []tool.Segment) *kernel.Mesh {
	merged := Merge(Solids(segs))
	blank := merged.NonIndexed()
	blank.PartName = "blank"
	return blank
}

// Merge concatenates primitives into one mesh.
func Merge(meshes []*kernel.Mesh) *kernel.Mesh {
	return kernel.Merge("blank", meshes...)
}

// Fallback returns the minimal safe solid: a plain closed cylinder sized to
// the overall length and diameter, centred on the origin.
func Fallback(length, diameter float64) *kernel.Mesh {
	m := Cylinder(diameter/2, length, Options{Facets: Facets(diameter, BaseFacetsPerMM)}).NonIndexed()
	m.PartName = "fallback"
	return m
}
