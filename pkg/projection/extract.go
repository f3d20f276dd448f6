package projection

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/helix"
	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/tool"
)

// Input is everything the extractor draws from. Any field may be empty.
type Input struct {
	Mesh       *kernel.Mesh
	Segments   []tool.Segment
	Paths      []helix.Path
	Parameters tool.Parameters
	Derived    tool.Derived
}

// Options tunes extraction.
type Options struct {
	Threshold    float64 // dihedral threshold in degrees
	GuideSamples int     // helix sampling density for guide segments
	MeshEdges    bool    // include sharp and silhouette edges of the mesh
	Dimensions   bool    // include dimension annotations
}

// DefaultOptions returns the standard drawing settings.
func DefaultOptions() Options {
	return Options{
		Threshold:    DefaultThreshold,
		GuideSamples: 96,
		MeshEdges:    true,
		Dimensions:   true,
	}
}

// Extract builds the top, front and side views. Round features come from
// the exact segment boundaries; the mesh contributes creases and
// silhouettes; each helix contributes its start, mid and end segments.
func Extract(in Input, opts Options) Drawing {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	var g *edgeGraph
	if opts.MeshEdges && in.Mesh != nil && !in.Mesh.IsEmpty() {
		g = buildEdgeGraph(in.Mesh)
	}
	cosThreshold := math.Cos(opts.Threshold * math.Pi / 180)
	guides := GuideEdges(in.Paths, opts.GuideSamples)

	var out Drawing
	for _, v := range Views {
		vd := ViewDrawing{View: v}
		if v == ViewTop {
			vd.Circles = SegmentCircles(in.Segments)
		} else {
			vd.Lines = append(vd.Lines, OutlineLines(v, in.Segments)...)
		}

		if g != nil {
			dir := v.Direction()
			for _, k := range g.order {
				switch {
				case g.sharp(k, cosThreshold):
					vd.Lines = appendProjected(vd.Lines, v, g.edge(k), EdgeSharp)
				case g.silhouette(k, dir):
					vd.Lines = appendProjected(vd.Lines, v, g.edge(k), EdgeSilhouette)
				}
			}
		}
		for _, e := range guides {
			vd.Lines = appendProjected(vd.Lines, v, e, EdgeGuide)
		}

		if v == ViewSide {
			vd.Lines = RemoveHidden(vd.Lines)
		}
		out.Views = append(out.Views, vd)
	}

	if opts.Dimensions && in.Parameters.Diameter > 0 {
		out.Dimensions = Dimensions(in.Parameters, in.Derived)
	}
	return out
}

// appendProjected projects e into v, dropping edges that collapse to a
// point.
func appendProjected(lines []Line, v View, e Edge3, kind EdgeKind) []Line {
	a, b := v.Project(e.A), v.Project(e.B)
	if r2.Norm(r2.Sub(b, a)) < 1e-9 {
		return lines
	}
	mid := r3.Scale(0.5, r3.Add(e.A, e.B))
	return append(lines, Line{A: a, B: b, Kind: kind, Depth: v.Depth(mid)})
}

// SegmentCircles returns one circle per distinct boundary radius, in
// segment order.
func SegmentCircles(segs []tool.Segment) []Circle {
	var radii []float64
	for _, s := range segs {
		radii = append(radii, s.StartRadius, s.EndRadius)
	}
	radii = lo.Filter(radii, func(r float64, _ int) bool { return r > 0 })
	radii = lo.UniqBy(radii, func(r float64) int64 { return int64(math.Round(r * weldScale)) })
	return lo.Map(radii, func(r float64, _ int) Circle { return Circle{Radius: r} })
}

// OutlineLines returns the exact profile of the rotational blank in a
// view with the axis horizontal: upper and lower contour lines plus a
// cross line at each segment start and at the far end.
func OutlineLines(v View, segs []tool.Segment) []Line {
	if v == ViewTop {
		return nil
	}
	var lines []Line
	cross := func(x, r float64) {
		if r > 0 {
			lines = append(lines, Line{A: r2.Vec{X: x, Y: -r}, B: r2.Vec{X: x, Y: r}, Kind: EdgeOutline})
		}
	}
	for i, s := range segs {
		cross(s.Start, s.StartRadius)
		if s.Length > 0 {
			lines = append(lines,
				Line{A: r2.Vec{X: s.Start, Y: s.StartRadius}, B: r2.Vec{X: s.End(), Y: s.EndRadius}, Kind: EdgeOutline},
				Line{A: r2.Vec{X: s.Start, Y: -s.StartRadius}, B: r2.Vec{X: s.End(), Y: -s.EndRadius}, Kind: EdgeOutline},
			)
		}
		if i == len(segs)-1 {
			cross(s.End(), s.EndRadius)
		}
	}
	return lines
}

// GuideEdges samples each path and keeps only its start, mid and end
// segments.
func GuideEdges(paths []helix.Path, samples int) []Edge3 {
	samples = max(samples, 2)
	var out []Edge3
	for _, p := range paths {
		pts := p.Sample(samples)
		for _, i := range []int{0, samples / 2, samples - 1} {
			out = append(out, Edge3{A: pts[i], B: pts[i+1]})
		}
	}
	return out
}

// RemoveHidden is a simple hidden-line heuristic: lines are stably sorted
// nearest first and any line whose projection duplicates an earlier one is
// dropped. It is not a visibility solver.
func RemoveHidden(lines []Line) []Line {
	sorted := append([]Line(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth > sorted[j].Depth
	})

	type key [4]int64
	q := func(f float64) int64 { return int64(math.Round(f * weldScale)) }
	seen := make(map[key]bool, len(sorted))
	out := sorted[:0]
	for _, l := range sorted {
		a, b := l.A, l.B
		if a.X > b.X || (a.X == b.X && a.Y > b.Y) {
			a, b = b, a
		}
		k := key{q(a.X), q(a.Y), q(b.X), q(b.Y)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}
