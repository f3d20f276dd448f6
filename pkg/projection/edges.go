package projection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// DefaultThreshold is the dihedral angle, in degrees, above which an edge
// counts as sharp.
const DefaultThreshold = 30.0

// weldScale quantises positions to 1e-4 mm when matching vertices.
const weldScale = 1e4

// Edge3 is a model-space edge.
type Edge3 struct {
	A, B r3.Vec
}

type vertexKey [3]int64

type edgeKey [2]int // welded vertex ids, low first

// edgeGraph is the welded edge-face adjacency of a triangle soup. All
// slices are in first-seen order so iteration is deterministic.
type edgeGraph struct {
	positions []r3.Vec
	normals   []r3.Vec // per face
	order     []edgeKey
	faces     map[edgeKey][]int
}

func quantise(v r3.Vec) vertexKey {
	return vertexKey{
		int64(math.Round(v.X * weldScale)),
		int64(math.Round(v.Y * weldScale)),
		int64(math.Round(v.Z * weldScale)),
	}
}

func buildEdgeGraph(m *kernel.Mesh) *edgeGraph {
	g := &edgeGraph{faces: make(map[edgeKey][]int)}
	ids := make(map[vertexKey]int)
	weld := func(v r3.Vec) int {
		k := quantise(v)
		if id, ok := ids[k]; ok {
			return id
		}
		id := len(g.positions)
		ids[k] = id
		g.positions = append(g.positions, v)
		return id
	}

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		cross := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
		l := r3.Norm(cross)
		if l < 1e-12 {
			continue
		}
		var v [3]int
		for k := range tri {
			v[k] = weld(tri[k])
		}
		if v[0] == v[1] || v[1] == v[2] || v[0] == v[2] {
			continue
		}
		face := len(g.normals)
		g.normals = append(g.normals, r3.Scale(1/l, cross))
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			key := edgeKey{a, b}
			if _, seen := g.faces[key]; !seen {
				g.order = append(g.order, key)
			}
			g.faces[key] = append(g.faces[key], face)
		}
	}
	return g
}

func (g *edgeGraph) edge(k edgeKey) Edge3 {
	return Edge3{A: g.positions[k[0]], B: g.positions[k[1]]}
}

// sharp reports whether the faces meeting at k bend by more than the
// threshold. Open and non-manifold edges are always sharp.
func (g *edgeGraph) sharp(k edgeKey, cosThreshold float64) bool {
	f := g.faces[k]
	if len(f) != 2 {
		return true
	}
	return r3.Dot(g.normals[f[0]], g.normals[f[1]]) < cosThreshold
}

// silhouette reports whether exactly one of the faces at k faces dir.
func (g *edgeGraph) silhouette(k edgeKey, dir r3.Vec) bool {
	f := g.faces[k]
	if len(f) != 2 {
		return false
	}
	a := r3.Dot(g.normals[f[0]], dir)
	b := r3.Dot(g.normals[f[1]], dir)
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}

// SharpEdges returns the edges of m whose dihedral angle exceeds
// thresholdDeg, in first-seen order. Coincident vertices are welded first,
// so unindexed meshes work as well as indexed ones.
func SharpEdges(m *kernel.Mesh, thresholdDeg float64) []Edge3 {
	g := buildEdgeGraph(m)
	c := math.Cos(thresholdDeg * math.Pi / 180)
	var out []Edge3
	for _, k := range g.order {
		if g.sharp(k, c) {
			out = append(out, g.edge(k))
		}
	}
	return out
}

// SilhouetteEdges returns the edges of m that outline it when seen from v.
func SilhouetteEdges(m *kernel.Mesh, v View) []Edge3 {
	g := buildEdgeGraph(m)
	dir := v.Direction()
	var out []Edge3
	for _, k := range g.order {
		if g.silhouette(k, dir) {
			out = append(out, g.edge(k))
		}
	}
	return out
}
