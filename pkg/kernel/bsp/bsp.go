// Package bsp implements kernel.Kernel with binary space partitioning
// trees over polygons. It is exact up to Epsilon, has no dependencies on
// native libraries, and is the default backend.
package bsp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fluteforge/pkg/kernel"
)

// Epsilon is the plane-classification tolerance.
const Epsilon = 1e-5

// ErrEmptyResult is returned when a boolean removes everything.
var ErrEmptyResult = errors.New("bsp: boolean produced an empty mesh")

// ErrNonFinite is returned when a boolean produced NaN or Inf coordinates.
var ErrNonFinite = errors.New("bsp: boolean produced non-finite coordinates")

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel implements kernel.Kernel using BSP trees.
type Kernel struct{}

// New returns a new BSP kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name identifies the backend.
func (k *Kernel) Name() string { return "bsp" }

// Union returns a ∪ b.
func (k *Kernel) Union(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	na, nb := newNode(polygons(a)), newNode(polygons(b))
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	return toMesh(na.allPolygons(), "union")
}

// Difference returns a − b.
func (k *Kernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	na, nb := newNode(polygons(a)), newNode(polygons(b))
	na.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	na.invert()
	return toMesh(na.allPolygons(), "difference")
}

// Intersection returns a ∩ b.
func (k *Kernel) Intersection(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	na, nb := newNode(polygons(a)), newNode(polygons(b))
	na.invert()
	nb.clipTo(na)
	nb.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	na.build(nb.allPolygons())
	na.invert()
	return toMesh(na.allPolygons(), "intersection")
}

// polygons converts each non-degenerate triangle to a polygon.
func polygons(m *kernel.Mesh) []*polygon {
	out := make([]*polygon, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		p, ok := newPolygon([]r3.Vec{tri[0], tri[1], tri[2]})
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// toMesh fan-triangulates the polygons into an unindexed mesh with flat
// normals.
func toMesh(polys []*polygon, partName string) (*kernel.Mesh, error) {
	m := kernel.NewMesh(partName)
	for _, p := range polys {
		n := p.plane.normal
		for i := 2; i < len(p.vertices); i++ {
			for _, v := range [3]r3.Vec{p.vertices[0], p.vertices[i-1], p.vertices[i]} {
				m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
				m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			}
		}
	}
	if m.IsEmpty() {
		return nil, ErrEmptyResult
	}
	if !m.Finite() {
		return nil, ErrNonFinite
	}
	return m, nil
}

// ----------------------------------------------------------------------------
// Planes and polygons
// ----------------------------------------------------------------------------

type plane struct {
	normal r3.Vec
	w      float64
}

func planeFromPoints(a, b, c r3.Vec) (plane, bool) {
	cross := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(cross)
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return plane{}, false
	}
	n := r3.Scale(1/l, cross)
	return plane{normal: n, w: r3.Dot(n, a)}, true
}

func (p plane) flip() plane {
	return plane{normal: r3.Scale(-1, p.normal), w: -p.w}
}

type polygon struct {
	vertices []r3.Vec
	plane    plane
}

func newPolygon(vs []r3.Vec) (*polygon, bool) {
	pl, ok := planeFromPoints(vs[0], vs[1], vs[2])
	if !ok {
		return nil, false
	}
	return &polygon{vertices: vs, plane: pl}, true
}

func (p *polygon) flip() {
	for i, j := 0, len(p.vertices)-1; i < j; i, j = i+1, j-1 {
		p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
	}
	p.plane = p.plane.flip()
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split classifies poly against p and appends it, or its pieces, to the
// matching lists.
func (p plane) split(poly *polygon, coplanarFront, coplanarBack, fronts, backs *[]*polygon) {
	polyType := 0
	types := make([]int, len(poly.vertices))
	for i, v := range poly.vertices {
		t := r3.Dot(p.normal, v) - p.w
		typ := coplanar
		if t < -Epsilon {
			typ = back
		} else if t > Epsilon {
			typ = front
		}
		polyType |= typ
		types[i] = typ
	}

	switch polyType {
	case coplanar:
		if r3.Dot(p.normal, poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	case spanning:
		var f, b []r3.Vec
		n := len(poly.vertices)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (p.w - r3.Dot(p.normal, vi)) / r3.Dot(p.normal, r3.Sub(vj, vi))
				v := r3.Add(vi, r3.Scale(t, r3.Sub(vj, vi)))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, &polygon{vertices: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, &polygon{vertices: b, plane: poly.plane})
		}
	}
}

// ----------------------------------------------------------------------------
// BSP tree
// ----------------------------------------------------------------------------

type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polys []*polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.plane != nil {
		fl := n.plane.flip()
		n.plane = &fl
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *node) clipPolygons(polys []*polygon) []*polygon {
	if n.plane == nil {
		return append([]*polygon(nil), polys...)
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes the parts of this tree's polygons inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []*polygon {
	out := append([]*polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

func (n *node) build(polys []*polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		pl := polys[0].plane
		n.plane = &pl
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &n.polygons, &n.polygons, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}
