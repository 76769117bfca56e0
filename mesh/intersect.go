// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

// ErrFacetsIntersect is returned when the input facets cross each other
// somewhere other than a shared vertex or edge.
var ErrFacetsIntersect = errors.New("mesh: input facets intersect")

// surfTri is one boundary triangle queued for pairwise intersection tests.
type surfTri struct {
	verts  [3]int
	marker int
	lo, hi r3.Vector
}

// DetectIntersections tests every pair of nearby surface triangles for an
// improper crossing and returns an error naming the facet markers of the
// offending pairs. Pairs meeting at a shared input vertex, edge, or face
// are proper contacts and are not reported.
func (m *Mesh) DetectIntersections() error {
	var tris []surfTri
	m.eachShell(subface, func(s ShellEdge) bool {
		r := m.shell(s)
		t := surfTri{verts: r.vert, marker: r.marker}
		t.lo, t.hi = m.pt(r.vert[0]), m.pt(r.vert[0])
		for _, v := range r.vert[1:] {
			p := m.pt(v)
			t.lo = r3.Vector{X: min(t.lo.X, p.X), Y: min(t.lo.Y, p.Y), Z: min(t.lo.Z, p.Z)}
			t.hi = r3.Vector{X: max(t.hi.X, p.X), Y: max(t.hi.Y, p.Y), Z: max(t.hi.Z, p.Z)}
		}
		tris = append(tris, t)
		return true
	})

	type pair struct{ a, b int }
	seen := map[pair]bool{}
	var bad []pair
	m.partitionTris(tris, 0, func(a, b surfTri) {
		if m.triTriIntersect(a.verts, b.verts) != Intersect {
			return
		}
		p := pair{a.marker, b.marker}
		if p.a > p.b {
			p.a, p.b = p.b, p.a
		}
		if !seen[p] {
			seen[p] = true
			bad = append(bad, p)
		}
	})
	if len(bad) == 0 {
		return nil
	}
	msg := ""
	for i, p := range bad {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("%d/%d", p.a, p.b)
	}
	return fmt.Errorf("%w: facet pairs %s", ErrFacetsIntersect, msg)
}

// triTriIntersect classifies how two surface triangles meet. Triangles
// sharing input vertices touch along those shared features, which is
// proper contact; only vertex-disjoint pairs get the geometric test.
func (m *Mesh) triTriIntersect(t1, t2 [3]int) InterResult {
	shared := 0
	for _, a := range t1 {
		for _, b := range t2 {
			if a == b {
				shared++
			}
		}
	}
	switch shared {
	case 3:
		return ShareFace
	case 2:
		return ShareEdge
	case 1:
		return ShareVertex
	}
	if m.trianglesCross(t1, t2) {
		return Intersect
	}
	return Disjoint
}

// partitionTris recursively splits the triangle set along alternating axes
// and runs the pairwise visitor inside each leaf. Triangles straddling a
// split plane go to both halves.
func (m *Mesh) partitionTris(tris []surfTri, depth int, visit func(a, b surfTri)) {
	const leafSize = 16
	if len(tris) <= leafSize || depth > 32 {
		for i := 0; i < len(tris); i++ {
			for j := i + 1; j < len(tris); j++ {
				visit(tris[i], tris[j])
			}
		}
		return
	}
	axis := depth % 3
	key := func(t surfTri) float64 {
		switch axis {
		case 0:
			return t.lo.X + t.hi.X
		case 1:
			return t.lo.Y + t.hi.Y
		}
		return t.lo.Z + t.hi.Z
	}
	keyLo := func(t surfTri) float64 {
		switch axis {
		case 0:
			return t.lo.X
		case 1:
			return t.lo.Y
		}
		return t.lo.Z
	}
	keyHi := func(t surfTri) float64 {
		switch axis {
		case 0:
			return t.hi.X
		case 1:
			return t.hi.Y
		}
		return t.hi.Z
	}
	keys := make([]float64, len(tris))
	for i, t := range tris {
		keys[i] = key(t)
	}
	sort.Float64s(keys)
	split := keys[len(keys)/2] / 2

	var left, right []surfTri
	for _, t := range tris {
		if keyLo(t) <= split {
			left = append(left, t)
		}
		if keyHi(t) >= split {
			right = append(right, t)
		}
	}
	if len(left) == len(tris) || len(right) == len(tris) {
		// The split does not separate anything; fall back to brute force.
		for i := 0; i < len(tris); i++ {
			for j := i + 1; j < len(tris); j++ {
				visit(tris[i], tris[j])
			}
		}
		return
	}
	m.partitionTris(left, depth+1, visit)
	m.partitionTris(right, depth+1, visit)
}

// trianglesCross reports whether two vertex-disjoint triangles intersect.
func (m *Mesh) trianglesCross(t1, t2 [3]int) bool {
	s := [3]predicates.Sign{}
	zeros := 0
	for i, v := range t1 {
		s[i] = predicates.Orient3D(m.pt(t2[0]), m.pt(t2[1]), m.pt(t2[2]), m.pt(v))
		if s[i] == predicates.Zero {
			zeros++
		}
	}
	if zeros == 3 {
		return m.coplanarTrianglesOverlap(t1, t2)
	}
	if s[0] == s[1] && s[1] == s[2] {
		return false // strictly on one side
	}
	for i := 0; i < 3; i++ {
		if m.edgeCrossesTriangle(t1[i], t1[(i+1)%3], t2) {
			return true
		}
	}
	for i := 0; i < 3; i++ {
		if m.edgeCrossesTriangle(t2[i], t2[(i+1)%3], t1) {
			return true
		}
	}
	return false
}

// edgeCrossesTriangle reports whether segment a-b pierces triangle pqr,
// contact at the triangle boundary included.
func (m *Mesh) edgeCrossesTriangle(a, b int, tri [3]int) bool {
	pa, pb := m.pt(a), m.pt(b)
	pp, pq, pr := m.pt(tri[0]), m.pt(tri[1]), m.pt(tri[2])
	sa := predicates.Orient3D(pp, pq, pr, pa)
	sb := predicates.Orient3D(pp, pq, pr, pb)
	if sa == sb {
		// Same side, or both in the plane; the coplanar case is handled
		// by the 2D overlap test.
		return false
	}
	if sa == predicates.Zero || sb == predicates.Zero {
		// Touching the plane at an endpoint still counts when the
		// endpoint is inside the triangle.
		touch := pa
		if sb == predicates.Zero {
			touch = pb
		}
		return pointInTriangleExact(touch, pp, pq, pr)
	}
	// Orient the piercing test so a is above pqr.
	if sa == predicates.Negative {
		pa, pb = pb, pa
	}
	c1 := predicates.Orient3D(pa, pb, pp, pq)
	c2 := predicates.Orient3D(pa, pb, pq, pr)
	c3 := predicates.Orient3D(pa, pb, pr, pp)
	return c1 != predicates.Positive && c2 != predicates.Positive && c3 != predicates.Positive ||
		c1 != predicates.Negative && c2 != predicates.Negative && c3 != predicates.Negative
}

// pointInTriangleExact tests a point known to lie in the plane of pqr.
func pointInTriangleExact(x, p, q, r r3.Vector) bool {
	n := q.Sub(p).Cross(r.Sub(p))
	lift := p.Add(n)
	s1 := predicates.Orient3D(p, q, lift, x)
	s2 := predicates.Orient3D(q, r, lift, x)
	s3 := predicates.Orient3D(r, p, lift, x)
	return s1 != predicates.Positive && s2 != predicates.Positive && s3 != predicates.Positive ||
		s1 != predicates.Negative && s2 != predicates.Negative && s3 != predicates.Negative
}

// coplanarTrianglesOverlap tests two triangles in a common plane. Touching
// along a shared boundary point or segment is an overlap here, since the
// triangles share no input vertex.
func (m *Mesh) coplanarTrianglesOverlap(t1, t2 [3]int) bool {
	for _, v := range t1 {
		if pointInTriangleExact(m.pt(v), m.pt(t2[0]), m.pt(t2[1]), m.pt(t2[2])) {
			return true
		}
	}
	for _, v := range t2 {
		if pointInTriangleExact(m.pt(v), m.pt(t1[0]), m.pt(t1[1]), m.pt(t1[2])) {
			return true
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if coplanarSegmentsCross(
				m.pt(t1[i]), m.pt(t1[(i+1)%3]),
				m.pt(t2[j]), m.pt(t2[(j+1)%3])) {
				return true
			}
		}
	}
	return false
}

// coplanarSegmentsCross tests two coplanar segments for a proper crossing.
func coplanarSegmentsCross(a, b, c, d r3.Vector) bool {
	n := b.Sub(a).Cross(d.Sub(c))
	if n.Norm() == 0 {
		return false // parallel; endpoint containment was tested already
	}
	la := a.Add(n)
	sc := predicates.Orient3D(a, b, la, c)
	sd := predicates.Orient3D(a, b, la, d)
	if sc == sd || sc == predicates.Zero || sd == predicates.Zero {
		return false
	}
	lc := c.Add(n)
	sa := predicates.Orient3D(c, d, lc, a)
	sb := predicates.Orient3D(c, d, lc, b)
	return sa != sb && sa != predicates.Zero && sb != predicates.Zero
}
