// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"
	"fmt"

	"github.com/2dChan/tetra/predicates"
)

// ErrBadElement is returned when the element list handed to Reconstruct
// references a missing point or describes a face absent from the elements.
var ErrBadElement = errors.New("mesh: bad element in reconstruction input")

// Reconstruct rebuilds a tetrahedralization from the element list of a
// previous run, so refinement can continue where that run stopped. The
// points must already be transferred. Boundary triangles become subfaces
// and boundary edges subsegments, restoring the constrained surface the
// quality pass respects.
func (m *Mesh) Reconstruct(els [][]int, attrs [][]float64, triFaces [][3]int, faceMarkers []int, edges [][2]int, edgeMarkers []int) error {
	if len(els) == 0 {
		return fmt.Errorf("%w: empty element list", ErrBadElement)
	}
	npts := m.points.len()
	valid := func(v int) bool { return v >= 0 && v < npts && !m.points.isDead(v) }

	sortTriple := func(a, b, c int) [3]int {
		if a > b {
			a, b = b, a
		}
		if b > c {
			b, c = c, b
		}
		if a > b {
			a, b = b, a
		}
		return [3]int{a, b, c}
	}

	// Elements first: orient each one positively, then stitch neighbors
	// through a map of unmatched faces. What stays unmatched is boundary.
	open := map[[3]int]TetFace{}
	seen := map[[3]int]bool{}
	for i, el := range els {
		if len(el) < 4 {
			return fmt.Errorf("%w: element %d has %d nodes", ErrBadElement, i, len(el))
		}
		c := [4]int{el[0], el[1], el[2], el[3]}
		for _, v := range c {
			if !valid(v) {
				return fmt.Errorf("%w: element %d node %d", ErrBadElement, i, v)
			}
		}
		if c[0] == c[1] || c[0] == c[2] || c[0] == c[3] ||
			c[1] == c[2] || c[1] == c[3] || c[2] == c[3] {
			return fmt.Errorf("%w: element %d repeats a node", ErrBadElement, i)
		}
		if predicates.Orient3DSym(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]),
			c[0], c[1], c[2], c[3]) == predicates.Negative {
			c[2], c[3] = c[3], c[2]
		}
		t := m.makeTetrahedron()
		rec := m.tet(t)
		rec.corner = c
		if attrs != nil && i < len(attrs) {
			rec.attrs = attrs[i]
		}
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			key := sortTriple(m.org(h), m.dest(h), m.apex(h))
			seen[key] = true
			if prev, ok := open[key]; ok {
				m.bond(h, prev)
				delete(open, key)
			} else {
				open[key] = h
			}
		}
	}
	m.hullSize = m.countHullFaces()
	m.makePoint2TetMap()
	m.eachTet(func(t TetFace) bool {
		m.recent = t
		return false
	})

	// Boundary triangles. Each must be a face of some element.
	edgeSubs := map[[2]int][]ShellEdge{}
	for i, tri := range triFaces {
		for _, v := range tri {
			if !valid(v) {
				return fmt.Errorf("%w: face %d node %d", ErrBadElement, i, v)
			}
		}
		if !seen[sortTriple(tri[0], tri[1], tri[2])] {
			return fmt.Errorf("%w: face %d is not an element face", ErrBadElement, i)
		}
		s := m.makeShellFace(subface)
		r := m.shell(s)
		r.vert = tri
		if faceMarkers != nil && i < len(faceMarkers) {
			r.marker = faceMarkers[i]
		}
		m.bondSubfaceToTets(s)
		for e := 0; e < 3; e++ {
			u, v := tri[e], tri[(e+1)%3]
			k := [2]int{min(u, v), max(u, v)}
			edgeSubs[k] = append(edgeSubs[k], s)
		}
	}

	// Boundary edges ring their subfaces through the subsegment; facet
	// interior edges pair-bond directly.
	for i, ed := range edges {
		if !valid(ed[0]) || !valid(ed[1]) || ed[0] == ed[1] {
			return fmt.Errorf("%w: edge %d", ErrBadElement, i)
		}
		seg := m.makeShellFace(subseg)
		r := m.shell(seg)
		r.vert = [3]int{ed[0], ed[1], noPoint}
		if edgeMarkers != nil && i < len(edgeMarkers) {
			r.marker = edgeMarkers[i]
		}
		k := [2]int{min(ed[0], ed[1]), max(ed[0], ed[1])}
		if ring := edgeSubs[k]; len(ring) > 0 {
			m.ringSubsegment(seg, ring)
			delete(edgeSubs, k)
		}
	}
	for k, pairAt := range edgeSubs {
		if len(pairAt) == 2 {
			m.pairBondAtEdge(pairAt, k[0], k[1])
		}
	}

	if len(triFaces) > 0 {
		m.checkSubfaces = true
		m.nonconvex = true
	}
	m.inSegments = m.countShells(subseg)
	if m.inSegments > 0 {
		m.markAcuteVertices()
	}
	if m.Verbose() {
		m.log.Info("mesh reconstructed",
			"tetrahedra", m.NumTets(),
			"subfaces", m.countShells(subface),
			"subsegments", m.inSegments,
			"hull faces", m.hullSize)
	}
	return nil
}
