// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

// ErrSegmentBudget is returned when segment recovery exhausts its Steiner
// point budget, which indicates severely degenerate input.
var ErrSegmentBudget = errors.New("mesh: segment recovery exceeded the point budget")

// markAcuteVertices classifies every segment endpoint. A vertex is acute
// when two of its segments meet at less than ninety degrees; splitting near
// such a vertex must respect its protecting sphere or refinement cascades.
func (m *Mesh) markAcuteVertices() {
	ends := map[int][]r3.Vector{}
	shortest := map[int]float64{}
	m.eachShell(subseg, func(s ShellEdge) bool {
		r := m.shell(s)
		a, b := r.vert[0], r.vert[1]
		l := m.pt(b).Sub(m.pt(a)).Norm()
		if l == 0 {
			return true
		}
		ends[a] = append(ends[a], m.pt(b))
		ends[b] = append(ends[b], m.pt(a))
		for _, v := range []int{a, b} {
			if cur, ok := shortest[v]; !ok || l < cur {
				shortest[v] = l
			}
		}
		return true
	})
	acuteCount := 0
	for v, ps := range ends {
		acute := false
		for i := 0; i < len(ps) && !acute; i++ {
			for j := i + 1; j < len(ps); j++ {
				if interiorAngle(m.pt(v), ps[i], ps[j]) < math.Pi/2 {
					acute = true
					break
				}
			}
		}
		if acute {
			m.setPointKind(v, AcuteVertex)
			m.protectRadius[v] = shortest[v] / 3
			acuteCount++
		} else {
			m.setPointKind(v, NonAcuteVertex)
		}
	}
	if m.Verbose() {
		m.log.Info("classified segment vertices",
			"total", len(ends), "acute", acuteCount)
	}
}

// findTetEdge finds a tetrahedron handle whose oriented edge runs a to b.
func (m *Mesh) findTetEdge(a, b int) (TetFace, bool) {
	var found TetFace
	ok := false
	m.tetsAround(a, func(ti int) bool {
		if !m.tetHasVertex(TetFace{Tet: ti}, b) {
			return true
		}
		if h, has := m.edgeInTet(ti, a, b); has {
			found = h
			ok = true
		}
		return !ok
	})
	return found, ok
}

// edgeInTet positions a handle of tetrahedron ti on the oriented edge a-b.
func (m *Mesh) edgeInTet(ti, a, b int) (TetFace, bool) {
	for loc := int8(0); loc < 4; loc++ {
		for ver := int8(0); ver < 6; ver++ {
			h := TetFace{Tet: ti, Loc: loc, Ver: ver}
			if m.org(h) == a && m.dest(h) == b {
				return h, true
			}
		}
	}
	return TetFace{}, false
}

// findDirection walks the star of a toward b and classifies how the ray
// from a to b leaves the first tetrahedron whose cone at a contains it: to
// a collinear vertex along an existing mesh edge, across an edge of the
// tetrahedron, or across the face opposite a. For collinear results the
// returned handle runs from a to the collinear vertex, which is also the
// second return value and is b itself when the whole segment is present as
// a mesh edge; for Across results the handle sits on the crossed entity.
// BelowHull means no cone at a contains the direction, so the ray leaves
// the mesh immediately.
func (m *Mesh) findDirection(a, b int) (TetFace, int, DirectionResult) {
	pa, pb := m.pt(a), m.pt(b)
	hit := TetFace{}
	cv := noPoint
	res := BelowHull
	m.tetsAround(a, func(ti int) bool {
		var t TetFace
		found := false
		for loc := int8(0); loc < 4 && !found; loc++ {
			t = TetFace{Tet: ti, Loc: loc}
			found = m.findOrg(&t, a)
		}
		if !found {
			return true
		}
		d, e, f := m.dest(t), m.apex(t), m.oppo(t)
		switch b {
		case d:
			hit, cv, res = t, b, RightCollinear
			return false
		case e:
			h := esym(enext2(t))
			hit, cv, res = h, b, LeftCollinear
			return false
		case f:
			h, _ := m.edgeInTet(ti, a, f)
			hit, cv, res = h, b, TopCollinear
			return false
		}
		pd, pe, pf := m.pt(d), m.pt(e), m.pt(f)
		if predicates.Orient3D(pa, pd, pe, pf) != predicates.Positive {
			return true // flat, no usable cone
		}
		sf := predicates.Orient3D(pa, pd, pe, pb)
		sd := predicates.Orient3D(pa, pe, pf, pb)
		se := predicates.Orient3D(pa, pf, pd, pb)
		if sf == predicates.Negative || sd == predicates.Negative || se == predicates.Negative {
			return true // b is outside this cone
		}
		switch {
		case sd == predicates.Zero && se == predicates.Zero:
			h, _ := m.edgeInTet(ti, a, f)
			hit, cv, res = h, f, TopCollinear
		case sf == predicates.Zero && se == predicates.Zero:
			hit, cv, res = t, d, RightCollinear
		case sf == predicates.Zero && sd == predicates.Zero:
			hit, cv, res = esym(enext2(t)), e, LeftCollinear
		case sf == predicates.Zero:
			hit, _ = m.edgeInTet(ti, d, e)
			res = AcrossEdge
		case sd == predicates.Zero:
			hit, _ = m.edgeInTet(ti, e, f)
			res = AcrossEdge
		case se == predicates.Zero:
			hit, _ = m.edgeInTet(ti, f, d)
			res = AcrossEdge
		default:
			hit, res = t, AcrossFace
		}
		return false
	})
	return hit, cv, res
}

// scoutRefPoint picks the vertex responsible for a missing segment a-b: the
// non-endpoint vertex nearest to the segment among the stars of both ends.
// That vertex lies inside the segment's diametral sphere, otherwise the
// Delaunay tetrahedralization would already contain the edge.
func (m *Mesh) scoutRefPoint(a, b int) int {
	best := noPoint
	bestDist := math.Inf(1)
	consider := func(ti int) bool {
		for _, v := range m.tets.at(ti).corner {
			if v == a || v == b || v == noPoint {
				continue
			}
			t := lineProjectionParam(m.pt(v), m.pt(a), m.pt(b))
			if t <= 0 || t >= 1 {
				continue
			}
			d := shortDistance(m.pt(v), m.pt(a), m.pt(b))
			if d < bestDist {
				bestDist = d
				best = v
			}
		}
		return true
	}
	m.tetsAround(a, consider)
	m.tetsAround(b, consider)
	return best
}

// segSplitPoint places the Steiner point for missing segment a-b, guided by
// the reference vertex. An acute endpoint claims the split onto its
// protecting sphere so later splits cannot creep toward it.
func (m *Mesh) segSplitPoint(a, b, ref int) r3.Vector {
	pa, pb := m.pt(a), m.pt(b)
	l := pb.Sub(pa).Norm()
	acuteA := m.pointKind(a) == AcuteVertex
	acuteB := m.pointKind(b) == AcuteVertex
	switch {
	case acuteA && !acuteB:
		d := l / 2
		if ref != noPoint {
			// The reference vertex governs through its projection onto the
			// segment line.
			if dr := projPoint(m.pt(ref), pa, pb).Sub(pa).Norm(); dr < d {
				d = dr
			}
		}
		if r, ok := m.protectRadius[a]; ok && d < r {
			d = r
		}
		return pa.Add(pb.Sub(pa).Mul(d / l))
	case acuteB && !acuteA:
		d := l / 2
		if ref != noPoint {
			if dr := projPoint(m.pt(ref), pa, pb).Sub(pb).Norm(); dr < d {
				d = dr
			}
		}
		if r, ok := m.protectRadius[b]; ok && d < r {
			d = r
		}
		return pb.Add(pa.Sub(pb).Mul(d / l))
	case ref != noPoint:
		t := lineProjectionParam(m.pt(ref), pa, pb)
		if t < 0.2 {
			t = 0.2
		}
		if t > 0.8 {
			t = 0.8
		}
		return pa.Add(pb.Sub(pa).Mul(t))
	default:
		return pa.Add(pb.Sub(pa).Mul(0.5))
	}
}

// DelaunizeSegments splits every subsegment missing from the Delaunay
// tetrahedralization until each one appears as a union of mesh edges. The
// result is a conforming Delaunay tetrahedralization of the segments.
func (m *Mesh) DelaunizeSegments() error {
	m.markAcuteVertices()
	var queue []ShellEdge
	m.eachShell(subseg, func(s ShellEdge) bool {
		queue = append(queue, s)
		return true
	})
	budget := m.steinerBudget()
	added := 0
	var fq flipQueue
	for len(queue) > 0 {
		seg := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if m.isDeadShell(seg) {
			continue
		}
		r := m.shell(seg)
		a, b := r.vert[0], r.vert[1]
		if _, v, dir := m.findDirection(a, b); dir == RightCollinear ||
			dir == LeftCollinear || dir == TopCollinear {
			if v == b {
				continue // present as a mesh edge
			}
			// An existing vertex sits on the open segment; conform to it
			// without spending a Steiner point.
			halves := m.splitSegmentShell(seg, v)
			queue = append(queue, halves[0], halves[1])
			continue
		}
		if added >= budget {
			return ErrSegmentBudget
		}
		ref := m.scoutRefPoint(a, b)
		pos := m.segSplitPoint(a, b, ref)
		p := m.makePoint(pos, FreeSegVertex)
		searchtet := TetFace{}
		switch m.insertSite(p, &searchtet, true, &fq) {
		case DuplicatePoint:
			// The split point coincides with an existing vertex; adopt it.
			twin := m.point2ppt(p)
			m.killPoint(p)
			p = twin
		case OutsidePoint:
			m.insertHullSite(p, searchtet, &fq)
		}
		m.flip(&fq)
		added++

		halves := m.splitSegmentShell(seg, p)
		queue = append(queue, halves[0], halves[1])
	}
	if m.Verbose() {
		m.log.Info("segments recovered", "steiner points", added,
			"subsegments", m.countShells(subseg))
	}
	return nil
}

// splitSegmentShell splits subsegment seg and every subface riding its edge
// at vertex p, keeping the surface mesh conforming to the segment split.
func (m *Mesh) splitSegmentShell(seg ShellEdge, p int) [2]ShellEdge {
	r := m.shell(seg)
	a, b := r.vert[0], r.vert[1]
	var ring []ShellEdge
	start := m.segToSub(seg)
	if start.Shell != vacuousShell {
		cur := start
		for i := 0; i < 1024; i++ {
			ring = append(ring, cur)
			next := m.spivot(cur)
			if next.Shell == vacuousShell || next.Shell == start.Shell {
				break
			}
			m.findShellEdge(&next, a, b)
			cur = next
		}
	}
	halves := m.splitSubsegment(seg, p)
	var pieces []ShellEdge
	for _, s := range ring {
		pieces = append(pieces, m.splitSubfaceEdge(s, a, b, p)...)
	}
	if len(pieces) > 0 {
		m.ringSubsegment(halves[0], pieces)
		m.ringSubsegment(halves[1], pieces)
	}
	return halves
}

func (m *Mesh) steinerBudget() int {
	n := 0
	m.eachPoint(func(int) bool {
		n++
		return true
	})
	return m.cfg.SteinerFactor * n
}
