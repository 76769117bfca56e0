// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import "github.com/golang/geo/r3"

// The mesh comprises three element kinds. A tetRecord stores four corner
// points (the fourth has negative orientation with respect to the first
// three), four neighbor handles indexed by the opposite corner, and four
// adjoining shellface handles. A shellRecord represents either a subface
// (boundary triangle) or a subsegment (boundary edge); subsegments use only
// the first two vertex slots. A pointRecord stores coordinates plus the
// bookkeeping needed to seed point location.
//
// The vertex order per tetrahedron face is stipulated as:
//
//	f0 (v0, v1, v2)   f1 (v0, v3, v1)   f2 (v1, v3, v2)   f3 (v2, v3, v0)
//
// Neighbors and shellfaces are stored in face order. Absent neighbors are
// never nil: tet slot 0 is the sentinel tetrahedron occupying all of outer
// space, and shell slot 0 is the omnipresent vacuous shellface. Both are
// the zero values of their handle types, so a freshly allocated record is
// already fully disconnected.

const (
	outerTet     = 0
	vacuousShell = 0
	noPoint      = -1
)

type tetRecord struct {
	nbr    [4]TetFace
	corner [4]int
	shell  [4]ShellEdge
	attrs  []float64
	// volume is the per-element volume constraint; <= 0 means unconstrained.
	volume   float64
	ho       []int // mid-edge node ids, order-2 output only
	infected bool
}

type shellKind int8

const (
	subface shellKind = iota
	subseg
)

type shellRecord struct {
	kind shellKind
	vert [3]int
	// adj links the edge rings: for subfaces, the ring of subfaces around
	// each of the three edges; for subsegments, the collinear neighbor
	// subsegments at the two endpoints.
	adj      [3]ShellEdge
	seg      [3]ShellEdge
	tet      [2]TetFace
	marker   int
	segKind  SegKind
	infected bool
}

type pointRecord struct {
	pos    r3.Vector
	attrs  []float64
	marker int
	kind   VertexKind
	// tet seeds point location with an incident tetrahedron; before the
	// point is inserted, ppt chains it to a nearby already-inserted point.
	tet int
	ppt int
}

// TetFace addresses one face of a tetrahedron together with one of the six
// oriented edges of that face: Tet is the arena index, Loc the face (0..3),
// Ver the edge version (0..5). The zero value addresses the outer sentinel.
type TetFace struct {
	Tet int
	Loc int8
	Ver int8
}

// ShellEdge addresses one oriented edge of a shellface: Ver is 0..5 for a
// subface and 0 or 1 for a subsegment. The zero value addresses the vacuous
// shellface.
type ShellEdge struct {
	Shell int
	Ver   int8
}

// Fast lookup tables. They encode the fixed combinatorics of the face/vertex
// stipulation above and are shared, immutable, by all meshes.
var (
	// ve advances an edge version to the next edge of the same ring.
	ve = [6]int8{2, 5, 4, 1, 0, 3}

	// vo, vd, va map an edge version to the face-local positions of the
	// edge origin, destination, and apex.
	vo = [6]int8{0, 1, 1, 2, 2, 0}
	vd = [6]int8{1, 0, 2, 1, 0, 2}
	va = [6]int8{2, 2, 0, 0, 1, 1}

	// locver2org/dest/apex map (face, version) to tetrahedron corners.
	locver2org = [4][6]int8{
		{0, 1, 1, 2, 2, 0},
		{0, 3, 3, 1, 1, 0},
		{1, 3, 3, 2, 2, 1},
		{2, 3, 3, 0, 0, 2},
	}
	locver2dest = [4][6]int8{
		{1, 0, 2, 1, 0, 2},
		{3, 0, 1, 3, 0, 1},
		{3, 1, 2, 3, 1, 2},
		{3, 2, 0, 3, 2, 0},
	}
	locver2apex = [4][6]int8{
		{2, 2, 0, 0, 1, 1},
		{1, 1, 0, 0, 3, 3},
		{2, 2, 1, 1, 3, 3},
		{0, 0, 2, 2, 3, 3},
	}

	// loc2oppo maps a face to the corner opposite it.
	loc2oppo = [4]int8{3, 2, 0, 1}

	// locver2nextf rotates an even-version handle to the other face of the
	// same tetrahedron sharing its oriented edge. Odd versions leave the
	// tetrahedron; fnext handles them by crossing to the neighbor.
	locver2nextf = [4][6][2]int8{
		{{1, 5}, {-1, -1}, {2, 5}, {-1, -1}, {3, 5}, {-1, -1}},
		{{3, 3}, {-1, -1}, {2, 1}, {-1, -1}, {0, 1}, {-1, -1}},
		{{1, 3}, {-1, -1}, {3, 1}, {-1, -1}, {0, 3}, {-1, -1}},
		{{2, 3}, {-1, -1}, {1, 1}, {-1, -1}, {0, 5}, {-1, -1}},
	}

	plus1mod3  = [3]int8{1, 2, 0}
	minus1mod3 = [3]int8{2, 0, 1}
)

func (m *Mesh) tet(t TetFace) *tetRecord     { return m.tets.at(t.Tet) }
func (m *Mesh) shell(s ShellEdge) *shellRecord { return m.shells.at(s.Shell) }
func (m *Mesh) point(i int) *pointRecord     { return m.points.at(i) }
func (m *Mesh) pt(i int) r3.Vector           { return m.points.at(i).pos }

// Tetrahedron primitives.

// sym returns the handle on the far side of t's face. The returned version
// is 0; callers needing a particular edge follow with findEdge.
func (m *Mesh) sym(t TetFace) TetFace {
	n := m.tet(t).nbr[t.Loc]
	return TetFace{Tet: n.Tet, Loc: n.Loc}
}

func (m *Mesh) symExists(t TetFace) bool {
	return m.tet(t).nbr[t.Loc].Tet != outerTet
}

// bond glues t1 and t2 together at their common face.
func (m *Mesh) bond(t1, t2 TetFace) {
	m.tet(t1).nbr[t1.Loc] = TetFace{Tet: t2.Tet, Loc: t2.Loc}
	m.tet(t2).nbr[t2.Loc] = TetFace{Tet: t1.Tet, Loc: t1.Loc}
}

// dissolve detaches t's neighbor; t faces outer space afterwards.
func (m *Mesh) dissolve(t TetFace) {
	m.tet(t).nbr[t.Loc] = TetFace{}
}

func (m *Mesh) org(t TetFace) int  { return m.tet(t).corner[locver2org[t.Loc][t.Ver]] }
func (m *Mesh) dest(t TetFace) int { return m.tet(t).corner[locver2dest[t.Loc][t.Ver]] }
func (m *Mesh) apex(t TetFace) int { return m.tet(t).corner[locver2apex[t.Loc][t.Ver]] }
func (m *Mesh) oppo(t TetFace) int { return m.tet(t).corner[loc2oppo[t.Loc]] }

func (m *Mesh) setOrg(t TetFace, p int)  { m.tet(t).corner[locver2org[t.Loc][t.Ver]] = p }
func (m *Mesh) setDest(t TetFace, p int) { m.tet(t).corner[locver2dest[t.Loc][t.Ver]] = p }
func (m *Mesh) setApex(t TetFace, p int) { m.tet(t).corner[locver2apex[t.Loc][t.Ver]] = p }
func (m *Mesh) setOppo(t TetFace, p int) { m.tet(t).corner[loc2oppo[t.Loc]] = p }

func esym(t TetFace) TetFace   { t.Ver ^= 1; return t }
func enext(t TetFace) TetFace  { t.Ver = ve[t.Ver]; return t }
func enext2(t TetFace) TetFace { t.Ver = ve[ve[t.Ver]]; return t }

// fnext returns the successor of t in the face ring around t's oriented
// edge. For an even version the successor is another face of the same
// tetrahedron; for an odd version it lies in the adjoining tetrahedron.
// It reports false when the ring leaves the mesh through the hull.
func (m *Mesh) fnext(t TetFace) (TetFace, bool) {
	if t.Ver&1 == 0 {
		n := locver2nextf[t.Loc][t.Ver]
		return TetFace{Tet: t.Tet, Loc: n[0], Ver: n[1]}, true
	}
	s := m.sym(t)
	if s.Tet == outerTet {
		return t, false
	}
	m.findEdge(&s, m.org(t), m.dest(t))
	return s, true
}

func (m *Mesh) enextFnext(t TetFace) (TetFace, bool)  { return m.fnext(enext(t)) }
func (m *Mesh) enext2Fnext(t TetFace) (TetFace, bool) { return m.fnext(enext2(t)) }

func (m *Mesh) infect(t TetFace)         { m.tet(t).infected = true }
func (m *Mesh) uninfect(t TetFace)       { m.tet(t).infected = false }
func (m *Mesh) infected(t TetFace) bool  { return m.tet(t).infected }

// Shellface primitives. The s-prefix mirrors the tetrahedron set.

// spivot returns the shellface adjoining s at its current edge.
func (m *Mesh) spivot(s ShellEdge) ShellEdge {
	return m.shell(s).adj[vo[s.Ver]]
}

// sbond bonds s1 and s2 at their common edge, each pointing at the other.
func (m *Mesh) sbond(s1, s2 ShellEdge) {
	m.shell(s1).adj[vo[s1.Ver]] = s2
	m.shell(s2).adj[vo[s2.Ver]] = s1
}

// sbond1 bonds s2 to s1 only. Face rings around a subsegment are built from
// these one-directional links.
func (m *Mesh) sbond1(s1, s2 ShellEdge) {
	m.shell(s1).adj[vo[s1.Ver]] = s2
}

func (m *Mesh) sdissolve(s ShellEdge) {
	m.shell(s).adj[vo[s.Ver]] = ShellEdge{}
}

func (m *Mesh) sorg(s ShellEdge) int  { return m.shell(s).vert[vo[s.Ver]] }
func (m *Mesh) sdest(s ShellEdge) int { return m.shell(s).vert[vd[s.Ver]] }
func (m *Mesh) sapex(s ShellEdge) int { return m.shell(s).vert[va[s.Ver]] }

func (m *Mesh) setSorg(s ShellEdge, p int)  { m.shell(s).vert[vo[s.Ver]] = p }
func (m *Mesh) setSdest(s ShellEdge, p int) { m.shell(s).vert[vd[s.Ver]] = p }
func (m *Mesh) setSapex(s ShellEdge, p int) { m.shell(s).vert[va[s.Ver]] = p }

func sesym(s ShellEdge) ShellEdge  { s.Ver ^= 1; return s }
func senext(s ShellEdge) ShellEdge { s.Ver = ve[s.Ver]; return s }
func senext2(s ShellEdge) ShellEdge {
	s.Ver = ve[ve[s.Ver]]
	return s
}

// sfnext returns the successor of s in the face ring around its edge.
func (m *Mesh) sfnext(s ShellEdge) ShellEdge {
	next := m.spivot(s)
	if next.Shell == vacuousShell {
		return next
	}
	// Keep the ring orientation: the successor is entered at the same
	// undirected edge, with origin matching s's destination when the ring
	// crosses a subsegment.
	m.findShellEdge(&next, m.sorg(s), m.sdest(s))
	return next
}

func (m *Mesh) sinfect(s ShellEdge)        { m.shell(s).infected = true }
func (m *Mesh) suninfect(s ShellEdge)      { m.shell(s).infected = false }
func (m *Mesh) sinfected(s ShellEdge) bool { return m.shell(s).infected }

func (m *Mesh) mark(s ShellEdge) int        { return m.shell(s).marker }
func (m *Mesh) setMark(s ShellEdge, v int)  { m.shell(s).marker = v }
func (m *Mesh) segKind(s ShellEdge) SegKind { return m.shell(s).segKind }
func (m *Mesh) setSegKind(s ShellEdge, k SegKind) {
	m.shell(s).segKind = k
}

// Tetrahedron-subface primitives.

// tspivot returns the subface adjoining t at its face, possibly vacuous.
func (m *Mesh) tspivot(t TetFace) ShellEdge {
	return m.tet(t).shell[t.Loc]
}

// stpivot returns the tetrahedron adjoining s on its current side, possibly
// the outer sentinel.
func (m *Mesh) stpivot(s ShellEdge) TetFace {
	return m.shell(s).tet[s.Ver&1]
}

// tsbond bonds t and s, which must represent the same face.
func (m *Mesh) tsbond(t TetFace, s ShellEdge) {
	m.tet(t).shell[t.Loc] = s
	m.shell(s).tet[s.Ver&1] = TetFace{Tet: t.Tet, Loc: t.Loc}
}

func (m *Mesh) tsdissolve(t TetFace) { m.tet(t).shell[t.Loc] = ShellEdge{} }
func (m *Mesh) stdissolve(s ShellEdge) {
	m.shell(s).tet[s.Ver&1] = TetFace{}
}

// Subface-subsegment primitives.

// sspivot returns the subsegment adjoining s at its current edge.
func (m *Mesh) sspivot(s ShellEdge) ShellEdge {
	return m.shell(s).seg[vo[s.Ver]]
}

// ssbond bonds subface s to subsegment seg at their common edge.
func (m *Mesh) ssbond(s, seg ShellEdge) {
	m.shell(s).seg[vo[s.Ver]] = seg
	// A subsegment keeps one arbitrary containing subface.
	m.shell(seg).adj[2] = s
}

func (m *Mesh) ssdissolve(s ShellEdge) {
	m.shell(s).seg[vo[s.Ver]] = ShellEdge{}
}

// segToSub returns one subface containing subsegment seg, possibly vacuous.
func (m *Mesh) segToSub(seg ShellEdge) ShellEdge {
	return m.shell(seg).adj[2]
}

// Point primitives.

func (m *Mesh) pointMark(p int) int          { return m.point(p).marker }
func (m *Mesh) setPointMark(p, v int)        { m.point(p).marker = v }
func (m *Mesh) pointKind(p int) VertexKind   { return m.point(p).kind }
func (m *Mesh) setPointKind(p int, k VertexKind) { m.point(p).kind = k }
func (m *Mesh) point2tet(p int) int          { return m.point(p).tet }
func (m *Mesh) setPoint2tet(p, t int)        { m.point(p).tet = t }
func (m *Mesh) point2ppt(p int) int          { return m.point(p).ppt }
func (m *Mesh) setPoint2ppt(p, q int)        { m.point(p).ppt = q }

// Advanced primitives.

// adjustEdgeRing puts t's version on the requested ring (ccw keeps even
// versions, cw odd ones).
func adjustEdgeRing(t TetFace, direction int8) TetFace {
	if t.Ver&1 != direction {
		t.Ver ^= 1
	}
	return t
}

func adjustShellEdgeRing(s ShellEdge, direction int8) ShellEdge {
	if s.Ver&1 != direction {
		s.Ver ^= 1
	}
	return s
}

func (m *Mesh) isDead(t TetFace) bool      { return m.tets.isDead(t.Tet) }
func (m *Mesh) isDeadShell(s ShellEdge) bool { return m.shells.isDead(s.Shell) }

// findOrg rotates t's version until its origin is p, reporting whether p is
// a vertex of t's face at all. The edge ring (even or odd) is preserved.
func (m *Mesh) findOrg(t *TetFace, p int) bool {
	for i := 0; i < 3; i++ {
		if m.org(*t) == p {
			return true
		}
		*t = enext(*t)
	}
	return false
}

// findEdge rotates t's version so that its oriented edge runs from eorg to
// edest. Both must be vertices of t's face.
func (m *Mesh) findEdge(t *TetFace, eorg, edest int) {
	for v := int8(0); v < 6; v++ {
		t.Ver = v
		if m.org(*t) == eorg && m.dest(*t) == edest {
			return
		}
	}
	panic("mesh: findEdge: edge is not on the face")
}

// findShellEdge is findEdge for shellface handles; it accepts the edge in
// either direction so ring traversals stay on the shared undirected edge.
func (m *Mesh) findShellEdge(s *ShellEdge, eorg, edest int) {
	for v := int8(0); v < 6; v++ {
		s.Ver = v
		so, sd := m.sorg(*s), m.sdest(*s)
		if (so == eorg && sd == edest) || (so == edest && sd == eorg) {
			return
		}
	}
	panic("mesh: findShellEdge: edge is not on the shellface")
}

// findFace locates, among the four faces of t's tetrahedron, the one with
// the given corners and adjusts t to address it. It reports failure instead
// of panicking, since callers probe candidate tetrahedra.
func (m *Mesh) findFace(t *TetFace, forg, fdest, fapex int) bool {
	for loc := int8(0); loc < 4; loc++ {
		for v := int8(0); v < 6; v++ {
			c := TetFace{Tet: t.Tet, Loc: loc, Ver: v}
			if m.org(c) == forg && m.dest(c) == fdest && m.apex(c) == fapex {
				*t = c
				return true
			}
		}
	}
	return false
}

// faceHasPoint reports whether p is one of the three vertices of s.
func (m *Mesh) faceHasPoint(s ShellEdge, p int) bool {
	r := m.shell(s)
	return r.vert[0] == p || r.vert[1] == p || r.vert[2] == p
}

// faceHasEdge reports whether s has e1-e2 as one of its edges.
func (m *Mesh) faceHasEdge(s ShellEdge, e1, e2 int) bool {
	return m.faceHasPoint(s, e1) && m.faceHasPoint(s, e2)
}

// tetHasVertex reports whether p is a corner of t's tetrahedron.
func (m *Mesh) tetHasVertex(t TetFace, p int) bool {
	c := m.tet(t).corner
	return c[0] == p || c[1] == p || c[2] == p || c[3] == p
}

// tsspivot returns the subsegment on t's oriented edge, traversing the
// mediating subface if one adjoins the tetrahedron. It returns a vacuous
// handle when the edge carries no subsegment.
func (m *Mesh) tsspivot(t TetFace) ShellEdge {
	s := m.tspivot(t)
	if s.Shell == vacuousShell {
		// Rotate the face ring, a subface may adjoin elsewhere on the edge.
		spin := t
		for i := 0; i < 1024; i++ {
			next, ok := m.fnext(spin)
			if !ok {
				break
			}
			spin = next
			if spin.Tet == t.Tet && spin.Loc == t.Loc {
				break
			}
			if sf := m.tspivot(spin); sf.Shell != vacuousShell {
				s = sf
				break
			}
		}
		if s.Shell == vacuousShell {
			return ShellEdge{}
		}
	}
	m.findShellEdge(&s, m.org(t), m.dest(t))
	return m.sspivot(s)
}

// sstpivot returns a tetrahedron whose edge is subsegment seg.
func (m *Mesh) sstpivot(seg ShellEdge) (TetFace, bool) {
	s := m.segToSub(seg)
	if s.Shell == vacuousShell {
		return TetFace{}, false
	}
	m.findShellEdge(&s, m.sorg(seg), m.sdest(seg))
	t := m.stpivot(s)
	if t.Tet == outerTet {
		t = m.stpivot(sesym(s))
		if t.Tet == outerTet {
			return TetFace{}, false
		}
	}
	m.findEdge(&t, m.sorg(s), m.sdest(s))
	return t, true
}
