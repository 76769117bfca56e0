// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"fmt"
	"sort"

	"github.com/2dChan/tetra/predicates"
)

// queuedFace is a face awaiting a local Delaunay check. The three vertices
// captured at enqueue time re-validate the handle, since the mesh may have
// been rewritten between enqueue and pop.
type queuedFace struct {
	f                TetFace
	forg, fdest, fapex int
}

type flipQueue struct {
	items []queuedFace
	head  int
}

func (q *flipQueue) push(i queuedFace) { q.items = append(q.items, i) }

func (q *flipQueue) pop() (queuedFace, bool) {
	if q.head >= len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return queuedFace{}, false
	}
	i := q.items[q.head]
	q.head++
	return i, true
}

func (q *flipQueue) empty() bool { return q.head >= len(q.items) }

// flipRecord logs one topological rewrite so an insertion can be undone.
// before and after list the corner quadruples of the tetrahedra replaced and
// produced; newPoint is set for splits that introduced a vertex.
type flipRecord struct {
	typ      FlipType
	before   [][4]int
	after    [][4]int
	newPoint int
}

// enqueueFlipFace pushes t and its current vertices onto the queue.
func (m *Mesh) enqueueFlipFace(t TetFace, fq *flipQueue) {
	if t.Tet == outerTet {
		return
	}
	fq.push(queuedFace{f: t, forg: m.org(t), fdest: m.dest(t), fapex: m.apex(t)})
}

// revalidate re-derives a live handle for a queued face, reporting false if
// the face no longer exists.
func (m *Mesh) revalidate(qf queuedFace) (TetFace, bool) {
	if qf.f.Tet == outerTet || m.tets.isDead(qf.f.Tet) {
		return TetFace{}, false
	}
	t := TetFace{Tet: qf.f.Tet}
	if !m.findFace(&t, qf.forg, qf.fdest, qf.fapex) {
		return TetFace{}, false
	}
	return t, true
}

// orientedQuad orders the four corners so the stored tetrahedron satisfies
// the orientation invariant. Exact ties take the symbolic perturbation, so
// degenerate configurations still get a deterministic order.
func (m *Mesh) orientedQuad(p0, p1, p2, p3 int) [4]int {
	s := predicates.Orient3DSym(m.pt(p0), m.pt(p1), m.pt(p2), m.pt(p3), p0, p1, p2, p3)
	if s == predicates.Positive {
		return [4]int{p0, p1, p2, p3}
	}
	return [4]int{p1, p0, p2, p3}
}

type faceKey [3]int

func keyOf(a, b, c int) faceKey {
	k := faceKey{a, b, c}
	sort.Ints(k[:])
	return k
}

// replaceTets is the one topology rewriting primitive every flip and split
// is built from. It removes the tetrahedra in old, creates one tetrahedron
// per corner quadruple in quads (which must be positively oriented), bonds
// the new tetrahedra to each other wherever two share a face, and rebonds
// every surviving external adjacency, subfaces included, by face lookup.
func (m *Mesh) replaceTets(old []TetFace, quads [][4]int) []TetFace {
	inOld := map[int]bool{}
	for _, t := range old {
		inOld[t.Tet] = true
	}

	type extAdj struct {
		nbr TetFace
		sh  ShellEdge
	}
	ext := map[faceKey]extAdj{}
	for _, t := range old {
		rec := m.tet(t)
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			n := rec.nbr[loc]
			if inOld[n.Tet] && n.Tet != outerTet {
				continue
			}
			k := keyOf(m.org(h), m.dest(h), m.apex(h))
			ext[k] = extAdj{nbr: n, sh: rec.shell[loc]}
		}
	}

	attrs := m.tet(old[0]).attrs
	volume := m.tet(old[0]).volume
	for _, t := range old {
		m.killTetrahedron(t)
	}

	made := make([]TetFace, len(quads))
	for i, q := range quads {
		nt := m.makeTetrahedron()
		rec := m.tet(nt)
		rec.corner = q
		rec.attrs = attrs
		rec.volume = volume
		made[i] = nt
		for _, c := range q {
			m.setPoint2tet(c, nt.Tet)
		}
	}

	// Bond new-to-new and new-to-external by face identity.
	newFace := map[faceKey]TetFace{}
	for _, nt := range made {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: nt.Tet, Loc: loc}
			k := keyOf(m.org(h), m.dest(h), m.apex(h))
			if other, ok := newFace[k]; ok {
				m.bond(h, other)
				delete(newFace, k)
				continue
			}
			newFace[k] = h
		}
	}
	for k, h := range newFace {
		adj, ok := ext[k]
		if !ok {
			continue // fresh hull face
		}
		if adj.nbr.Tet != outerTet {
			m.bond(h, adj.nbr)
		}
		if adj.sh.Shell != vacuousShell {
			m.tsbond(h, adj.sh)
		}
		delete(ext, k)
	}
	// External faces no new tetrahedron covers open up to the hull.
	for _, adj := range ext {
		if adj.nbr.Tet != outerTet {
			m.dissolve(adj.nbr)
		}
		if adj.sh.Shell != vacuousShell {
			r := m.shell(adj.sh)
			for i := range r.tet {
				if r.tet[i].Tet != outerTet && m.tets.isDead(r.tet[i].Tet) {
					r.tet[i] = TetFace{}
				}
			}
		}
	}
	if len(made) > 0 {
		m.recent = made[0]
	}
	return made
}

// findTetByQuad finds the live tetrahedron spanning exactly the four given
// vertices, searching the star of the first one.
func (m *Mesh) findTetByQuad(q [4]int) (TetFace, bool) {
	want := map[int]bool{q[0]: true, q[1]: true, q[2]: true, q[3]: true}
	var found TetFace
	ok := false
	m.tetsAround(q[0], func(ti int) bool {
		c := m.tets.at(ti).corner
		if want[c[0]] && want[c[1]] && want[c[2]] && want[c[3]] {
			found = TetFace{Tet: ti}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// tetsAround visits the star of p: every live tetrahedron having p as a
// corner, reachable from p's location seed.
func (m *Mesh) tetsAround(p int, visit func(int) bool) {
	seed := m.point2tet(p)
	if seed == outerTet || m.tets.isDead(seed) || !m.tetHasVertex(TetFace{Tet: seed}, p) {
		// Stale seed: fall back to a full sweep.
		m.eachTet(func(t TetFace) bool {
			if m.tetHasVertex(t, p) {
				return visit(t.Tet)
			}
			return true
		})
		return
	}
	seen := map[int]bool{seed: true}
	stack := []int{seed}
	for len(stack) > 0 {
		ti := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(ti) {
			return
		}
		rec := m.tets.at(ti)
		for loc := 0; loc < 4; loc++ {
			n := rec.nbr[loc].Tet
			if n == outerTet || seen[n] || m.tets.isDead(n) {
				continue
			}
			if !m.tetHasVertex(TetFace{Tet: n}, p) {
				continue
			}
			seen[n] = true
			stack = append(stack, n)
		}
	}
}

// categorizeFace classifies the face for the flip engine using the five or
// six vertices around it. t must be an interior face (sym exists).
func (m *Mesh) categorizeFace(t TetFace) (FlipType, TetFace) {
	t = adjustEdgeRing(t, ccw)
	if m.checkSubfaces && m.tspivot(t).Shell != vacuousShell {
		return ForbiddenFace, t
	}
	a, b, c := m.org(t), m.dest(t), m.apex(t)
	d := m.oppo(t)
	tb := m.sym(t)
	e := m.oppo(tb)

	ori := [3]predicates.Sign{}
	edges := [3][2]int{{a, b}, {b, c}, {c, a}}
	for i, ed := range edges {
		ori[i] = predicates.Orient3D(m.pt(ed[0]), m.pt(ed[1]), m.pt(d), m.pt(e))
	}

	pos, zero := -1, -1
	npos, nzero := 0, 0
	for i, s := range ori {
		switch s {
		case predicates.Positive:
			pos = i
			npos++
		case predicates.Zero:
			zero = i
			nzero++
		}
	}

	switch {
	case npos == 0 && nzero == 0:
		return T23, t
	case npos == 1 && nzero == 0:
		// Edge `pos` reflexes; only removable if exactly three tetrahedra
		// share it.
		et := m.edgeHandle(t, pos)
		if m.checkSubfaces && m.tsspivot(et).Shell != vacuousShell {
			return ForbiddenEdge, et
		}
		if third, ok := m.thirdTetOnEdge(t, pos, d, e); ok && third {
			return T32, et
		}
		return Unflippable, et
	case nzero == 1 && npos == 0:
		// Four of the points are coplanar across edge `zero`.
		et := m.edgeHandle(t, zero)
		if m.checkSubfaces && m.tsspivot(et).Shell != vacuousShell {
			return ForbiddenEdge, et
		}
		if third, ok := m.thirdTetOnEdge(t, zero, d, e); ok && third {
			return T44, et
		}
		if !m.symExists(esym(et)) || m.hullEdge(et) {
			return T22, et
		}
		return Unflippable, et
	default:
		return NonConvex, t
	}
}

// edgeHandle returns t adjusted so its oriented edge is face edge i
// (0: org->dest, 1: dest->apex, 2: apex->org).
func (m *Mesh) edgeHandle(t TetFace, i int) TetFace {
	switch i {
	case 1:
		return enext(t)
	case 2:
		return enext2(t)
	}
	return t
}

// thirdTetOnEdge reports whether the tetrahedra behind faces (x,y,d) and
// (x,y,e) are one and the same, i.e. whether edge i of t's face is shared
// by exactly three tetrahedra together with t's two.
func (m *Mesh) thirdTetOnEdge(t TetFace, i int, d, e int) (bool, bool) {
	et := m.edgeHandle(t, i)
	x, y := m.org(et), m.dest(et)
	ha := TetFace{Tet: t.Tet}
	if !m.findFace(&ha, x, y, d) {
		return false, false
	}
	tb := m.sym(t)
	hb := TetFace{Tet: tb.Tet}
	if !m.findFace(&hb, x, y, e) {
		return false, false
	}
	na, nb := m.sym(ha), m.sym(hb)
	if na.Tet == outerTet || nb.Tet == outerTet {
		return false, true
	}
	return na.Tet == nb.Tet, true
}

// hullEdge reports whether the face ring of t's edge is open at the hull.
func (m *Mesh) hullEdge(t TetFace) bool {
	spin := t
	for i := 0; i < 64; i++ {
		next, ok := m.fnext(spin)
		if !ok {
			return true
		}
		spin = next
		if spin.Tet == t.Tet && spin.Loc == t.Loc {
			return false
		}
	}
	return false
}

// flip23 replaces the two tetrahedra sharing t's face with three sharing
// the edge between their opposite vertices.
func (m *Mesh) flip23(t TetFace, fq *flipQueue) {
	t = adjustEdgeRing(t, ccw)
	a, b, c := m.org(t), m.dest(t), m.apex(t)
	d := m.oppo(t)
	tb := m.sym(t)
	e := m.oppo(tb)

	before := [][4]int{m.tet(t).corner, m.tet(tb).corner}
	after := [][4]int{
		m.orientedQuad(a, b, e, d),
		m.orientedQuad(b, c, e, d),
		m.orientedQuad(c, a, e, d),
	}
	made := m.replaceTets([]TetFace{{Tet: t.Tet}, {Tet: tb.Tet}}, after)
	m.logFlip(T23, before, after, noPoint)
	m.flip23s++
	m.enqueueLink(made, []int{d, e}, fq)
}

// flip32 removes the edge of t (shared by exactly three tetrahedra),
// replacing them with two sharing the link triangle.
func (m *Mesh) flip32(t TetFace, fq *flipQueue) {
	a, b := m.org(t), m.dest(t)
	ring, open := m.edgeRing(t)
	if open || len(ring) != 3 {
		return
	}
	apexes := m.ringApexes(ring, a, b)
	c, d, e := apexes[0], apexes[1], apexes[2]

	before := make([][4]int, len(ring))
	for i, rt := range ring {
		before[i] = m.tet(rt).corner
	}
	after := [][4]int{
		m.orientedQuad(c, d, e, a),
		m.orientedQuad(d, c, e, b),
	}
	made := m.replaceTets(ring, after)
	m.logFlip(T32, before, after, noPoint)
	m.flip32s++
	m.enqueueLink(made, []int{a, b}, fq)
}

// flip22 swaps the diagonal of the coplanar hull quadrilateral spanned by
// t's edge and the two opposite vertices.
func (m *Mesh) flip22(t TetFace, fq *flipQueue) {
	t = adjustEdgeRing(t, ccw)
	a, b := m.org(t), m.dest(t)
	c := m.apex(t)
	d := m.oppo(t)
	tb := m.sym(t)
	e := m.oppo(tb)
	// Here a, b, d, e are coplanar; the flip replaces diagonal ab with de.
	before := [][4]int{m.tet(t).corner, m.tet(tb).corner}
	after := [][4]int{
		m.orientedQuad(a, d, e, c),
		m.orientedQuad(e, d, b, c),
	}
	made := m.replaceTets([]TetFace{{Tet: t.Tet}, {Tet: tb.Tet}}, after)
	m.logFlip(T22, before, after, noPoint)
	m.flip22s++
	m.enqueueLink(made, []int{d, e}, fq)
}

// flip44 rotates the four tetrahedra around t's edge (two coplanar pairs)
// into four around the crossing diagonal.
func (m *Mesh) flip44(t TetFace, fq *flipQueue) {
	a, b := m.org(t), m.dest(t)
	ring, open := m.edgeRing(t)
	if open || len(ring) != 4 {
		return
	}
	ap := m.ringApexes(ring, a, b)
	// The link cycle is ap[0..3]; the new edge joins the opposite pair that
	// is coplanar with a and b.
	var p, q, r, s int
	if predicates.Orient3D(m.pt(a), m.pt(b), m.pt(ap[0]), m.pt(ap[2])) == predicates.Zero {
		p, q, r, s = ap[0], ap[1], ap[2], ap[3]
	} else {
		p, q, r, s = ap[1], ap[2], ap[3], ap[0]
	}
	before := make([][4]int, len(ring))
	for i, rt := range ring {
		before[i] = m.tet(rt).corner
	}
	after := [][4]int{
		m.orientedQuad(p, r, q, a),
		m.orientedQuad(r, p, q, b),
		m.orientedQuad(r, p, s, a),
		m.orientedQuad(p, r, s, b),
	}
	made := m.replaceTets(ring, after)
	m.logFlip(T44, before, after, noPoint)
	m.flip44s++
	m.enqueueLink(made, []int{p, r}, fq)
}

// edgeRing collects the tetrahedra sharing t's oriented edge, in ring
// order, reporting whether the ring is open at the hull.
func (m *Mesh) edgeRing(t TetFace) ([]TetFace, bool) {
	var ring []TetFace
	spin := t
	seen := map[int]bool{}
	for i := 0; i < 1024; i++ {
		if !seen[spin.Tet] {
			seen[spin.Tet] = true
			ring = append(ring, TetFace{Tet: spin.Tet})
		}
		next, ok := m.fnext(spin)
		if !ok {
			return ring, true
		}
		spin = next
		if spin.Tet == t.Tet && spin.Loc == t.Loc && spin.Ver == t.Ver {
			return ring, false
		}
	}
	panic("mesh: edgeRing: face ring does not close")
}

// ringApexes lists, per ring tetrahedron, its two corners besides a and b;
// consecutive tetrahedra share one, so the result is the link cycle.
func (m *Mesh) ringApexes(ring []TetFace, a, b int) []int {
	var apexes []int
	have := map[int]bool{a: true, b: true}
	for _, rt := range ring {
		for _, c := range m.tet(rt).corner {
			if !have[c] {
				have[c] = true
				apexes = append(apexes, c)
			}
		}
	}
	return apexes
}

// enqueueLink pushes every face of the made tetrahedra not incident to the
// interior edge vertices in skip; those are the faces newly exposed to the
// rest of the mesh.
func (m *Mesh) enqueueLink(made []TetFace, skip []int, fq *flipQueue) {
	interior := map[int]bool{}
	for _, p := range skip {
		interior[p] = true
	}
	for _, nt := range made {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: nt.Tet, Loc: loc}
			if interior[m.org(h)] && interior[m.dest(h)] ||
				interior[m.dest(h)] && interior[m.apex(h)] ||
				interior[m.apex(h)] && interior[m.org(h)] {
				continue
			}
			if m.symExists(h) {
				m.enqueueFlipFace(h, fq)
			}
		}
	}
}

func (m *Mesh) logFlip(typ FlipType, before, after [][4]int, newPoint int) {
	m.flipLog = append(m.flipLog, flipRecord{typ: typ, before: before, after: after, newPoint: newPoint})
}

// flipMark returns a position in the flip log; undoFlips(mark) rewinds to it.
func (m *Mesh) flipMark() int { return len(m.flipLog) }

// undoFlips replays the log in reverse down to mark, applying the inverse
// rewrite of every flip and split, and truncates the log.
func (m *Mesh) undoFlips(mark int) {
	for i := len(m.flipLog) - 1; i >= mark; i-- {
		rec := m.flipLog[i]
		old := make([]TetFace, 0, len(rec.after))
		for _, q := range rec.after {
			t, ok := m.findTetByQuad(q)
			if !ok {
				panic(fmt.Sprintf("mesh: undoFlips: tetrahedron %v vanished", q))
			}
			old = append(old, t)
		}
		m.replaceTets(old, rec.before)
		if rec.newPoint != noPoint {
			m.killPoint(rec.newPoint)
		}
	}
	m.flipLog = m.flipLog[:mark]
}

// flip drains the queue, restoring local Delaunay-hood around the recently
// modified region. It returns the number of flips performed.
func (m *Mesh) flip(fq *flipQueue) int {
	count := 0
	for {
		qf, ok := fq.pop()
		if !ok {
			return count
		}
		t, ok := m.revalidate(qf)
		if !ok {
			continue
		}
		t = adjustEdgeRing(t, ccw)
		if !m.symExists(t) {
			continue
		}
		tb := m.sym(t)
		e := m.oppo(tb)
		if e == noPoint {
			continue
		}
		c := m.tet(t).corner
		if predicates.InSphereSym(
			m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]), m.pt(e),
			c[0], c[1], c[2], c[3], e,
		) != predicates.Positive {
			continue // locally Delaunay
		}
		typ, ft := m.categorizeFace(t)
		switch typ {
		case T23:
			m.flip23(ft, fq)
			count++
		case T32:
			m.flip32(ft, fq)
			count++
		case T22:
			m.flip22(ft, fq)
			count++
		case T44:
			m.flip44(ft, fq)
			count++
		default:
			// Unflippable or protected: another queued face may cure it.
		}
	}
}
