// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"github.com/2dChan/tetra/predicates"
)

// insertSite inserts point p into the tetrahedralization. If searchtet
// addresses a live tetrahedron the location walk starts there, otherwise a
// fresh walk is seeded. With approx set the walk result is snapped with the
// relative tolerance. The caller runs the flip queue afterwards; everything
// the insertion rewrote is logged, so undoFlips from a prior mark removes
// the point again.
//
// On OutsidePoint the point was not inserted and searchtet holds a hull
// face p lies beyond; insertHullSite finishes the job for convex position.
func (m *Mesh) insertSite(p int, searchtet *TetFace, approx bool, fq *flipQueue) InsertResult {
	var res LocateResult
	if searchtet.Tet == outerTet || m.tets.isDead(searchtet.Tet) {
		res = m.locate(m.pt(p), searchtet)
	} else {
		res = m.preciseLocate(m.pt(p), searchtet)
	}
	if approx && res != Outside {
		res = m.adjustLocate(m.pt(p), searchtet, res, m.cfg.Epsilon)
	}

	switch res {
	case OnVertex:
		m.setPoint2ppt(p, m.org(*searchtet))
		m.setPoint2tet(p, searchtet.Tet)
		return DuplicatePoint
	case Outside:
		return OutsidePoint
	case InTetrahedron:
		m.splitTetrahedron(p, *searchtet, fq)
		return SuccessInTet
	case OnFace:
		m.splitTetFace(p, *searchtet, fq)
		return SuccessOnFace
	default: // OnEdge
		m.splitTetEdge(p, *searchtet, fq)
		return SuccessOnEdge
	}
}

// splitTetrahedron replaces t's tetrahedron with the four joining p to its
// faces.
func (m *Mesh) splitTetrahedron(p int, t TetFace, fq *flipQueue) {
	before := [][4]int{m.tet(t).corner}
	var after [][4]int
	for loc := int8(0); loc < 4; loc++ {
		h := TetFace{Tet: t.Tet, Loc: loc}
		after = append(after, m.orientedQuad(m.org(h), m.dest(h), m.apex(h), p))
	}
	made := m.replaceTets([]TetFace{{Tet: t.Tet}}, after)
	m.logFlip(S14, before, after, p)
	m.enqueueOpposite(made, p, fq)
}

// splitTetFace replaces the one or two tetrahedra sharing t's face with
// three or six joining p to their outer faces. A subface on the split face
// is split along with it.
func (m *Mesh) splitTetFace(p int, t TetFace, fq *flipQueue) {
	t = adjustEdgeRing(t, ccw)
	a, b, c := m.org(t), m.dest(t), m.apex(t)
	d := m.oppo(t)
	sh := m.tspivot(t)

	old := []TetFace{{Tet: t.Tet}}
	before := [][4]int{m.tet(t).corner}
	after := [][4]int{
		m.orientedQuad(a, b, p, d),
		m.orientedQuad(b, c, p, d),
		m.orientedQuad(c, a, p, d),
	}
	if m.symExists(t) {
		tb := m.sym(t)
		e := m.oppo(tb)
		old = append(old, TetFace{Tet: tb.Tet})
		before = append(before, m.tet(tb).corner)
		after = append(after,
			m.orientedQuad(b, a, p, e),
			m.orientedQuad(c, b, p, e),
			m.orientedQuad(a, c, p, e),
		)
	}
	made := m.replaceTets(old, after)
	m.logFlip(S26, before, after, p)
	if sh.Shell != vacuousShell {
		m.splitSubfacePoint(sh, p)
	}
	m.enqueueOpposite(made, p, fq)
}

// splitTetEdge replaces every tetrahedron around t's edge with two, joining
// p to its halves. Subfaces and a subsegment riding the edge split too.
func (m *Mesh) splitTetEdge(p int, t TetFace, fq *flipQueue) {
	a, b := m.org(t), m.dest(t)
	star := m.fullEdgeStar(t)

	// Shell elements on the edge, captured before the rewrite.
	var edgeSubs []ShellEdge
	seen := map[int]bool{}
	for _, rt := range star {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: rt.Tet, Loc: loc}
			s := m.tspivot(h)
			if s.Shell == vacuousShell || seen[s.Shell] || !m.faceHasEdge(s, a, b) {
				continue
			}
			seen[s.Shell] = true
			edgeSubs = append(edgeSubs, s)
		}
	}
	var seg ShellEdge
	if len(edgeSubs) > 0 {
		se := edgeSubs[0]
		m.findShellEdge(&se, a, b)
		seg = m.sspivot(se)
	}

	before := make([][4]int, len(star))
	var after [][4]int
	for i, rt := range star {
		corners := m.tet(rt).corner
		before[i] = corners
		var u, v int
		k := 0
		for _, cv := range corners {
			if cv != a && cv != b {
				if k == 0 {
					u = cv
				} else {
					v = cv
				}
				k++
			}
		}
		after = append(after,
			m.orientedQuad(u, v, a, p),
			m.orientedQuad(u, v, p, b),
		)
	}
	made := m.replaceTets(star, after)
	m.logFlip(SEdge, before, after, p)

	var segHalves [2]ShellEdge
	if seg.Shell != vacuousShell {
		segHalves = m.splitSubsegment(seg, p)
	}
	var halves []ShellEdge
	for _, s := range edgeSubs {
		halves = append(halves, m.splitSubfaceEdge(s, a, b, p)...)
	}
	if seg.Shell != vacuousShell {
		m.ringSubsegment(segHalves[0], halves)
		m.ringSubsegment(segHalves[1], halves)
	} else if len(halves) == 4 {
		// Two coplanar subfaces met at a plain facet-interior edge; their
		// halves bond pairwise across it.
		m.pairBondAtEdge(halves, a, p)
		m.pairBondAtEdge(halves, p, b)
	}
	for _, h := range halves {
		m.bondSubfaceToTets(h)
	}
	m.enqueueOpposite(made, p, fq)
}

// fullEdgeStar collects every tetrahedron sharing t's edge, both ways when
// the ring is open at the hull.
func (m *Mesh) fullEdgeStar(t TetFace) []TetFace {
	ring, open := m.edgeRing(t)
	if !open {
		return ring
	}
	back, _ := m.edgeRing(esym(t))
	have := map[int]bool{}
	for _, rt := range ring {
		have[rt.Tet] = true
	}
	for _, rt := range back {
		if !have[rt.Tet] {
			have[rt.Tet] = true
			ring = append(ring, rt)
		}
	}
	return ring
}

// enqueueOpposite pushes, for every made tetrahedron, the face opposite p:
// the boundary of the star just carved out.
func (m *Mesh) enqueueOpposite(made []TetFace, p int, fq *flipQueue) {
	for _, nt := range made {
		rec := m.tet(nt)
		for loc := int8(0); loc < 4; loc++ {
			if rec.corner[loc2oppo[loc]] != p {
				continue
			}
			h := TetFace{Tet: nt.Tet, Loc: loc}
			if m.symExists(h) {
				m.enqueueFlipFace(h, fq)
			}
			break
		}
	}
}

// replaceEdgeAdjacency substitutes newf for oldf in whatever adjacency
// structure oldf's current edge participates in: a mutual bond, a face ring
// around a subsegment, or nothing. Both handles must sit on the same edge.
func (m *Mesh) replaceEdgeAdjacency(oldf, newf ShellEdge) {
	seg := m.sspivot(oldf)
	if seg.Shell != vacuousShell {
		m.ssbond(newf, seg)
		// Relink the ring: the predecessor of oldf now points at newf, and
		// newf inherits oldf's successor.
		pred := oldf
		for i := 0; i < 1024; i++ {
			next := m.spivot(pred)
			if next.Shell == oldf.Shell {
				break
			}
			if next.Shell == vacuousShell {
				// Singleton ring.
				m.sbond1(newf, newf)
				return
			}
			m.findShellEdge(&next, m.sorg(oldf), m.sdest(oldf))
			pred = next
		}
		m.sbond1(pred, newf)
		m.sbond1(newf, m.spivot(oldf))
		return
	}
	o := m.spivot(oldf)
	if o.Shell == vacuousShell {
		return
	}
	m.sbond(newf, o)
}

// splitSubfacePoint replaces subface s with the three triangles joining p
// to its edges and rebonds them to the surrounding shell and tetrahedra.
func (m *Mesh) splitSubfacePoint(s ShellEdge, p int) []ShellEdge {
	made := m.splitSubfaceShellOnly(s, p)
	for _, n := range made {
		m.bondSubfaceToTets(n)
	}
	return made
}

// splitSubfaceEdge replaces subface s, which has edge a-b, with the two
// triangles its third vertex makes with a-p and p-b. Tetrahedron bonds are
// left to the caller, the tetrahedra having just been rewritten.
func (m *Mesh) splitSubfaceEdge(s ShellEdge, a, b, p int) []ShellEdge {
	rec := m.shell(s)
	var w int
	for _, v := range rec.vert {
		if v != a && v != b {
			w = v
		}
	}
	marker := rec.marker

	f1 := m.makeShellFace(subface)
	m.shell(f1).vert = [3]int{a, p, w}
	m.shell(f1).marker = marker
	f2 := m.makeShellFace(subface)
	m.shell(f2).vert = [3]int{p, b, w}
	m.shell(f2).marker = marker

	// Outer edges a-w and b-w inherit s's adjacency.
	olds := s
	m.findShellEdge(&olds, a, w)
	news := f1
	m.findShellEdge(&news, a, w)
	m.replaceEdgeAdjacency(olds, news)
	olds = s
	m.findShellEdge(&olds, b, w)
	news = f2
	m.findShellEdge(&news, b, w)
	m.replaceEdgeAdjacency(olds, news)

	// Interior edge p-w.
	i1 := f1
	m.findShellEdge(&i1, p, w)
	i2 := f2
	m.findShellEdge(&i2, p, w)
	m.sbond(i1, i2)

	m.killShellFace(s)
	return []ShellEdge{f1, f2}
}

// splitSubsegment replaces subsegment seg with its two halves at p,
// preserving the collinear neighbor links at the far endpoints.
func (m *Mesh) splitSubsegment(seg ShellEdge, p int) [2]ShellEdge {
	rec := m.shell(seg)
	x, y := rec.vert[0], rec.vert[1]
	marker := rec.marker
	kind := rec.segKind
	nx, ny := rec.adj[0], rec.adj[1]

	s1 := m.makeShellFace(subseg)
	r1 := m.shell(s1)
	r1.vert = [3]int{x, p, noPoint}
	r1.marker = marker
	r1.segKind = kind
	s2 := m.makeShellFace(subseg)
	r2 := m.shell(s2)
	r2.vert = [3]int{p, y, noPoint}
	r2.marker = marker
	r2.segKind = kind

	r1.adj[0] = nx
	r1.adj[1] = ShellEdge{Shell: s2.Shell}
	r2.adj[0] = ShellEdge{Shell: s1.Shell}
	r2.adj[1] = ny
	if nx.Shell != vacuousShell {
		m.relinkSegNeighbor(nx, seg.Shell, s1)
	}
	if ny.Shell != vacuousShell {
		m.relinkSegNeighbor(ny, seg.Shell, s2)
	}
	m.killShellFace(seg)
	return [2]ShellEdge{s1, s2}
}

func (m *Mesh) relinkSegNeighbor(n ShellEdge, oldShell int, repl ShellEdge) {
	r := m.shell(n)
	for i := 0; i < 2; i++ {
		if r.adj[i].Shell == oldShell {
			r.adj[i] = ShellEdge{Shell: repl.Shell}
		}
	}
}

// pairBondAtEdge bonds the two subfaces among candidates that contain edge
// e1-e2.
func (m *Mesh) pairBondAtEdge(candidates []ShellEdge, e1, e2 int) {
	var pair []ShellEdge
	for _, s := range candidates {
		if m.faceHasEdge(s, e1, e2) {
			e := s
			m.findShellEdge(&e, e1, e2)
			pair = append(pair, e)
		}
	}
	if len(pair) == 2 {
		m.sbond(pair[0], pair[1])
	}
}

// ringSubsegment bonds the given subfaces that contain seg's edge into a
// face ring around it.
func (m *Mesh) ringSubsegment(seg ShellEdge, candidates []ShellEdge) {
	x, y := m.sorg(seg), m.sdest(seg)
	var ring []ShellEdge
	for _, s := range candidates {
		if m.faceHasEdge(s, x, y) {
			e := s
			m.findShellEdge(&e, x, y)
			ring = append(ring, e)
		}
	}
	for i, s := range ring {
		m.ssbond(s, seg)
		m.sbond1(s, ring[(i+1)%len(ring)])
	}
}

// bondSubfaceToTets finds the one or two live tetrahedra whose face matches
// s and bonds them to it. A subface with no matching tetrahedron face at
// all is a closure defect and panics.
func (m *Mesh) bondSubfaceToTets(s ShellEdge) {
	rec := m.shell(s)
	x, y, z := rec.vert[0], rec.vert[1], rec.vert[2]
	var h TetFace
	found := false
	m.tetsAround(x, func(ti int) bool {
		c := TetFace{Tet: ti}
		if m.findFace(&c, x, y, z) {
			h = c
			found = true
			return false
		}
		return true
	})
	if !found {
		panic("mesh: bondSubfaceToTets: subface face missing from the mesh")
	}
	se := s
	m.findShellEdge(&se, m.org(h), m.dest(h))
	se = adjustShellEdgeRing(se, ccw)
	m.tsbond(h, se)
	if m.symExists(h) {
		m.tsbond(m.sym(h), sesym(se))
	} else {
		m.shell(se).tet[1] = TetFace{}
	}
}

// insertHullSite connects p, which lies outside the hull beyond face t, to
// every hull face visible from it. Visibility uses the symbolically
// perturbed orientation, so coplanar hull faces resolve deterministically.
func (m *Mesh) insertHullSite(p int, t TetFace, fq *flipQueue) {
	visible := func(h TetFace) bool {
		return predicates.Orient3DSym(
			m.pt(m.org(h)), m.pt(m.dest(h)), m.pt(m.apex(h)), m.pt(p),
			m.org(h), m.dest(h), m.apex(h), p,
		) == predicates.Negative
	}
	start := TetFace{Tet: t.Tet, Loc: t.Loc}
	if !visible(start) {
		panic("mesh: insertHullSite: start face not visible")
	}

	var faces []TetFace
	seen := map[[2]int]bool{}
	queue := []TetFace{start}
	seen[[2]int{start.Tet, int(start.Loc)}] = true
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		faces = append(faces, h)
		for _, ver := range []int8{0, 2, 4} {
			eh := TetFace{Tet: h.Tet, Loc: h.Loc, Ver: ver}
			nh := m.hullFaceAcross(eh)
			key := [2]int{nh.Tet, int(nh.Loc)}
			if seen[key] || !visible(nh) {
				continue
			}
			seen[key] = true
			queue = append(queue, nh)
		}
	}

	// One new tetrahedron per visible face, glued base-to-base.
	var after [][4]int
	made := make([]TetFace, len(faces))
	for i, h := range faces {
		x, y, z := m.org(h), m.dest(h), m.apex(h)
		q := m.orientedQuad(x, y, z, p)
		after = append(after, q)
		nt := m.makeTetrahedron()
		m.tet(nt).corner = q
		made[i] = nt
		for _, cv := range q {
			m.setPoint2tet(cv, nt.Tet)
		}
		base := nt
		if !m.findFace(&base, x, y, z) {
			panic("mesh: insertHullSite: base face lost")
		}
		m.bond(base, h)
		if sh := m.tspivot(h); sh.Shell != vacuousShell {
			// A hull subface now separates the old mesh from the new tet;
			// it takes the new tet on its formerly open side.
			se := sh
			m.findShellEdge(&se, x, y)
			se = adjustShellEdgeRing(se, ccw)
			if p0 := m.stpivot(se); p0.Tet == outerTet || m.tets.isDead(p0.Tet) {
				m.tsbond(base, se)
			} else {
				m.tsbond(base, sesym(se))
			}
		}
	}
	// Side faces bond pairwise; unmatched ones are the new hull.
	pending := map[faceKey]TetFace{}
	for _, nt := range made {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: nt.Tet, Loc: loc}
			if m.symExists(h) {
				continue
			}
			k := keyOf(m.org(h), m.dest(h), m.apex(h))
			if other, ok := pending[k]; ok {
				m.bond(h, other)
				delete(pending, k)
				continue
			}
			pending[k] = h
		}
	}
	m.logFlip(SHull, nil, after, p)
	m.recent = made[0]
	for _, h := range faces {
		m.enqueueFlipFace(h, fq)
	}
}

// hullFaceAcross walks the face ring of eh's edge to the hull face on the
// other side.
func (m *Mesh) hullFaceAcross(eh TetFace) TetFace {
	spin := eh
	for i := 0; i < 4096; i++ {
		next, ok := m.fnext(spin)
		if !ok {
			return TetFace{Tet: spin.Tet, Loc: spin.Loc}
		}
		spin = next
	}
	panic("mesh: hullFaceAcross: edge ring does not reach the hull")
}

// undoSite rewinds the rewrite log to mark, removing point p and every
// topological change made since.
func (m *Mesh) undoSite(mark int, p int) {
	m.undoFlips(mark)
	if !m.points.isDead(p) {
		m.killPoint(p)
	}
}

// countHullFaces recounts the convex hull faces.
func (m *Mesh) countHullFaces() int {
	n := 0
	m.eachTet(func(t TetFace) bool {
		for loc := int8(0); loc < 4; loc++ {
			if !m.symExists(TetFace{Tet: t.Tet, Loc: loc}) {
				n++
			}
		}
		return true
	})
	return n
}
