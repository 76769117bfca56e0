// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

// ErrBadFacet is returned when a facet has fewer than two usable vertices.
var ErrBadFacet = errors.New("mesh: facet has no usable polygon")

// FacetPoly is one input facet: closed polygons of point ids, the first
// being the outer boundary, plus hole seed points inside the facet plane.
type FacetPoly struct {
	Polygons [][]int
	Holes    []r3.Vector
	Marker   int
}

// MeshSurface triangulates every input facet into subfaces and subsegments,
// then unifies the subsegments shared between facets into face rings. This
// builds the surface mesh the constrained Delaunay phase recovers inside
// the volume mesh.
func (m *Mesh) MeshSurface(facets []FacetPoly) error {
	m.liftPoints = make([]r3.Vector, len(facets))
	for fi := range facets {
		if err := m.triangulateFacet(fi, &facets[fi]); err != nil {
			if errors.Is(err, ErrBadFacet) {
				m.log.Warn("skipping degenerate facet", "facet", fi)
				continue
			}
			return fmt.Errorf("facet %d: %w", fi, err)
		}
	}
	m.unifySegments()
	if !m.cfg.NoMerge {
		m.mergeFacets()
	}
	m.inSegments = m.countShells(subseg)
	m.checkSubfaces = true
	if m.Verbose() {
		m.log.Info("surface mesh done",
			"facets", len(facets),
			"subfaces", m.countShells(subface),
			"subsegments", m.inSegments)
	}
	return nil
}

// facetVertices lists the distinct vertices of a facet in first-use order.
func facetVertices(f *FacetPoly) []int {
	var ids []int
	seen := map[int]bool{}
	for _, poly := range f.Polygons {
		for _, v := range poly {
			if !seen[v] {
				seen[v] = true
				ids = append(ids, v)
			}
		}
	}
	return ids
}

// liftFor computes a point off the facet plane, on a fixed side, used to
// orient every two-dimensional test inside the facet. Newell's rule makes
// the normal robust for nonconvex polygons.
func (m *Mesh) liftFor(f *FacetPoly, ids []int) (r3.Vector, bool) {
	var nrm, centroid r3.Vector
	for _, poly := range f.Polygons {
		for i, v := range poly {
			w := poly[(i+1)%len(poly)]
			pv, pw := m.pt(v), m.pt(w)
			nrm.X += (pv.Y - pw.Y) * (pv.Z + pw.Z)
			nrm.Y += (pv.Z - pw.Z) * (pv.X + pw.X)
			nrm.Z += (pv.X - pw.X) * (pv.Y + pw.Y)
		}
	}
	for _, v := range ids {
		centroid = centroid.Add(m.pt(v))
	}
	centroid = centroid.Mul(1 / float64(len(ids)))
	ln := nrm.Norm()
	if ln == 0 {
		return r3.Vector{}, false
	}
	return centroid.Add(nrm.Mul(m.longest / ln)), true
}

// orient2d is the in-plane counterclockwise test: positive when apex c lies
// left of a->b as seen from the lift point.
func (m *Mesh) orient2d(lift r3.Vector, a, b, c int) predicates.Sign {
	return -predicates.Orient3D(m.pt(a), m.pt(b), m.pt(c), lift)
}

// inCircle2d reports whether d lies inside the circumcircle of the
// counterclockwise triangle abc, positive meaning inside.
func (m *Mesh) inCircle2d(lift r3.Vector, a, b, c, d int) predicates.Sign {
	return predicates.InSphere(m.pt(b), m.pt(a), m.pt(c), lift, m.pt(d))
}

// triangulateFacet builds the constrained Delaunay triangulation of one
// facet: incremental Delaunay of its vertices, then segment insertion for
// every polygon edge, then hole carving. A facet whose vertices are all
// collinear degrades to bare subsegments.
func (m *Mesh) triangulateFacet(fi int, f *FacetPoly) error {
	ids := facetVertices(f)
	if len(ids) < 2 {
		return ErrBadFacet
	}
	lift, ok := m.liftFor(f, ids)
	if !ok {
		// Collinear: emit each polygon edge as a standalone subsegment.
		for _, poly := range f.Polygons {
			m.polygonSubsegs(poly, f.Marker, len(poly) > 2)
		}
		for _, v := range ids {
			m.classifyFacetVertex(v)
		}
		return nil
	}
	m.liftPoints[fi] = lift

	var subs []int
	if err := m.delaunaySub(lift, ids, &subs); err != nil {
		return err
	}
	for _, poly := range f.Polygons {
		n := len(poly)
		for i := 0; i < n; i++ {
			u, v := poly[i], poly[(i+1)%n]
			if n == 2 && i == 1 {
				break // an open two-vertex polygon has one edge
			}
			if u == v {
				continue
			}
			if err := m.insertSegmentSub(lift, u, v, f.Marker, &subs); err != nil {
				return err
			}
		}
	}
	m.carveHolesSub(lift, f.Holes, &subs)
	for _, v := range ids {
		m.classifyFacetVertex(v)
	}
	return nil
}

func (m *Mesh) classifyFacetVertex(v int) {
	if m.pointKind(v) == InputVertex {
		m.setPointKind(v, FacetVertex)
	}
}

// polygonSubsegs creates bare subsegments for a polygon that spans no area.
func (m *Mesh) polygonSubsegs(poly []int, marker int, closed bool) {
	n := len(poly)
	for i := 0; i < n; i++ {
		if i == n-1 && !closed {
			break
		}
		u, v := poly[i], poly[(i+1)%n]
		if u == v {
			continue
		}
		s := m.makeShellFace(subseg)
		r := m.shell(s)
		r.vert = [3]int{u, v, noPoint}
		r.marker = marker
	}
}

// delaunaySub incrementally triangulates the given coplanar vertices.
func (m *Mesh) delaunaySub(lift r3.Vector, ids []int, subs *[]int) error {
	// First counterclockwise triangle from three non-collinear vertices.
	a, b := ids[0], noPoint
	for _, v := range ids[1:] {
		if m.pt(v) != m.pt(a) {
			b = v
			break
		}
	}
	c := noPoint
	for _, v := range ids[1:] {
		if v == b {
			continue
		}
		if m.orient2d(lift, a, b, v) != predicates.Zero {
			c = v
			break
		}
	}
	if b == noPoint || c == noPoint {
		return ErrBadFacet
	}
	if m.orient2d(lift, a, b, c) == predicates.Negative {
		a, b = b, a
	}
	first := m.makeShellFace(subface)
	m.shell(first).vert = [3]int{a, b, c}
	*subs = append(*subs, first.Shell)

	used := map[int]bool{a: true, b: true, c: true}
	var fq2 []ShellEdge
	for _, v := range ids {
		if used[v] {
			continue
		}
		res, at := m.locateSub(lift, v, ShellEdge{Shell: first.Shell}, *subs)
		switch res {
		case OnVertex:
			continue
		case InTetrahedron: // inside the located triangle
			m.splitSubTriangle(lift, at, v, subs, &fq2)
		case OnEdge:
			m.splitSubEdge2d(lift, at, v, subs, &fq2)
		default: // Outside
			m.insertHullSub(lift, v, subs, &fq2)
		}
		m.lawsonFlip(lift, &fq2, subs)
	}
	return nil
}

// locateSub walks the facet triangulation toward vertex p. It returns
// InTetrahedron for strict containment in the triangle at the returned
// handle, OnEdge or OnVertex positioned at the feature, or Outside when p
// is beyond the triangulation's boundary.
func (m *Mesh) locateSub(lift r3.Vector, p int, start ShellEdge, subs []int) (LocateResult, ShellEdge) {
	cur := start
	if m.isDeadShell(cur) {
		cur = m.firstLiveSub(subs)
	}
	for step := 0; step < 4*len(subs)+64; step++ {
		rec := m.shell(cur)
		var sign [3]predicates.Sign
		neg := -1
		for i, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: cur.Shell, Ver: ver}
			sign[i] = m.orient2d(lift, m.sorg(e), m.sdest(e), p)
			if sign[i] == predicates.Negative {
				neg = i
			}
		}
		if neg >= 0 {
			e := ShellEdge{Shell: cur.Shell, Ver: []int8{0, 2, 4}[neg]}
			nb := m.spivot(e)
			if nb.Shell == vacuousShell {
				return Outside, e
			}
			m.findShellEdge(&nb, m.sorg(e), m.sdest(e))
			cur = ShellEdge{Shell: nb.Shell}
			continue
		}
		zeros := 0
		zi := -1
		for i, s := range sign {
			if s == predicates.Zero {
				zeros++
				zi = i
			}
		}
		switch zeros {
		case 0:
			return InTetrahedron, ShellEdge{Shell: cur.Shell}
		case 1:
			e := ShellEdge{Shell: cur.Shell, Ver: []int8{0, 2, 4}[zi]}
			// On the edge's line; inside the edge iff between its endpoints.
			if m.sorg(e) == p || m.sdest(e) == p {
				break
			}
			t := lineProjectionParam(m.pt(p), m.pt(m.sorg(e)), m.pt(m.sdest(e)))
			if t > 0 && t < 1 {
				return OnEdge, e
			}
			return Outside, e
		default:
			for _, v := range rec.vert {
				if v == p || m.pt(v) == m.pt(p) {
					e := ShellEdge{Shell: cur.Shell}
					m.findShellEdge(&e, v, rec.vert[0])
					return OnVertex, e
				}
			}
			return Outside, ShellEdge{Shell: cur.Shell}
		}
		// A zero with p matching a vertex.
		for _, v := range rec.vert {
			if v == p || m.pt(v) == m.pt(p) {
				return OnVertex, ShellEdge{Shell: cur.Shell}
			}
		}
		return InTetrahedron, ShellEdge{Shell: cur.Shell}
	}
	panic("mesh: locateSub: walk does not terminate")
}

func (m *Mesh) firstLiveSub(subs []int) ShellEdge {
	for _, si := range subs {
		if !m.shells.isDead(si) {
			return ShellEdge{Shell: si}
		}
	}
	panic("mesh: firstLiveSub: facet triangulation is empty")
}

// replaceSubs is the two-dimensional cousin of replaceTets: it swaps the
// triangles in old for the counterclockwise triangles in tris, preserving
// every external edge adjacency and subsegment bond.
func (m *Mesh) replaceSubs(old []ShellEdge, tris [][3]int, subs *[]int) []ShellEdge {
	inOld := map[int]bool{}
	for _, s := range old {
		inOld[s.Shell] = true
	}
	type edgeKey [2]int
	norm := func(a, b int) edgeKey {
		if a > b {
			a, b = b, a
		}
		return edgeKey{a, b}
	}
	type extAdj struct {
		nbr ShellEdge
		seg ShellEdge
	}
	ext := map[edgeKey]extAdj{}
	for _, s := range old {
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			nb := m.spivot(e)
			if inOld[nb.Shell] && nb.Shell != vacuousShell {
				continue
			}
			ext[norm(m.sorg(e), m.sdest(e))] = extAdj{nbr: nb, seg: m.sspivot(e)}
		}
	}
	marker := m.shell(old[0]).marker
	for _, s := range old {
		m.killShellFace(s)
	}

	made := make([]ShellEdge, len(tris))
	for i, tri := range tris {
		n := m.makeShellFace(subface)
		r := m.shell(n)
		r.vert = tri
		r.marker = marker
		made[i] = n
		*subs = append(*subs, n.Shell)
	}
	pending := map[edgeKey]ShellEdge{}
	for _, n := range made {
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: n.Shell, Ver: ver}
			k := norm(m.sorg(e), m.sdest(e))
			if other, ok := pending[k]; ok {
				m.sbond(e, other)
				delete(pending, k)
				continue
			}
			pending[k] = e
		}
	}
	for k, e := range pending {
		adj, ok := ext[k]
		if !ok {
			continue
		}
		if adj.nbr.Shell != vacuousShell {
			m.sbond(e, adj.nbr)
		}
		if adj.seg.Shell != vacuousShell {
			m.ssbond(e, adj.seg)
		}
		delete(ext, k)
	}
	for _, adj := range ext {
		if adj.nbr.Shell != vacuousShell {
			m.sdissolve(adj.nbr)
		}
	}
	return made
}

func (m *Mesh) splitSubTriangle(lift r3.Vector, at ShellEdge, p int, subs *[]int, fq2 *[]ShellEdge) {
	r := m.shell(at)
	x, y, z := r.vert[0], r.vert[1], r.vert[2]
	made := m.replaceSubs([]ShellEdge{at}, [][3]int{
		{x, y, p}, {y, z, p}, {z, x, p},
	}, subs)
	m.queueStarEdges(made, p, fq2)
}

func (m *Mesh) splitSubEdge2d(lift r3.Vector, at ShellEdge, p int, subs *[]int, fq2 *[]ShellEdge) {
	x, y := m.sorg(at), m.sdest(at)
	z := m.sapex(at)
	old := []ShellEdge{at}
	tris := [][3]int{}
	// Keep every triangle counterclockwise: at is an edge of a CCW
	// triangle, so x->y has z on its left.
	tris = append(tris, [3]int{x, p, z}, [3]int{p, y, z})
	nb := m.spivot(at)
	if nb.Shell != vacuousShell {
		m.findShellEdge(&nb, x, y)
		w := m.sapex(nb)
		old = append(old, nb)
		tris = append(tris, [3]int{y, p, w}, [3]int{p, x, w})
	}
	made := m.replaceSubs(old, tris, subs)
	m.queueStarEdges(made, p, fq2)
}

// insertHullSub fans p over every boundary edge it can see.
func (m *Mesh) insertHullSub(lift r3.Vector, p int, subs *[]int, fq2 *[]ShellEdge) {
	type newTri struct {
		tri  [3]int
		base ShellEdge
	}
	var fan []newTri
	for _, si := range *subs {
		if m.shells.isDead(si) {
			continue
		}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			if m.spivot(e).Shell != vacuousShell {
				continue
			}
			a, b := m.sorg(e), m.sdest(e)
			if m.orient2d(lift, a, b, p) != predicates.Negative {
				continue
			}
			fan = append(fan, newTri{tri: [3]int{b, a, p}, base: e})
		}
	}
	if len(fan) == 0 {
		panic("mesh: insertHullSub: no boundary edge sees the point")
	}
	type edgeKey [2]int
	norm := func(a, b int) edgeKey {
		if a > b {
			a, b = b, a
		}
		return edgeKey{a, b}
	}
	pending := map[edgeKey]ShellEdge{}
	var made []ShellEdge
	for _, nt := range fan {
		n := m.makeShellFace(subface)
		r := m.shell(n)
		r.vert = nt.tri
		r.marker = m.shell(nt.base).marker
		*subs = append(*subs, n.Shell)
		made = append(made, n)
		base := n
		m.findShellEdge(&base, nt.tri[0], nt.tri[1])
		m.sbond(base, nt.base)
		for _, pair := range [2][2]int{{nt.tri[1], p}, {nt.tri[0], p}} {
			e := n
			m.findShellEdge(&e, pair[0], pair[1])
			k := norm(pair[0], pair[1])
			if other, ok := pending[k]; ok {
				m.sbond(e, other)
				delete(pending, k)
				continue
			}
			pending[k] = e
		}
	}
	m.queueStarEdges(made, p, fq2)
}

// queueStarEdges pushes, for every made triangle, its edge opposite p.
func (m *Mesh) queueStarEdges(made []ShellEdge, p int, fq2 *[]ShellEdge) {
	for _, n := range made {
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: n.Shell, Ver: ver}
			if m.sorg(e) != p && m.sdest(e) != p {
				*fq2 = append(*fq2, e)
			}
		}
	}
}

// lawsonFlip restores the Delaunay property edge by edge. Subsegment edges
// are constraints and never flip.
func (m *Mesh) lawsonFlip(lift r3.Vector, fq2 *[]ShellEdge, subs *[]int) {
	for len(*fq2) > 0 {
		e := (*fq2)[len(*fq2)-1]
		*fq2 = (*fq2)[:len(*fq2)-1]
		if m.shells.isDead(e.Shell) {
			continue
		}
		if m.sspivot(e).Shell != vacuousShell {
			continue
		}
		nb := m.spivot(e)
		if nb.Shell == vacuousShell {
			continue
		}
		a, b := m.sorg(e), m.sdest(e)
		m.findShellEdge(&nb, a, b)
		d := m.sapex(nb)
		r := m.shell(e)
		if m.inCircle2d(lift, r.vert[0], r.vert[1], r.vert[2], d) != predicates.Positive {
			continue
		}
		c := m.sapex(e)
		made := m.flipSubEdge(e, nb, subs)
		for _, n := range made {
			for _, ver := range []int8{0, 2, 4} {
				ne := ShellEdge{Shell: n.Shell, Ver: ver}
				x, y := m.sorg(ne), m.sdest(ne)
				if (x == c && y == d) || (x == d && y == c) {
					continue // the fresh diagonal
				}
				*fq2 = append(*fq2, ne)
			}
		}
	}
}

// ccwOrg and ccwDest give e's endpoints in the triangle's own stored
// counterclockwise order.
func (m *Mesh) ccwOrg(e ShellEdge) int  { return m.shell(e).vert[vo[e.Ver&^1]] }
func (m *Mesh) ccwDest(e ShellEdge) int { return m.shell(e).vert[vd[e.Ver&^1]] }

// flipSubEdge swaps the diagonal of the quadrilateral around edge e.
func (m *Mesh) flipSubEdge(e, nb ShellEdge, subs *[]int) []ShellEdge {
	a, b := m.ccwOrg(e), m.ccwDest(e)
	c := m.subApexAgainst(e, a, b)
	d := m.subApexAgainst(nb, a, b)
	return m.replaceSubs([]ShellEdge{e, nb}, [][3]int{
		{a, d, c}, {d, b, c},
	}, subs)
}

// insertSegmentSub forces edge u-v into the facet triangulation, then bonds
// a subsegment onto it.
func (m *Mesh) insertSegmentSub(lift r3.Vector, u, v, marker int, subs *[]int) error {
	for iter := 0; iter < 64*len(*subs)+1024; iter++ {
		if e, ok := m.findSubEdge(u, v, *subs); ok {
			m.insertSubseg(e, marker)
			return nil
		}
		if !m.removeOneCrossing(lift, u, v, subs) {
			return fmt.Errorf("mesh: cannot recover facet segment %d-%d", u, v)
		}
	}
	return fmt.Errorf("mesh: facet segment %d-%d recovery does not converge", u, v)
}

// findSubEdge scans the facet for an existing triangle edge u-v.
func (m *Mesh) findSubEdge(u, v int, subs []int) (ShellEdge, bool) {
	for _, si := range subs {
		if m.shells.isDead(si) {
			continue
		}
		s := ShellEdge{Shell: si}
		if m.faceHasEdge(s, u, v) {
			m.findShellEdge(&s, u, v)
			return s, true
		}
	}
	return ShellEdge{}, false
}

// removeOneCrossing finds an edge crossing segment u-v and flips it if its
// surrounding quadrilateral is convex; a nonconvex one is skipped in favor
// of a later crossing, which must eventually become flippable.
func (m *Mesh) removeOneCrossing(lift r3.Vector, u, v int, subs *[]int) bool {
	for _, si := range *subs {
		if m.shells.isDead(si) {
			continue
		}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			a, b := m.sorg(e), m.sdest(e)
			if a == u || a == v || b == u || b == v {
				continue
			}
			if !segmentsCross2d(m, lift, u, v, a, b) {
				continue
			}
			if m.sspivot(e).Shell != vacuousShell {
				return false // the input PSLG self-intersects
			}
			nb := m.spivot(e)
			if nb.Shell == vacuousShell {
				continue
			}
			m.findShellEdge(&nb, a, b)
			c := m.subApexAgainst(e, a, b)
			d := m.subApexAgainst(nb, a, b)
			// Convexity of quad a-c-b-d around the diagonal.
			if m.orient2d(lift, c, d, a) == m.orient2d(lift, c, d, b) {
				continue
			}
			m.flipSubEdge(e, nb, subs)
			return true
		}
	}
	return false
}

func (m *Mesh) subApexAgainst(e ShellEdge, a, b int) int {
	for _, v := range m.shell(e).vert {
		if v != a && v != b {
			return v
		}
	}
	panic("mesh: subApexAgainst: degenerate triangle")
}

func segmentsCross2d(m *Mesh, lift r3.Vector, u, v, a, b int) bool {
	s1 := m.orient2d(lift, u, v, a)
	s2 := m.orient2d(lift, u, v, b)
	s3 := m.orient2d(lift, a, b, u)
	s4 := m.orient2d(lift, a, b, v)
	return s1 != s2 && s1 != predicates.Zero && s2 != predicates.Zero &&
		s3 != s4 && s3 != predicates.Zero && s4 != predicates.Zero
}

// insertSubseg bonds a subsegment onto triangle edge e unless one already
// rides it.
func (m *Mesh) insertSubseg(e ShellEdge, marker int) {
	if m.sspivot(e).Shell != vacuousShell {
		return
	}
	seg := m.makeShellFace(subseg)
	r := m.shell(seg)
	r.vert = [3]int{m.sorg(e), m.sdest(e), noPoint}
	r.marker = marker
	m.ssbond(e, seg)
	if nb := m.spivot(e); nb.Shell != vacuousShell {
		m.findShellEdge(&nb, m.sorg(e), m.sdest(e))
		m.ssbond(nb, seg)
	}
}

// carveHolesSub removes the triangles outside the facet's polygons and the
// ones reachable from its hole points. Infection spreads across edges not
// guarded by a subsegment.
func (m *Mesh) carveHolesSub(lift r3.Vector, holes []r3.Vector, subs *[]int) {
	var queue []ShellEdge
	for _, si := range *subs {
		if m.shells.isDead(si) {
			continue
		}
		s := ShellEdge{Shell: si}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			if m.spivot(e).Shell == vacuousShell && m.sspivot(e).Shell == vacuousShell {
				if !m.sinfected(s) {
					m.sinfect(s)
					queue = append(queue, s)
				}
			}
		}
	}
	for _, h := range holes {
		s, ok := m.locateSubByPos(lift, h, *subs)
		if !ok {
			continue
		}
		if !m.sinfected(s) {
			m.sinfect(s)
			queue = append(queue, s)
		}
	}
	// Plague propagation.
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			if m.sspivot(e).Shell != vacuousShell {
				continue
			}
			nb := m.spivot(e)
			if nb.Shell == vacuousShell || m.sinfected(nb) {
				continue
			}
			m.sinfect(nb)
			queue = append(queue, ShellEdge{Shell: nb.Shell})
		}
	}
	for _, si := range *subs {
		if m.shells.isDead(si) || !m.sinfected(ShellEdge{Shell: si}) {
			continue
		}
		s := ShellEdge{Shell: si}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			nb := m.spivot(e)
			if nb.Shell != vacuousShell && !m.sinfected(nb) {
				m.sdissolve(nb)
			}
			if seg := m.sspivot(e); seg.Shell != vacuousShell {
				if m.segToSub(seg).Shell == si {
					m.shell(seg).adj[2] = ShellEdge{}
				}
			}
		}
		m.killShellFace(s)
	}
	// Subsegments keep a pointer at one live containing subface.
	for _, si := range *subs {
		if m.shells.isDead(si) {
			continue
		}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			if seg := m.sspivot(e); seg.Shell != vacuousShell {
				m.shell(seg).adj[2] = ShellEdge{Shell: si}
			}
		}
	}
}

// locateSubByPos walks toward an arbitrary coordinate (hole seeds are not
// mesh vertices); containment only, edges and vertices count as misses.
func (m *Mesh) locateSubByPos(lift r3.Vector, p r3.Vector, subs []int) (ShellEdge, bool) {
	for _, si := range subs {
		if m.shells.isDead(si) {
			continue
		}
		in := true
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: si, Ver: ver}
			if -predicates.Orient3D(m.pt(m.sorg(e)), m.pt(m.sdest(e)), p, lift) != predicates.Positive {
				in = false
				break
			}
		}
		if in {
			return ShellEdge{Shell: si}, true
		}
	}
	return ShellEdge{}, false
}

// unifySegments deduplicates the subsegments different facets created for
// one input segment and links every subface containing the segment into a
// face ring around the surviving subsegment.
func (m *Mesh) unifySegments() {
	type segKey [2]int
	keep := map[segKey]ShellEdge{}
	m.eachShell(subseg, func(s ShellEdge) bool {
		r := m.shell(s)
		k := segKey{r.vert[0], r.vert[1]}
		if k[0] > k[1] {
			k[0], k[1] = k[1], k[0]
		}
		if first, ok := keep[k]; ok {
			if first.Shell != s.Shell {
				m.killShellFace(s)
			}
			return true
		}
		keep[k] = s
		return true
	})
	// Rebond every subface edge that lies on a kept segment, then ring.
	rings := map[segKey][]ShellEdge{}
	m.eachShell(subface, func(s ShellEdge) bool {
		r := m.shell(s)
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			a, b := r.vert[vo[ver]], r.vert[vd[ver]]
			k := segKey{a, b}
			if k[0] > k[1] {
				k[0], k[1] = k[1], k[0]
			}
			seg, ok := keep[k]
			if !ok {
				continue
			}
			m.shell(e).seg[vo[e.Ver]] = seg
			rings[k] = append(rings[k], e)
		}
		return true
	})
	for k, ring := range rings {
		seg := keep[k]
		for i, e := range ring {
			m.sbond1(e, ring[(i+1)%len(ring)])
		}
		m.shell(seg).adj[2] = ring[0]
	}
}

// mergeFacets removes a subsegment where exactly two coplanar subfaces with
// one marker meet at a flat dihedral, fusing the facets across it.
func (m *Mesh) mergeFacets() {
	m.eachShell(subseg, func(seg ShellEdge) bool {
		first := m.segToSub(seg)
		if first.Shell == vacuousShell {
			return true
		}
		second := m.spivot(first)
		if second.Shell == vacuousShell || second.Shell == first.Shell {
			return true
		}
		if m.spivot(second).Shell != first.Shell {
			return true // more than two facets meet here
		}
		r1, r2 := m.shell(first), m.shell(second)
		if r1.marker != r2.marker {
			return true
		}
		a, b := m.sorg(seg), m.sdest(seg)
		c := m.subApexAgainst(first, a, b)
		d := m.subApexAgainst(second, a, b)
		if predicates.Orient3D(m.pt(a), m.pt(b), m.pt(c), m.pt(d)) != predicates.Zero {
			return true
		}
		e1 := first
		m.findShellEdge(&e1, a, b)
		e2 := second
		m.findShellEdge(&e2, a, b)
		m.ssdissolve(e1)
		m.ssdissolve(e2)
		m.sbond(e1, e2)
		m.killShellFace(seg)
		return true
	})
}
