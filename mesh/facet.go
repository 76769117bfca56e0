// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

// ErrFacetBudget is returned when facet recovery exhausts its Steiner point
// budget.
var ErrFacetBudget = errors.New("mesh: facet recovery exceeded the point budget")

// ConstrainedFacets forces every subface into the tetrahedralization. A
// subface whose triangle already matches a tetrahedron face is bonded in
// place. The rest form missing regions; a region pierced by a tetrahedron
// edge gets a Steiner point at the piercing spot, while an intact but
// differently triangulated region is re-covered with subfaces matching the
// tetrahedra.
func (m *Mesh) ConstrainedFacets() error {
	var queue []ShellEdge
	m.eachShell(subface, func(s ShellEdge) bool {
		queue = append(queue, s)
		return true
	})
	budget := m.steinerBudget()
	added := 0
	var fq flipQueue
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if m.isDeadShell(s) {
			continue
		}
		if m.subfaceBonded(s) {
			continue
		}
		if m.tryBondSubface(s) {
			continue
		}
		region := m.formMissingRegion(s)
		edge, q, pierced := m.scoutCrossingEdge(region)
		if pierced {
			if added >= budget {
				return ErrFacetBudget
			}
			p := m.makePoint(q, FreeSubVertex)
			m.splitTetEdge(p, edge, &fq)
			m.flip(&fq)
			target := m.regionFaceAt(region, q)
			pieces := m.splitSubfaceShellOnly(target, p)
			queue = append(queue, pieces...)
			queue = append(queue, s)
			added++
			continue
		}
		news, err := m.rearrangeSubfaces(region)
		if err != nil {
			return err
		}
		queue = append(queue, news...)
	}
	if m.Verbose() {
		m.log.Info("facets recovered", "steiner points", added,
			"subfaces", m.countShells(subface))
	}
	return nil
}

// subfaceBonded reports whether s already adjoins a live tetrahedron.
func (m *Mesh) subfaceBonded(s ShellEdge) bool {
	for i := 0; i < 2; i++ {
		t := m.shell(s).tet[i]
		if t.Tet != outerTet && !m.tets.isDead(t.Tet) {
			h := TetFace{Tet: t.Tet, Loc: t.Loc}
			r := m.shell(s)
			if m.tetHasVertex(h, r.vert[0]) && m.tetHasVertex(h, r.vert[1]) && m.tetHasVertex(h, r.vert[2]) {
				return true
			}
		}
	}
	return false
}

// tryBondSubface bonds s to the tetrahedra matching its triangle, if any.
func (m *Mesh) tryBondSubface(s ShellEdge) bool {
	r := m.shell(s)
	x, y, z := r.vert[0], r.vert[1], r.vert[2]
	found := false
	m.tetsAround(x, func(ti int) bool {
		c := TetFace{Tet: ti}
		if m.findFace(&c, x, y, z) {
			found = true
			return false
		}
		return true
	})
	if found {
		m.bondSubfaceToTets(s)
	}
	return found
}

// missingRegion is one maximal connected group of coplanar subfaces whose
// triangles are absent from the tetrahedralization.
type missingRegion struct {
	subs  []ShellEdge
	verts []int
	lift  r3.Vector
	// plane through these three vertices.
	pa, pb, pc int
}

// formMissingRegion grows the missing region around seed across facet
// edges, stopping at subsegments and at subfaces already present.
func (m *Mesh) formMissingRegion(seed ShellEdge) *missingRegion {
	r := m.shell(seed)
	reg := &missingRegion{pa: r.vert[0], pb: r.vert[1], pc: r.vert[2]}
	n, _ := faceNormal(m.pt(reg.pa), m.pt(reg.pb), m.pt(reg.pc))
	centroid := m.pt(reg.pa).Add(m.pt(reg.pb)).Add(m.pt(reg.pc)).Mul(1.0 / 3.0)
	reg.lift = centroid.Add(n.Mul(m.longest / n.Norm()))

	seen := map[int]bool{seed.Shell: true}
	vseen := map[int]bool{}
	queue := []ShellEdge{seed}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		reg.subs = append(reg.subs, s)
		for _, v := range m.shell(s).vert {
			if !vseen[v] {
				vseen[v] = true
				reg.verts = append(reg.verts, v)
			}
		}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			if m.sspivot(e).Shell != vacuousShell {
				continue
			}
			nb := m.spivot(e)
			if nb.Shell == vacuousShell || seen[nb.Shell] {
				continue
			}
			seen[nb.Shell] = true
			if m.subfaceBonded(nb) || m.tryBondSubface(nb) {
				continue
			}
			if !m.coplanarWith(reg, m.shell(nb).vert) {
				continue
			}
			queue = append(queue, ShellEdge{Shell: nb.Shell})
		}
	}
	return reg
}

func (m *Mesh) coplanarWith(reg *missingRegion, verts [3]int) bool {
	for _, v := range verts {
		if v == reg.pa || v == reg.pb || v == reg.pc {
			continue
		}
		if predicates.Orient3D(m.pt(reg.pa), m.pt(reg.pb), m.pt(reg.pc), m.pt(v)) != predicates.Zero {
			return false
		}
	}
	return true
}

// pointInRegion reports whether coordinate q falls inside one of the
// region's triangles.
func (m *Mesh) pointInRegion(reg *missingRegion, q r3.Vector) bool {
	for _, s := range reg.subs {
		if m.isDeadShell(s) {
			continue
		}
		v := m.shell(s).vert
		if m.pointInLiftedTriangle(reg.lift, m.pt(v[0]), m.pt(v[1]), m.pt(v[2]), q) {
			return true
		}
	}
	return false
}

func (m *Mesh) pointInLiftedTriangle(lift, a, b, c, q r3.Vector) bool {
	s1 := predicates.Orient3D(a, b, lift, q)
	s2 := predicates.Orient3D(b, c, lift, q)
	s3 := predicates.Orient3D(c, a, lift, q)
	nonneg := s1 != predicates.Negative && s2 != predicates.Negative && s3 != predicates.Negative
	nonpos := s1 != predicates.Positive && s2 != predicates.Positive && s3 != predicates.Positive
	return nonneg || nonpos
}

// regionFaceAt returns the region subface whose triangle contains q.
func (m *Mesh) regionFaceAt(reg *missingRegion, q r3.Vector) ShellEdge {
	for _, s := range reg.subs {
		if m.isDeadShell(s) {
			continue
		}
		v := m.shell(s).vert
		if m.pointInLiftedTriangle(reg.lift, m.pt(v[0]), m.pt(v[1]), m.pt(v[2]), q) {
			return s
		}
	}
	panic("mesh: regionFaceAt: piercing point escapes its region")
}

// scoutCrossingEdge searches, around the region's vertices, for a
// tetrahedron edge piercing the region's interior. It returns the edge
// handle and the piercing coordinate.
func (m *Mesh) scoutCrossingEdge(reg *missingRegion) (TetFace, r3.Vector, bool) {
	pa, pb, pc := m.pt(reg.pa), m.pt(reg.pb), m.pt(reg.pc)
	type edgePair [2]int
	tried := map[edgePair]bool{}
	var hit TetFace
	var at r3.Vector
	found := false
	for _, w := range reg.verts {
		m.tetsAround(w, func(ti int) bool {
			for loc := int8(0); loc < 4; loc++ {
				for _, ver := range []int8{0, 2, 4} {
					h := TetFace{Tet: ti, Loc: loc, Ver: ver}
					u, v := m.org(h), m.dest(h)
					key := edgePair{u, v}
					if u > v {
						key = edgePair{v, u}
					}
					if tried[key] {
						continue
					}
					tried[key] = true
					su := predicates.Orient3D(pa, pb, pc, m.pt(u))
					sv := predicates.Orient3D(pa, pb, pc, m.pt(v))
					if su == predicates.Zero || sv == predicates.Zero || su == sv {
						continue
					}
					q, ok := m.planePierce(pa, pb, pc, m.pt(u), m.pt(v))
					if !ok || !m.pointInRegion(reg, q) {
						continue
					}
					hit, at, found = h, q, true
					return false
				}
			}
			return true
		})
		if found {
			break
		}
	}
	return hit, at, found
}

// planePierce intersects segment u-v with the plane through a, b, c.
func (m *Mesh) planePierce(a, b, c, u, v r3.Vector) (r3.Vector, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	du := u.Sub(a).Dot(n)
	dv := v.Sub(a).Dot(n)
	if du == dv {
		return r3.Vector{}, false
	}
	t := du / (du - dv)
	if t <= 0 || t >= 1 {
		return r3.Vector{}, false
	}
	return u.Add(v.Sub(u).Mul(t)), true
}

// splitSubfaceShellOnly is the shell-level point split used before the
// subface has tetrahedra to bond to.
func (m *Mesh) splitSubfaceShellOnly(s ShellEdge, p int) []ShellEdge {
	rec := m.shell(s)
	x, y, z := rec.vert[0], rec.vert[1], rec.vert[2]
	marker := rec.marker
	corners := [3][2]int{{x, y}, {y, z}, {z, x}}
	made := make([]ShellEdge, 3)
	for i, e := range corners {
		n := m.makeShellFace(subface)
		nr := m.shell(n)
		nr.vert = [3]int{e[0], e[1], p}
		nr.marker = marker
		made[i] = n
	}
	for i, e := range corners {
		olds := s
		m.findShellEdge(&olds, e[0], e[1])
		news := made[i]
		m.findShellEdge(&news, e[0], e[1])
		m.replaceEdgeAdjacency(olds, news)
	}
	for i := range corners {
		j := (i + 1) % 3
		s1 := made[i]
		m.findShellEdge(&s1, corners[i][1], p)
		s2 := made[j]
		m.findShellEdge(&s2, corners[j][0], p)
		m.sbond(s1, s2)
	}
	m.killShellFace(s)
	return made
}

// rearrangeSubfaces replaces the region's subfaces with ones matching the
// coplanar tetrahedron faces that already cover the region.
func (m *Mesh) rearrangeSubfaces(reg *missingRegion) ([]ShellEdge, error) {
	pa, pb, pc := m.pt(reg.pa), m.pt(reg.pb), m.pt(reg.pc)
	inPlane := func(v int) bool {
		return predicates.Orient3D(pa, pb, pc, m.pt(v)) == predicates.Zero
	}
	centroidIn := func(h TetFace) bool {
		c := m.pt(m.org(h)).Add(m.pt(m.dest(h))).Add(m.pt(m.apex(h))).Mul(1.0 / 3.0)
		return m.pointInRegion(reg, c)
	}

	// Capture external shell adjacency of the doomed subfaces.
	type edgeKey [2]int
	norm := func(a, b int) edgeKey {
		if a > b {
			a, b = b, a
		}
		return edgeKey{a, b}
	}
	inRegion := map[int]bool{}
	for _, s := range reg.subs {
		inRegion[s.Shell] = true
	}
	type extAdj struct {
		nbr ShellEdge
		seg ShellEdge
	}
	ext := map[edgeKey]extAdj{}
	marker := m.shell(reg.subs[0]).marker
	for _, s := range reg.subs {
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			nb := m.spivot(e)
			seg := m.sspivot(e)
			if inRegion[nb.Shell] && seg.Shell == vacuousShell {
				continue
			}
			ext[norm(m.sorg(e), m.sdest(e))] = extAdj{nbr: nb, seg: seg}
		}
	}

	// Collect the covering tetrahedron faces: coplanar, centroid inside.
	covering := map[faceKey]TetFace{}
	for _, w := range reg.verts {
		m.tetsAround(w, func(ti int) bool {
			for loc := int8(0); loc < 4; loc++ {
				h := TetFace{Tet: ti, Loc: loc}
				x, y, z := m.org(h), m.dest(h), m.apex(h)
				k := keyOf(x, y, z)
				if _, ok := covering[k]; ok {
					continue
				}
				if !inPlane(x) || !inPlane(y) || !inPlane(z) {
					continue
				}
				if !centroidIn(h) {
					continue
				}
				covering[k] = h
			}
			return true
		})
	}
	if len(covering) == 0 {
		return nil, errors.New("mesh: missing region has neither crossing edge nor covering faces")
	}

	for _, s := range reg.subs {
		m.killShellFace(s)
	}
	var made []ShellEdge
	pending := map[edgeKey]ShellEdge{}
	for _, h := range covering {
		n := m.makeShellFace(subface)
		nr := m.shell(n)
		nr.vert = [3]int{m.org(h), m.dest(h), m.apex(h)}
		nr.marker = marker
		made = append(made, n)
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
		if adj.seg.Shell != vacuousShell {
			m.relinkSegmentRing(adj.seg, e)
		} else if adj.nbr.Shell != vacuousShell && !m.isDeadShell(adj.nbr) {
			m.sbond(e, adj.nbr)
		}
	}
	for _, n := range made {
		m.bondSubfaceToTets(n)
	}
	return made, nil
}

// relinkSegmentRing rebuilds the face ring of seg from every live subface
// on its edge, e included.
func (m *Mesh) relinkSegmentRing(seg ShellEdge, e ShellEdge) {
	a, b := m.shell(seg).vert[0], m.shell(seg).vert[1]
	var ring []ShellEdge
	m.eachShell(subface, func(s ShellEdge) bool {
		if m.faceHasEdge(s, a, b) {
			se := s
			m.findShellEdge(&se, a, b)
			ring = append(ring, se)
		}
		return true
	})
	for i, r := range ring {
		m.shell(r).seg[vo[r.Ver]] = seg
		m.sbond1(r, ring[(i+1)%len(ring)])
	}
	if len(ring) > 0 {
		m.shell(seg).adj[2] = ring[0]
	}
}
