// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"github.com/2dChan/tetra/predicates"
)

// CheckMesh audits the tetrahedral topology: every live tetrahedron must be
// positively oriented and every neighbor bond must be mutual over the same
// three vertices. It returns the number of defects found, logging each.
func (m *Mesh) CheckMesh() int {
	horrors := 0
	m.eachTet(func(t TetFace) bool {
		c := m.tet(t).corner
		// Degenerate input can leave flat tetrahedra whose orientation is
		// only symbolically positive; those are fine, inverted ones are not.
		if predicates.Orient3DSym(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]),
			c[0], c[1], c[2], c[3]) != predicates.Positive {
			m.log.Error("tetrahedron is not positively oriented", "tet", t.Tet, "corners", c)
			horrors++
		}
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			nbr := m.tet(h).nbr[loc]
			if nbr.Tet == outerTet {
				continue
			}
			if m.tets.isDead(nbr.Tet) {
				m.log.Error("tetrahedron bonded to a dead neighbor", "tet", t.Tet, "loc", loc)
				horrors++
				continue
			}
			back := m.tet(nbr).nbr[nbr.Loc]
			if back.Tet != t.Tet || back.Loc != loc {
				m.log.Error("neighbor bond is not mutual", "tet", t.Tet, "loc", loc, "nbr", nbr.Tet)
				horrors++
				continue
			}
			fo, fd, fa := m.org(h), m.dest(h), m.apex(h)
			s := m.sym(h)
			if !m.findFace(&s, fo, fd, fa) {
				m.log.Error("bonded faces disagree on vertices", "tet", t.Tet, "loc", loc, "nbr", nbr.Tet)
				horrors++
			}
		}
		return true
	})
	if horrors == 0 && m.Verbose() {
		m.log.Info("mesh topology is consistent")
	}
	return horrors
}

// CheckShells audits the boundary structures: subface edge rings, segment
// bonds, and tetrahedron attachments.
func (m *Mesh) CheckShells() int {
	horrors := 0
	m.eachShell(subface, func(s ShellEdge) bool {
		r := m.shell(s)
		if r.vert[0] == r.vert[1] || r.vert[1] == r.vert[2] || r.vert[0] == r.vert[2] {
			m.log.Error("subface with repeated vertices", "shell", s.Shell, "verts", r.vert)
			horrors++
			return true
		}
		for _, ver := range []int8{0, 2, 4} {
			e := ShellEdge{Shell: s.Shell, Ver: ver}
			a, b := m.sorg(e), m.sdest(e)
			nb := m.spivot(e)
			if nb.Shell != vacuousShell {
				if m.isDeadShell(nb) {
					m.log.Error("subface edge bonded to a dead shell", "shell", s.Shell, "ver", ver)
					horrors++
					continue
				}
				if !m.faceHasEdge(nb, a, b) {
					m.log.Error("edge bond disagrees on endpoints", "shell", s.Shell, "ver", ver)
					horrors++
					continue
				}
				if m.sspivot(e).Shell == vacuousShell {
					// No segment: the bond must be mutual.
					nbe := nb
					m.findShellEdge(&nbe, a, b)
					if m.spivot(nbe).Shell != s.Shell {
						m.log.Error("facet-interior edge bond is not mutual", "shell", s.Shell, "ver", ver)
						horrors++
					}
				} else if !m.ringCloses(e) {
					m.log.Error("segment ring does not close", "shell", s.Shell, "ver", ver)
					horrors++
				}
			}
			if seg := m.sspivot(e); seg.Shell != vacuousShell {
				sr := m.shell(seg)
				if !(sr.vert[0] == a && sr.vert[1] == b || sr.vert[0] == b && sr.vert[1] == a) {
					m.log.Error("subsegment bond disagrees on endpoints", "shell", s.Shell, "ver", ver)
					horrors++
				}
			}
		}
		for i := 0; i < 2; i++ {
			t := r.tet[i]
			if t.Tet == outerTet {
				continue
			}
			if m.tets.isDead(t.Tet) {
				m.log.Error("subface attached to a dead tetrahedron", "shell", s.Shell)
				horrors++
				continue
			}
			h := TetFace{Tet: t.Tet, Loc: t.Loc}
			if m.tspivot(h).Shell != s.Shell {
				m.log.Error("subface attachment is not mutual", "shell", s.Shell, "tet", t.Tet)
				horrors++
				continue
			}
			if !m.findFace(&h, r.vert[0], r.vert[1], r.vert[2]) {
				m.log.Error("attached face disagrees on vertices", "shell", s.Shell, "tet", t.Tet)
				horrors++
			}
		}
		return true
	})
	m.eachShell(subseg, func(seg ShellEdge) bool {
		if s := m.segToSub(seg); s.Shell != vacuousShell {
			if m.isDeadShell(s) {
				m.log.Error("subsegment points at a dead subface", "seg", seg.Shell)
				horrors++
			} else if !m.faceHasEdge(s, m.shell(seg).vert[0], m.shell(seg).vert[1]) {
				m.log.Error("subsegment points at an unrelated subface", "seg", seg.Shell)
				horrors++
			}
		}
		return true
	})
	if horrors == 0 && m.Verbose() {
		m.log.Info("shell structures are consistent")
	}
	return horrors
}

// ringCloses follows sbond1 links around the segment at edge e and reports
// whether they return to e's subface.
func (m *Mesh) ringCloses(e ShellEdge) bool {
	a, b := m.sorg(e), m.sdest(e)
	cur := m.spivot(e)
	for i := 0; i < 1024; i++ {
		if cur.Shell == vacuousShell || m.isDeadShell(cur) {
			return false
		}
		if cur.Shell == e.Shell {
			return true
		}
		m.findShellEdge(&cur, a, b)
		cur = m.spivot(cur)
	}
	return false
}

// CheckDelaunay verifies the Delaunay property of every unconstrained
// interior face.
func (m *Mesh) CheckDelaunay() int {
	horrors := 0
	m.eachTet(func(t TetFace) bool {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			if !m.symExists(h) {
				continue
			}
			nbr := m.sym(h)
			if nbr.Tet < t.Tet {
				continue // each face once
			}
			if m.checkSubfaces && m.tspivot(h).Shell != vacuousShell {
				continue // constrained face
			}
			e := m.oppo(nbr)
			c := m.tet(h).corner
			if predicates.InSphereSym(
				m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]), m.pt(e),
				c[0], c[1], c[2], c[3], e,
			) == predicates.Positive {
				m.log.Error("face is not locally Delaunay", "tet", t.Tet, "loc", loc)
				horrors++
			}
		}
		return true
	})
	if horrors == 0 && m.Verbose() {
		m.log.Info("mesh is Delaunay")
	}
	return horrors
}
