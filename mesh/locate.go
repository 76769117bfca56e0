// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

// locate finds the position of p relative to the current tetrahedralization.
// It seeds the walk with the best of the most recently visited tetrahedron
// and a random sample of live ones, then hands off to the exact walk. On
// return t addresses the containing element: the tetrahedron for InTet, the
// face, edge or vertex handle for the boundary cases, and a hull face p is
// beyond for Outside.
func (m *Mesh) locate(p r3.Vector, t *TetFace) LocateResult {
	best := m.recent
	if best.Tet == outerTet || m.tets.isDead(best.Tet) {
		best = TetFace{}
	}
	bestDist := math.Inf(1)
	if best.Tet != outerTet {
		bestDist = p.Sub(m.pt(m.tet(best).corner[0])).Norm2()
	}

	// Sampling O(n^(1/4)) candidates keeps the expected walk length low
	// without an external search structure.
	n := m.tets.len()
	samples := int(math.Pow(float64(n), 0.25)) + 1
	for i := 0; i < samples; i++ {
		ti := 1 + m.rng.Intn(n-1)
		if m.tets.isDead(ti) {
			continue
		}
		d := p.Sub(m.pt(m.tets.at(ti).corner[0])).Norm2()
		if d < bestDist {
			bestDist = d
			best = TetFace{Tet: ti}
		}
	}
	if best.Tet == outerTet {
		m.eachTet(func(lt TetFace) bool {
			best = lt
			return false
		})
	}
	*t = TetFace{Tet: best.Tet}
	return m.preciseLocate(p, t)
}

// preciseLocate walks from *t toward p using exact orientation tests only,
// so it terminates even on degenerate input. The walk crosses a face chosen
// at random among those p lies beyond, which defeats cycling.
func (m *Mesh) preciseLocate(p r3.Vector, t *TetFace) LocateResult {
	for step := 0; ; step++ {
		if step > 4*m.tets.len() {
			panic("mesh: preciseLocate: walk does not terminate")
		}
		var sign [4]predicates.Sign
		var negs [4]int8
		nneg := 0
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			sign[loc] = predicates.Orient3D(
				m.pt(m.org(h)), m.pt(m.dest(h)), m.pt(m.apex(h)), p)
			if sign[loc] == predicates.Negative {
				negs[nneg] = loc
				nneg++
			}
		}
		if nneg > 0 {
			loc := negs[m.rng.Intn(nneg)]
			h := TetFace{Tet: t.Tet, Loc: loc}
			next := m.sym(h)
			if next.Tet == outerTet {
				*t = h
				m.recent = TetFace{Tet: t.Tet}
				return Outside
			}
			t.Tet, t.Loc, t.Ver = next.Tet, next.Loc, 0
			continue
		}

		m.recent = TetFace{Tet: t.Tet}
		var zeros []int8
		for loc := int8(0); loc < 4; loc++ {
			if sign[loc] == predicates.Zero {
				zeros = append(zeros, loc)
			}
		}
		switch len(zeros) {
		case 0:
			t.Loc, t.Ver = 0, 0
			return InTetrahedron
		case 1:
			t.Loc, t.Ver = zeros[0], 0
			return OnFace
		case 2:
			// p lies on the edge the two zero faces share.
			e1, e2 := m.sharedEdge(*t, zeros[0], zeros[1])
			t.Loc, t.Ver = zeros[0], 0
			m.findEdge(t, e1, e2)
			return OnEdge
		default:
			// Three zero faces meet at one corner.
			v := m.cornerOfFaces(*t, zeros)
			t.Loc, t.Ver = zeros[0], 0
			if !m.findOrg(t, v) {
				panic("mesh: preciseLocate: lost coincident vertex")
			}
			return OnVertex
		}
	}
}

// sharedEdge returns the two corners common to faces loc1 and loc2 of t.
func (m *Mesh) sharedEdge(t TetFace, loc1, loc2 int8) (int, int) {
	in1 := map[int]bool{}
	h1 := TetFace{Tet: t.Tet, Loc: loc1}
	in1[m.org(h1)] = true
	in1[m.dest(h1)] = true
	in1[m.apex(h1)] = true
	h2 := TetFace{Tet: t.Tet, Loc: loc2}
	var e [2]int
	k := 0
	for _, v := range []int{m.org(h2), m.dest(h2), m.apex(h2)} {
		if in1[v] {
			e[k] = v
			k++
		}
	}
	if k != 2 {
		panic("mesh: sharedEdge: faces of one tetrahedron share no edge")
	}
	return e[0], e[1]
}

// cornerOfFaces returns the corner common to all the given faces of t.
func (m *Mesh) cornerOfFaces(t TetFace, locs []int8) int {
	count := map[int]int{}
	for _, loc := range locs {
		h := TetFace{Tet: t.Tet, Loc: loc}
		count[m.org(h)]++
		count[m.dest(h)]++
		count[m.apex(h)]++
	}
	for v, c := range count {
		if c == len(locs) {
			return v
		}
	}
	panic("mesh: cornerOfFaces: faces of one tetrahedron share no corner")
}

// adjustLocate tightens an exact walk result with the relative tolerance:
// a point within eps of a vertex, edge or face snaps to it. Exactness gives
// the topology; the tolerance absorbs the noise real input carries.
func (m *Mesh) adjustLocate(p r3.Vector, t *TetFace, res LocateResult, eps float64) LocateResult {
	if res == Outside {
		return res
	}
	tol := eps * m.longest

	// Vertex snap first, it is the strongest claim.
	rec := m.tet(*t)
	for _, v := range rec.corner {
		if v == noPoint {
			continue
		}
		if p.Sub(m.pt(v)).Norm() <= tol {
			if !m.findOrg(t, v) {
				continue
			}
			return OnVertex
		}
	}
	// Then the six edges.
	for loc := int8(0); loc < 4; loc++ {
		for _, ver := range []int8{0, 2, 4} {
			h := TetFace{Tet: t.Tet, Loc: loc, Ver: ver}
			a, b := m.org(h), m.dest(h)
			if pr := lineProjectionParam(p, m.pt(a), m.pt(b)); pr < 0 || pr > 1 {
				continue
			}
			if shortDistance(p, m.pt(a), m.pt(b)) <= tol {
				*t = h
				return OnEdge
			}
		}
	}
	// Then the four faces.
	for loc := int8(0); loc < 4; loc++ {
		h := TetFace{Tet: t.Tet, Loc: loc}
		a, b, c := m.pt(m.org(h)), m.pt(m.dest(h)), m.pt(m.apex(h))
		n, _ := faceNormal(a, b, c)
		nl := n.Norm()
		if nl == 0 {
			continue
		}
		if math.Abs(p.Sub(a).Dot(n))/nl <= tol {
			*t = h
			return OnFace
		}
	}
	return res
}
