// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"
)

// newHandleTestMesh returns a mesh holding one tetrahedron whose corners
// are the distinct point ids 10, 11, 12, 13.
func newHandleTestMesh(t *testing.T) (*Mesh, TetFace) {
	t.Helper()
	m := NewMesh(Config{})
	tet := m.makeTetrahedron()
	m.tet(tet).corner = [4]int{10, 11, 12, 13}
	return m, tet
}

func TestEdgeRing_EnextCycles(t *testing.T) {
	m, tet := newHandleTestMesh(t)
	for loc := int8(0); loc < 4; loc++ {
		for ver := int8(0); ver < 6; ver++ {
			h := TetFace{Tet: tet.Tet, Loc: loc, Ver: ver}
			if got := enext(enext(enext(h))); got != h {
				t.Errorf("enext^3(%+v) = %+v, want identity", h, got)
			}
			if got := enext(enext2(h)); got != h {
				t.Errorf("enext(enext2(%+v)) = %+v, want identity", h, got)
			}
			if got := m.org(enext(h)); got != m.dest(h) {
				t.Errorf("org(enext(%+v)) = %v, want dest %v", h, got, m.dest(h))
			}
			if got := m.apex(enext(h)); got != m.org(h) {
				t.Errorf("apex(enext(%+v)) = %v, want org %v", h, got, m.org(h))
			}
		}
	}
}

func TestEdgeRing_EsymReverses(t *testing.T) {
	m, tet := newHandleTestMesh(t)
	for loc := int8(0); loc < 4; loc++ {
		for ver := int8(0); ver < 6; ver++ {
			h := TetFace{Tet: tet.Tet, Loc: loc, Ver: ver}
			r := esym(h)
			if esym(r) != h {
				t.Errorf("esym is not an involution at %+v", h)
			}
			if m.org(r) != m.dest(h) || m.dest(r) != m.org(h) {
				t.Errorf("esym(%+v) endpoints = (%v,%v), want reversed (%v,%v)",
					h, m.org(r), m.dest(r), m.dest(h), m.org(h))
			}
			if m.apex(r) != m.apex(h) {
				t.Errorf("esym(%+v) apex = %v, want %v", h, m.apex(r), m.apex(h))
			}
		}
	}
}

func TestFaceCorners_CoverTetrahedron(t *testing.T) {
	m, tet := newHandleTestMesh(t)
	for loc := int8(0); loc < 4; loc++ {
		h := TetFace{Tet: tet.Tet, Loc: loc}
		seen := map[int]bool{m.org(h): true, m.dest(h): true, m.apex(h): true, m.oppo(h): true}
		for _, c := range m.tet(h).corner {
			if !seen[c] {
				t.Errorf("loc %v: corner %v not covered by org/dest/apex/oppo", loc, c)
			}
		}
		if len(seen) != 4 {
			t.Errorf("loc %v: org/dest/apex/oppo are not distinct: %v", loc, seen)
		}
	}
}

func TestFnext_SameTetrahedronStep(t *testing.T) {
	m, tet := newHandleTestMesh(t)
	// An even version steps to the other face of the same tetrahedron at the
	// same oriented edge; the resulting odd version would leave through the
	// hull on a lone tetrahedron.
	for loc := int8(0); loc < 4; loc++ {
		for _, ver := range []int8{0, 2, 4} {
			h := TetFace{Tet: tet.Tet, Loc: loc, Ver: ver}
			next, ok := m.fnext(h)
			if !ok {
				t.Fatalf("fnext(%+v) failed inside the tetrahedron", h)
			}
			if next.Tet != h.Tet || next.Loc == h.Loc {
				t.Errorf("fnext(%+v) = %+v, want another face of the same tetrahedron", h, next)
			}
			if m.org(next) != m.org(h) || m.dest(next) != m.dest(h) {
				t.Errorf("fnext(%+v) changed the edge: (%v,%v) to (%v,%v)",
					h, m.org(h), m.dest(h), m.org(next), m.dest(next))
			}
			if _, ok := m.fnext(next); ok {
				t.Errorf("fnext(%+v) crossed the hull of a lone tetrahedron", next)
			}
		}
	}
}

func TestFindEdge_LocatesFacePairs(t *testing.T) {
	m, tet := newHandleTestMesh(t)
	for loc := int8(0); loc < 4; loc++ {
		base := TetFace{Tet: tet.Tet, Loc: loc}
		verts := []int{m.org(base), m.dest(base), m.apex(base)}
		for i, a := range verts {
			for j, b := range verts {
				if i == j {
					continue
				}
				h := base
				m.findEdge(&h, a, b)
				if m.org(h) != a || m.dest(h) != b {
					t.Errorf("findEdge(%v, %v) on loc %v = (%v, %v)",
						a, b, loc, m.org(h), m.dest(h))
				}
			}
		}
	}
}
