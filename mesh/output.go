// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"github.com/golang/geo/r3"
)

// MeshOutput is the assembled result of a tetrahedralization. All indices
// are zero based; callers offset them for one based numbering.
type MeshOutput struct {
	Points       []r3.Vector
	PointAttrs   [][]float64
	PointMarkers []int

	// Tets holds 4 corner indices per element, or 10 when order-2 output
	// was requested (4 corners then 6 mid-edge nodes).
	Tets     [][]int
	TetAttrs [][]float64

	// Neighbors lists, per element, the element across each of its four
	// faces, -1 on the hull.
	Neighbors [][4]int

	TriFaces    [][3]int
	FaceMarkers []int

	Edges       [][2]int
	EdgeMarkers []int
}

// midEdgeOrder lists the corner pairs carrying the six mid-edge nodes of a
// 10-node tetrahedron, in output order.
var midEdgeOrder = [6][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}}

// Output walks the live arenas and assembles the node, element, face, and
// edge arrays. When order2 is set, mid-edge nodes are synthesized once per
// mesh edge and appended after the real points.
func (m *Mesh) Output(order2 bool) *MeshOutput {
	out := &MeshOutput{}

	pointSeq := map[int]int{}
	m.eachPoint(func(p int) bool {
		switch m.pointKind(p) {
		case DeadVertex, DuplicateVertex:
			return true
		}
		pointSeq[p] = len(out.Points)
		rec := m.point(p)
		out.Points = append(out.Points, rec.pos)
		out.PointAttrs = append(out.PointAttrs, rec.attrs)
		out.PointMarkers = append(out.PointMarkers, rec.marker)
		return true
	})

	tetSeq := map[int]int{}
	var tets []TetFace
	m.eachTet(func(t TetFace) bool {
		tetSeq[t.Tet] = len(tets)
		tets = append(tets, t)
		return true
	})

	// Mid-edge nodes are shared between the elements meeting at an edge.
	midAt := map[[2]int]int{}
	midNode := func(a, b int) int {
		k := [2]int{a, b}
		if a > b {
			k = [2]int{b, a}
		}
		if id, ok := midAt[k]; ok {
			return id
		}
		id := len(out.Points)
		midAt[k] = id
		out.Points = append(out.Points, m.pt(a).Add(m.pt(b)).Mul(0.5))
		out.PointAttrs = append(out.PointAttrs, nil)
		out.PointMarkers = append(out.PointMarkers, 0)
		return id
	}

	for _, t := range tets {
		rec := m.tet(t)
		el := make([]int, 0, 10)
		for _, c := range rec.corner {
			el = append(el, pointSeq[c])
		}
		if order2 {
			rec.ho = rec.ho[:0]
			for _, e := range midEdgeOrder {
				id := midNode(rec.corner[e[0]], rec.corner[e[1]])
				rec.ho = append(rec.ho, id)
				el = append(el, id)
			}
		}
		out.Tets = append(out.Tets, el)
		out.TetAttrs = append(out.TetAttrs, rec.attrs)

		var nbrs [4]int
		for loc := 0; loc < 4; loc++ {
			n := rec.nbr[loc]
			if n.Tet == outerTet {
				nbrs[loc] = -1
			} else {
				nbrs[loc] = tetSeq[n.Tet]
			}
		}
		out.Neighbors = append(out.Neighbors, nbrs)
	}

	if m.checkSubfaces {
		m.eachShell(subface, func(s ShellEdge) bool {
			r := m.shell(s)
			out.TriFaces = append(out.TriFaces,
				[3]int{pointSeq[r.vert[0]], pointSeq[r.vert[1]], pointSeq[r.vert[2]]})
			out.FaceMarkers = append(out.FaceMarkers, r.marker)
			return true
		})
		m.eachShell(subseg, func(seg ShellEdge) bool {
			r := m.shell(seg)
			out.Edges = append(out.Edges, [2]int{pointSeq[r.vert[0]], pointSeq[r.vert[1]]})
			out.EdgeMarkers = append(out.EdgeMarkers, r.marker)
			return true
		})
	} else {
		// Without boundary structures the hull faces are the boundary.
		m.eachTet(func(t TetFace) bool {
			for loc := int8(0); loc < 4; loc++ {
				h := TetFace{Tet: t.Tet, Loc: loc}
				if m.symExists(h) {
					continue
				}
				out.TriFaces = append(out.TriFaces,
					[3]int{pointSeq[m.org(h)], pointSeq[m.dest(h)], pointSeq[m.apex(h)]})
				out.FaceMarkers = append(out.FaceMarkers, 1)
			}
			return true
		})
	}
	return out
}
