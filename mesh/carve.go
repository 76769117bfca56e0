// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"github.com/golang/geo/r3"
)

// RegionSpec seeds one mesh region: every tetrahedron reachable from Point
// without crossing a subface receives Attr as an element attribute and, if
// Volume is positive, Volume as its constraint.
type RegionSpec struct {
	Point  r3.Vector
	Attr   float64
	Volume float64
}

// CarveHoles removes the tetrahedra outside the domain: everything
// reachable from an unprotected hull face, plus everything reachable from a
// hole seed, with subfaces damming the spread. Region seeds then paint
// attributes and volume constraints onto what remains.
func (m *Mesh) CarveHoles(holes []r3.Vector, regions []RegionSpec) {
	var queue []TetFace

	infectTet := func(t TetFace) {
		if !m.infected(t) {
			m.infect(t)
			queue = append(queue, TetFace{Tet: t.Tet})
		}
	}

	// Unprotected hull faces leak infection in from outer space.
	m.eachTet(func(t TetFace) bool {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			if m.symExists(h) || m.tspivot(h).Shell != vacuousShell {
				continue
			}
			infectTet(h)
			break
		}
		return true
	})
	for _, hole := range holes {
		t := TetFace{}
		if res := m.locate(hole, &t); res == Outside {
			m.log.Warn("hole seed lies outside the mesh", "seed", hole)
			continue
		}
		infectTet(t)
	}

	// Plague: spread through unguarded faces.
	for len(queue) > 0 {
		t := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			if m.tspivot(h).Shell != vacuousShell {
				continue
			}
			n := m.sym(h)
			if n.Tet == outerTet || m.infected(n) {
				continue
			}
			infectTet(n)
		}
	}

	// Carve the infected set out, detaching shells and survivors.
	removed := 0
	m.eachTet(func(t TetFace) bool {
		if !m.infected(t) {
			return true
		}
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: t.Tet, Loc: loc}
			if s := m.tspivot(h); s.Shell != vacuousShell {
				r := m.shell(s)
				for i := range r.tet {
					if r.tet[i].Tet == t.Tet {
						r.tet[i] = TetFace{}
					}
				}
			}
			if n := m.sym(h); n.Tet != outerTet && !m.infected(n) {
				m.dissolve(n)
			}
		}
		m.killTetrahedron(t)
		removed++
		return true
	})
	m.makePoint2TetMap()
	m.markOrphanPoints()
	m.nonconvex = true
	m.hullSize = m.countHullFaces()

	if m.cfg.RegionAttrib || m.cfg.VarVolume {
		m.paintRegions(regions)
	}
	if m.Verbose() {
		m.log.Info("holes carved", "removed", removed,
			"tetrahedra", m.NumTets(), "hull faces", m.hullSize)
	}
}

// markOrphanPoints marks points no surviving tetrahedron uses, so output
// skips them.
func (m *Mesh) markOrphanPoints() {
	used := map[int]bool{}
	m.eachTet(func(t TetFace) bool {
		for _, c := range m.tet(t).corner {
			used[c] = true
		}
		return true
	})
	m.eachPoint(func(p int) bool {
		if !used[p] && m.pointKind(p) != DuplicateVertex {
			m.setPointKind(p, DeadVertex)
		}
		return true
	})
}

// paintRegions floods each region seed's attribute and volume constraint
// through the subface-bounded component containing it.
func (m *Mesh) paintRegions(regions []RegionSpec) {
	for i, reg := range regions {
		t := TetFace{}
		if res := m.locate(reg.Point, &t); res == Outside {
			m.log.Warn("region seed lies outside the mesh", "region", i)
			continue
		}
		var queue []TetFace
		seen := map[int]bool{t.Tet: true}
		queue = append(queue, TetFace{Tet: t.Tet})
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			rec := m.tet(cur)
			if m.cfg.RegionAttrib {
				rec.attrs = append(rec.attrs[:0], reg.Attr)
			}
			if m.cfg.VarVolume && reg.Volume > 0 {
				rec.volume = reg.Volume
			}
			for loc := int8(0); loc < 4; loc++ {
				h := TetFace{Tet: cur.Tet, Loc: loc}
				if m.tspivot(h).Shell != vacuousShell {
					continue
				}
				n := m.sym(h)
				if n.Tet == outerTet || seen[n.Tet] {
					continue
				}
				seen[n.Tet] = true
				queue = append(queue, TetFace{Tet: n.Tet})
			}
		}
	}
}
