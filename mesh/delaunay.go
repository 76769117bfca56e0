// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"errors"

	"github.com/golang/geo/r3"

	"github.com/2dChan/tetra/predicates"
)

var (
	// ErrTooFewPoints is returned when fewer than four points are supplied.
	ErrTooFewPoints = errors.New("mesh: need at least four input points")
	// ErrDegenerateInput is returned when all input points are coplanar.
	ErrDegenerateInput = errors.New("mesh: input points are coplanar")
)

// Delaunize builds the Delaunay tetrahedralization of the transferred
// points by incremental insertion with local flipping. Points coinciding
// within the relative tolerance are chained to their twin and skipped. It
// returns the number of points actually inserted.
func (m *Mesh) Delaunize() (int, error) {
	var ids []int
	m.eachPoint(func(p int) bool {
		ids = append(ids, p)
		return true
	})
	if len(ids) < 4 {
		return 0, ErrTooFewPoints
	}

	rest, err := m.firstTetrahedron(ids)
	if err != nil {
		return 0, err
	}
	inserted := 4
	dup := 0

	var fq flipQueue
	for _, p := range rest {
		searchtet := TetFace{}
		switch m.insertSite(p, &searchtet, false, &fq) {
		case DuplicatePoint:
			dup++
			m.setPointKind(p, DuplicateVertex)
			continue
		case OutsidePoint:
			m.insertHullSite(p, searchtet, &fq)
		}
		m.flip(&fq)
		inserted++
	}
	m.hullSize = m.countHullFaces()
	if m.Verbose() {
		m.log.Info("incremental delaunay done",
			"points", inserted, "duplicates", dup,
			"tetrahedra", m.NumTets(), "hull faces", m.hullSize,
			"flips", m.flip23s+m.flip32s+m.flip22s+m.flip44s)
	}
	return inserted, nil
}

// InsertAdditional inserts extra points into an existing tetrahedralization,
// maintaining the Delaunay property locally around each. Points falling on
// an existing vertex are dropped.
func (m *Mesh) InsertAdditional(pts []r3.Vector) int {
	inserted := 0
	var fq flipQueue
	for _, pos := range pts {
		p := m.makePoint(pos, InputVertex)
		searchtet := TetFace{}
		switch m.insertSite(p, &searchtet, true, &fq) {
		case DuplicatePoint:
			m.setPointKind(p, DuplicateVertex)
			continue
		case OutsidePoint:
			m.insertHullSite(p, searchtet, &fq)
		}
		m.flip(&fq)
		inserted++
	}
	m.hullSize = m.countHullFaces()
	return inserted
}

// firstTetrahedron finds four affinely independent points among ids, makes
// the initial tetrahedron from them, and returns the points still to
// insert, in input order.
func (m *Mesh) firstTetrahedron(ids []int) ([]int, error) {
	p0 := ids[0]
	p1, p2, p3 := noPoint, noPoint, noPoint
	for _, p := range ids[1:] {
		if m.pt(p) != m.pt(p0) {
			p1 = p
			break
		}
	}
	if p1 == noPoint {
		return nil, ErrDegenerateInput
	}
	for _, p := range ids[1:] {
		if p == p1 {
			continue
		}
		n, _ := faceNormal(m.pt(p0), m.pt(p1), m.pt(p))
		if n.Norm() > 0 {
			p2 = p
			break
		}
	}
	if p2 == noPoint {
		return nil, ErrDegenerateInput
	}
	for _, p := range ids[1:] {
		if p == p1 || p == p2 {
			continue
		}
		if predicates.Orient3D(m.pt(p0), m.pt(p1), m.pt(p2), m.pt(p)) != predicates.Zero {
			p3 = p
			break
		}
	}
	if p3 == noPoint {
		return nil, ErrDegenerateInput
	}

	t := m.makeTetrahedron()
	m.tet(t).corner = m.orientedQuad(p0, p1, p2, p3)
	for _, c := range m.tet(t).corner {
		m.setPoint2tet(c, t.Tet)
	}
	m.recent = t

	used := map[int]bool{p0: true, p1: true, p2: true, p3: true}
	var rest []int
	for _, p := range ids {
		if !used[p] {
			rest = append(rest, p)
		}
	}
	return rest, nil
}
