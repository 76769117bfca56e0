// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/2dChan/tetra/utils"
)

func TestInsertSite_InteriorPoint(t *testing.T) {
	m := buildDelaunay(t, cubeCorners())
	before := m.NumTets()

	var fq flipQueue
	p := m.makePoint(r3.Vector{X: 0.3, Y: 0.3, Z: 0.3}, FreeVolVertex)
	searchtet := TetFace{}
	res := m.insertSite(p, &searchtet, false, &fq)
	require.Equal(t, SuccessInTet, res)
	m.flip(&fq)

	// A 1-to-4 split gains three tetrahedra before any flips.
	require.GreaterOrEqual(t, m.NumTets(), before+3)
	require.InDelta(t, 1.0, totalVolume(m), 1e-12)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())
}

func TestUndoSite_RestoresMesh(t *testing.T) {
	m := buildDelaunay(t, utils.GenerateRandomPoints(50, 3))
	beforeTets := m.NumTets()
	beforePoints := m.NumPoints()
	beforeHull := m.HullSize()
	beforeVol := totalVolume(m)

	mark := m.flipMark()
	var fq flipQueue
	p := m.makePoint(r3.Vector{X: 0.41, Y: 0.37, Z: 0.59}, FreeVolVertex)
	searchtet := TetFace{}
	res := m.insertSite(p, &searchtet, false, &fq)
	require.Equal(t, SuccessInTet, res)
	m.flip(&fq)
	require.Zero(t, m.CheckMesh())

	m.undoSite(mark, p)
	m.hullSize = m.countHullFaces()

	require.Equal(t, beforeTets, m.NumTets())
	require.Equal(t, beforePoints, m.NumPoints())
	require.Equal(t, beforeHull, m.HullSize())
	require.InDelta(t, beforeVol, totalVolume(m), 1e-12)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())
}

func TestFlip_CountersAdvance(t *testing.T) {
	m := buildDelaunay(t, utils.GenerateRandomPoints(100, 5))
	require.Positive(t, m.flip23s+m.flip32s+m.flip22s+m.flip44s)
}

func TestOrientedQuad(t *testing.T) {
	m := NewMesh(Config{})
	ids := make([]int, 4)
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
	}
	for i, p := range pts {
		ids[i] = m.makePoint(p, InputVertex)
	}

	perms := [][4]int{
		{0, 1, 2, 3}, {1, 0, 2, 3}, {3, 2, 1, 0}, {2, 3, 0, 1},
	}
	for _, perm := range perms {
		q := m.orientedQuad(ids[perm[0]], ids[perm[1]], ids[perm[2]], ids[perm[3]])
		vol := tetVolume(m.pt(q[0]), m.pt(q[1]), m.pt(q[2]), m.pt(q[3]))
		require.Positive(t, vol, "permutation %v produced volume %v", perm, vol)
	}
}
