// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/2dChan/tetra/utils"
)

func cubeCorners() []r3.Vector {
	return []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
}

func buildDelaunay(t *testing.T, pts []r3.Vector) *Mesh {
	t.Helper()
	m := NewMesh(Config{})
	m.TransferNodes(pts, nil, nil)
	_, err := m.Delaunize()
	require.NoError(t, err)
	return m
}

func totalVolume(m *Mesh) float64 {
	vol := 0.0
	m.eachTet(func(t TetFace) bool {
		c := m.tet(t).corner
		vol += tetVolume(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]))
		return true
	})
	return vol
}

func TestDelaunize_CubeCorners(t *testing.T) {
	m := buildDelaunay(t, cubeCorners())

	// A cube tetrahedralizes into 5 or 6 tetrahedra depending on how the
	// cospherical ties break.
	require.Contains(t, []int{5, 6}, m.NumTets())
	require.Equal(t, 12, m.HullSize())
	require.Equal(t, 8, m.NumPoints())
	require.InDelta(t, 1.0, totalVolume(m), 1e-12)

	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())
}

func TestDelaunize_Errors(t *testing.T) {
	tests := []struct {
		name string
		pts  []r3.Vector
		want error
	}{
		{
			"too few points",
			[]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			ErrTooFewPoints,
		},
		{
			"coplanar points",
			[]r3.Vector{
				{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
				{X: 1, Y: 1, Z: 0}, {X: 0.5, Y: 0.25, Z: 0},
			},
			ErrDegenerateInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMesh(Config{})
			m.TransferNodes(tt.pts, nil, nil)
			_, err := m.Delaunize()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDelaunize_DuplicatePoints(t *testing.T) {
	pts := append(cubeCorners(), cubeCorners()[:3]...)
	m := NewMesh(Config{})
	m.TransferNodes(pts, nil, nil)
	inserted, err := m.Delaunize()
	require.NoError(t, err)

	require.Equal(t, 8, inserted)
	require.InDelta(t, 1.0, totalVolume(m), 1e-12)
	require.Zero(t, m.CheckMesh())
}

func TestDelaunize_RandomPoints(t *testing.T) {
	pts := utils.GenerateRandomPoints(200, 1)
	m := buildDelaunay(t, pts)

	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())

	// The boundary of the Delaunay tetrahedralization is the convex hull.
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(pts, true, true, 1e-12)
	require.Equal(t, m.HullSize(), len(ch.Indices)/3)
}

func TestDelaunize_GridPoints(t *testing.T) {
	// Heavily cospherical input exercises the symbolic tie-break.
	m := buildDelaunay(t, utils.GenerateGridPoints(4))

	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
}

func TestInsertAdditional(t *testing.T) {
	m := buildDelaunay(t, cubeCorners())
	before := m.NumTets()

	n := m.InsertAdditional([]r3.Vector{
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: 0.25, Y: 0.25, Z: 0.25},
		{X: 0, Y: 0, Z: 0}, // duplicate of a corner
	})
	require.Equal(t, 2, n)
	require.Greater(t, m.NumTets(), before)
	require.InDelta(t, 1.0, totalVolume(m), 1e-12)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckDelaunay())
}
