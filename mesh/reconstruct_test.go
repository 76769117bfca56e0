// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

// rebuildFrom reconstructs a mesh from another mesh's output arrays.
func rebuildFrom(t *testing.T, src *Mesh, cfg Config) *Mesh {
	t.Helper()
	out := src.Output(false)
	m := NewMesh(cfg)
	m.TransferNodes(out.Points, out.PointAttrs, out.PointMarkers)
	require.NoError(t, m.Reconstruct(out.Tets, out.TetAttrs,
		out.TriFaces, out.FaceMarkers, out.Edges, out.EdgeMarkers))
	return m
}

func TestReconstruct_CubeRoundTrip(t *testing.T) {
	src := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, Config{})
	m := rebuildFrom(t, src, Config{})

	require.Equal(t, src.NumTets(), m.NumTets())
	require.Equal(t, src.countShells(subface), m.countShells(subface))
	require.Equal(t, src.countShells(subseg), m.countShells(subseg))
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestReconstruct_ThenRefine(t *testing.T) {
	src := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, Config{})
	m := rebuildFrom(t, src, Config{FixedVolume: true, MaxVolume: 0.05})

	before := m.NumTets()
	m.EnforceQuality()

	require.Greater(t, m.NumTets(), before)
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestReconstruct_KeepsAttributesAndMarkers(t *testing.T) {
	regions := []RegionSpec{{Point: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, Attr: 4.5}}
	src := buildPLC(t, cubeCorners(), cubeFacets(), nil, regions, Config{RegionAttrib: true})
	m := rebuildFrom(t, src, Config{})

	m.eachTet(func(tf TetFace) bool {
		attrs := m.tet(tf).attrs
		require.Len(t, attrs, 1)
		require.Equal(t, 4.5, attrs[0])
		return true
	})
	markers := map[int]bool{}
	m.eachShell(subface, func(s ShellEdge) bool {
		markers[m.shell(s).marker] = true
		return true
	})
	for want := 1; want <= 6; want++ {
		require.True(t, markers[want], "facet marker %d lost", want)
	}
}

func TestReconstruct_BadInput(t *testing.T) {
	src := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, Config{})
	out := src.Output(false)

	try := func(tets [][]int, tris [][3]int, edges [][2]int) error {
		m := NewMesh(Config{})
		m.TransferNodes(out.Points, out.PointAttrs, out.PointMarkers)
		return m.Reconstruct(tets, out.TetAttrs, tris, out.FaceMarkers, edges, out.EdgeMarkers)
	}
	copyTets := func() [][]int {
		tets := make([][]int, len(out.Tets))
		for i, el := range out.Tets {
			tets[i] = append([]int(nil), el...)
		}
		return tets
	}

	t.Run("empty element list", func(t *testing.T) {
		require.ErrorIs(t, try(nil, nil, nil), ErrBadElement)
	})
	t.Run("node out of range", func(t *testing.T) {
		tets := copyTets()
		tets[0][1] = len(out.Points)
		require.ErrorIs(t, try(tets, nil, nil), ErrBadElement)
	})
	t.Run("repeated node", func(t *testing.T) {
		tets := copyTets()
		tets[0][1] = tets[0][0]
		require.ErrorIs(t, try(tets, nil, nil), ErrBadElement)
	})
	t.Run("degenerate face", func(t *testing.T) {
		tris := [][3]int{{0, 0, 1}}
		require.ErrorIs(t, try(copyTets(), tris, nil), ErrBadElement)
	})
	t.Run("degenerate edge", func(t *testing.T) {
		edges := [][2]int{{3, 3}}
		require.ErrorIs(t, try(copyTets(), nil, edges), ErrBadElement)
	})
}
