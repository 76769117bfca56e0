// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

// buildPLC runs the constrained pipeline up to and including carving.
func buildPLC(t *testing.T, pts []r3.Vector, facets []FacetPoly, holes []r3.Vector, regions []RegionSpec, cfg Config) *Mesh {
	t.Helper()
	cfg.PLC = true
	m := NewMesh(cfg)
	m.TransferNodes(pts, nil, nil)
	require.NoError(t, m.MeshSurface(facets))
	_, err := m.Delaunize()
	require.NoError(t, err)
	require.NoError(t, m.DelaunizeSegments())
	require.NoError(t, m.ConstrainedFacets())
	m.CarveHoles(holes, regions)
	return m
}

func TestConstrainedPipeline_Cube(t *testing.T) {
	m := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, Config{})

	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())

	// Every subface must be bonded to a tetrahedron on its inner side.
	m.eachShell(subface, func(s ShellEdge) bool {
		bonded := false
		for i := 0; i < 2; i++ {
			if tf := m.shell(s).tet[i]; tf.Tet != outerTet && !m.tets.isDead(tf.Tet) {
				bonded = true
			}
		}
		require.True(t, bonded, "subface %d not attached to the mesh", s.Shell)
		return true
	})
}

func TestConstrainedPipeline_LPrism(t *testing.T) {
	// The L cross-section extruded to height 1: a non-convex domain whose
	// concavity must be carved away.
	base := []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0}, {X: 1, Y: 2, Z: 0}, {X: 0, Y: 2, Z: 0},
	}
	pts := make([]r3.Vector, 0, 12)
	pts = append(pts, base...)
	for _, p := range base {
		pts = append(pts, r3.Vector{X: p.X, Y: p.Y, Z: 1})
	}

	facets := []FacetPoly{
		{Polygons: [][]int{{0, 1, 2, 3, 4, 5}}, Marker: 1},
		{Polygons: [][]int{{6, 7, 8, 9, 10, 11}}, Marker: 2},
	}
	for i := 0; i < 6; i++ {
		j := (i + 1) % 6
		facets = append(facets, FacetPoly{
			Polygons: [][]int{{i, j, j + 6, i + 6}},
			Marker:   3 + i,
		})
	}

	m := buildPLC(t, pts, facets, nil, nil, Config{})

	require.InDelta(t, 3.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestCarveHoles_Cavity(t *testing.T) {
	// A 3x3x3 box with a unit cube cavity in the middle.
	outer := scaleCube(3, r3.Vector{})
	inner := scaleCube(1, r3.Vector{X: 1, Y: 1, Z: 1})
	pts := append(outer, inner...)

	facets := cubeFacets()
	innerSides := [][]int{
		{8, 9, 10, 11}, {12, 13, 14, 15},
		{8, 9, 13, 12}, {9, 10, 14, 13},
		{10, 11, 15, 14}, {11, 8, 12, 15},
	}
	for i, s := range innerSides {
		facets = append(facets, FacetPoly{Polygons: [][]int{s}, Marker: 10 + i})
	}

	hole := []r3.Vector{{X: 1.5, Y: 1.5, Z: 1.5}}
	m := buildPLC(t, pts, facets, hole, nil, Config{})

	require.InDelta(t, 26.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestCarveHoles_RegionAttributes(t *testing.T) {
	regions := []RegionSpec{{Point: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, Attr: 7.5}}
	m := buildPLC(t, cubeCorners(), cubeFacets(), nil, regions, Config{RegionAttrib: true})

	count := 0
	m.eachTet(func(tf TetFace) bool {
		attrs := m.tet(tf).attrs
		require.Len(t, attrs, 1)
		require.Equal(t, 7.5, attrs[0])
		count++
		return true
	})
	require.Positive(t, count)
}

// scaleCube returns the corners of an axis-aligned cube of the given side
// length at the given origin, in the same corner order as cubeCorners.
func scaleCube(side float64, origin r3.Vector) []r3.Vector {
	pts := cubeCorners()
	for i, p := range pts {
		pts[i] = r3.Vector{
			X: origin.X + p.X*side,
			Y: origin.Y + p.Y*side,
			Z: origin.Z + p.Z*side,
		}
	}
	return pts
}
