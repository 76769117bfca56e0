// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package tetra

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/2dChan/tetra/utils"
)

func cubeGeometry() *Geometry {
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	sides := [][]int{
		{0, 1, 2, 3}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7},
	}
	g := &Geometry{Points: pts}
	for i, s := range sides {
		g.Facets = append(g.Facets, Facet{Polygons: [][]int{s}, Marker: i + 1})
	}
	return g
}

func tetVolumeOf(g *Geometry, el []int) float64 {
	a := g.Points[el[0]-g.FirstIndex]
	b := g.Points[el[1]-g.FirstIndex]
	c := g.Points[el[2]-g.FirstIndex]
	d := g.Points[el[3]-g.FirstIndex]
	return a.Sub(d).Dot(b.Sub(d).Cross(c.Sub(d))) / 6
}

func meshedVolume(g *Geometry) float64 {
	vol := 0.0
	for _, el := range g.Tets {
		vol += tetVolumeOf(g, el)
	}
	return vol
}

func TestTetrahedralize_PointSet(t *testing.T) {
	in := &Geometry{Points: utils.GenerateRandomPoints(100, 2)}
	out := &Geometry{}
	require.NoError(t, Tetrahedralize(NewBehavior(), in, out))

	require.NotEmpty(t, out.Tets)
	require.Len(t, out.Neighbors, len(out.Tets))
	require.NotEmpty(t, out.TriFaces)
	require.Len(t, out.Points, 100)

	// Neighbor links must be mutual.
	for i, nbrs := range out.Neighbors {
		for _, n := range nbrs {
			if n < 0 {
				continue
			}
			found := false
			for _, back := range out.Neighbors[n] {
				if back == i {
					found = true
				}
			}
			require.True(t, found, "tet %d names neighbor %d without a back link", i, n)
		}
	}
}

func TestTetrahedralize_PLCCube(t *testing.T) {
	out := &Geometry{}
	b := NewBehavior(WithPLC(), WithCheckClosure())
	require.NoError(t, Tetrahedralize(b, cubeGeometry(), out))

	require.InDelta(t, 1.0, meshedVolume(out), 1e-9)
	require.NotEmpty(t, out.TriFaces)
	require.Len(t, out.FaceMarkers, len(out.TriFaces))
	for _, mk := range out.FaceMarkers {
		require.GreaterOrEqual(t, mk, 1)
		require.LessOrEqual(t, mk, 6)
	}
	require.NotEmpty(t, out.Edges)
	require.Len(t, out.EdgeMarkers, len(out.Edges))
}

func TestTetrahedralize_FirstIndexOne(t *testing.T) {
	in := cubeGeometry()
	in.FirstIndex = 1
	for _, f := range in.Facets {
		for _, poly := range f.Polygons {
			for i := range poly {
				poly[i]++
			}
		}
	}
	out := &Geometry{}
	require.NoError(t, Tetrahedralize(NewBehavior(WithPLC()), in, out))

	require.Equal(t, 1, out.FirstIndex)
	for _, el := range out.Tets {
		for _, v := range el {
			require.GreaterOrEqual(t, v, 1)
			require.LessOrEqual(t, v, len(out.Points))
		}
	}
	for _, nbrs := range out.Neighbors {
		for _, n := range nbrs {
			require.GreaterOrEqual(t, n, 0) // 0 marks the boundary under 1-based numbering
		}
	}
	require.InDelta(t, 1.0, meshedVolume(out), 1e-9)
}

func TestTetrahedralize_Order2(t *testing.T) {
	out := &Geometry{}
	b := NewBehavior(WithPLC(), WithOrder(2))
	require.NoError(t, Tetrahedralize(b, cubeGeometry(), out))

	for _, el := range out.Tets {
		require.Len(t, el, 10)
		// Mid-edge nodes sit halfway between their corners; node 4 belongs
		// to the edge between corners 0 and 1.
		mid := out.Points[el[4]]
		a, c := out.Points[el[0]], out.Points[el[1]]
		require.InDelta(t, (a.X+c.X)/2, mid.X, 1e-12)
		require.InDelta(t, (a.Y+c.Y)/2, mid.Y, 1e-12)
		require.InDelta(t, (a.Z+c.Z)/2, mid.Z, 1e-12)
	}
}

func TestTetrahedralize_Quality(t *testing.T) {
	out := &Geometry{}
	b := NewBehavior(WithPLC(), WithQuality(2.0), WithMaxVolume(0.1))
	require.NoError(t, Tetrahedralize(b, cubeGeometry(), out))

	require.Greater(t, out.NumTets(), 10)
	require.InDelta(t, 1.0, meshedVolume(out), 1e-9)
}

func TestTetrahedralize_Refine(t *testing.T) {
	coarse := &Geometry{}
	require.NoError(t, Tetrahedralize(NewBehavior(WithPLC()), cubeGeometry(), coarse))
	before := coarse.NumTets()

	out := &Geometry{}
	b := NewBehavior(WithRefine(), WithMaxVolume(0.05), WithCheckClosure())
	require.NoError(t, Tetrahedralize(b, coarse, out))

	require.Greater(t, out.NumTets(), before)
	require.InDelta(t, 1.0, meshedVolume(out), 1e-9)

	// The boundary markers of the coarse mesh survive the round trip.
	marks := map[int]bool{}
	for _, mk := range out.FaceMarkers {
		marks[mk] = true
	}
	for want := 1; want <= 6; want++ {
		require.True(t, marks[want], "facet marker %d lost in refinement", want)
	}
}

func TestTetrahedralize_RefineWithoutElements(t *testing.T) {
	require.Error(t, Tetrahedralize(NewBehavior(WithRefine()), cubeGeometry(), nil))
}

func TestTetrahedralize_NoBisect(t *testing.T) {
	out := &Geometry{}
	b := NewBehavior(WithPLC(), WithQuality(2.0), WithNoBisect())
	require.NoError(t, Tetrahedralize(b, cubeGeometry(), out))

	// The twelve cube edges must come through unsplit.
	require.Len(t, out.Edges, 12)
	require.InDelta(t, 1.0, meshedVolume(out), 1e-9)
}

func TestTetrahedralize_RegionAttributes(t *testing.T) {
	in := cubeGeometry()
	in.Regions = []Region{{Point: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, Attr: 3.25}}
	out := &Geometry{}
	b := NewBehavior(WithPLC(), WithRegionAttribs())
	require.NoError(t, Tetrahedralize(b, in, out))

	require.Len(t, out.TetAttrs, len(out.Tets))
	for _, attrs := range out.TetAttrs {
		require.Equal(t, []float64{3.25}, attrs)
	}
}

func TestTetrahedralize_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *Behavior
		in   *Geometry
	}{
		{"nil geometry", NewBehavior(), nil},
		{"bad first index", NewBehavior(), &Geometry{FirstIndex: 2}},
		{
			"facet index out of range",
			NewBehavior(WithPLC()),
			&Geometry{
				Points: []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
				Facets: []Facet{{Polygons: [][]int{{0, 1, 7}}}},
			},
		},
		{
			"too few points",
			NewBehavior(),
			&Geometry{Points: []r3.Vector{{X: 0, Y: 0, Z: 0}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, Tetrahedralize(tt.b, tt.in, &Geometry{}))
		})
	}
}

func TestTetrahedralize_NilOutput(t *testing.T) {
	in := &Geometry{Points: utils.GenerateRandomPoints(20, 4)}
	require.NoError(t, Tetrahedralize(NewBehavior(), in, nil))
}

func TestGeometry_Views(t *testing.T) {
	out := &Geometry{}
	require.NoError(t, Tetrahedralize(NewBehavior(WithPLC()), cubeGeometry(), out))

	tv, err := out.Tet(0)
	require.NoError(t, err)
	require.Equal(t, 0, tv.Index())
	require.Len(t, tv.NodeIndices(), 4)
	_, err = tv.Corner(4)
	require.Error(t, err)
	_, err = out.Tet(out.NumTets())
	require.Error(t, err)

	fv, err := out.TriFace(0)
	require.NoError(t, err)
	require.NotZero(t, fv.Marker())
	_, err = fv.Vertex(3)
	require.Error(t, err)
	_, err = out.TriFace(-1)
	require.Error(t, err)
}

func TestBehaviorOptions_Panics(t *testing.T) {
	tests := []struct {
		name string
		call func()
	}{
		{"WithEps zero", func() { WithEps(0) }},
		{"WithQuality negative", func() { WithQuality(-1) }},
		{"WithMaxVolume zero", func() { WithMaxVolume(0) }},
		{"WithOrder three", func() { WithOrder(3) }},
		{"WithSliverRemoval out of range", func() { WithSliverRemoval(181) }},
		{"WithLogger nil", func() { WithLogger(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()
			tt.call()
		})
	}
}
