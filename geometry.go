// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package tetra generates tetrahedral meshes of three-dimensional domains:
// Delaunay tetrahedralizations of point sets, constrained Delaunay
// tetrahedralizations of piecewise linear complexes, and quality meshes
// satisfying a radius-edge ratio bound.
package tetra

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Facet is one planar boundary face of a piecewise linear complex, given
// as one or more closed polygons over point indices, with optional holes
// inside the facet's plane.
type Facet struct {
	Polygons [][]int
	Holes    []r3.Vector
	Marker   int
}

// Region marks a subdomain by an interior point, carrying a regional
// attribute and an optional volume constraint for the tetrahedra inside.
type Region struct {
	Point     r3.Vector
	Attr      float64
	MaxVolume float64
}

// Geometry is the input and output exchange structure. On input, Points
// and optionally Facets, Holes, and Regions describe the domain; on
// output, the mesh arrays are filled in. All index arrays honor
// FirstIndex (0 or 1).
type Geometry struct {
	FirstIndex int

	Points       []r3.Vector
	PointAttrs   [][]float64
	PointMarkers []int

	Facets  []Facet
	Holes   []r3.Vector
	Regions []Region

	// InsertPoints are additional points inserted after the initial
	// tetrahedralization is built.
	InsertPoints []r3.Vector

	// Tets holds 4 point indices per tetrahedron, or 10 for order-2
	// meshes (4 corners followed by 6 mid-edge nodes).
	Tets     [][]int
	TetAttrs [][]float64

	// Neighbors lists the tetrahedron across each of the four faces,
	// FirstIndex-1 on the boundary.
	Neighbors [][4]int

	TriFaces    [][3]int
	FaceMarkers []int

	Edges       [][2]int
	EdgeMarkers []int
}

// NumTets returns the number of tetrahedra in the output mesh.
func (g *Geometry) NumTets() int {
	return len(g.Tets)
}

// NumTriFaces returns the number of boundary triangles in the output mesh.
func (g *Geometry) NumTriFaces() int {
	return len(g.TriFaces)
}

// Tet returns a view of the tetrahedron at the specified index.
// It returns an error if the index is out of range.
func (g *Geometry) Tet(i int) (TetView, error) {
	if i < 0 || i >= len(g.Tets) {
		return TetView{}, fmt.Errorf("Tet: index %d out of range [0 %d)", i, len(g.Tets))
	}
	return TetView{idx: i, g: g}, nil
}

// TriFace returns a view of the boundary triangle at the specified index.
// It returns an error if the index is out of range.
func (g *Geometry) TriFace(i int) (FaceView, error) {
	if i < 0 || i >= len(g.TriFaces) {
		return FaceView{}, fmt.Errorf("TriFace: index %d out of range [0 %d)", i, len(g.TriFaces))
	}
	return FaceView{idx: i, g: g}, nil
}

// TetView is a view structure for accessing one tetrahedron of a Geometry.
type TetView struct {
	idx int
	g   *Geometry
}

// Index returns the tetrahedron's index in the Geometry's Tets.
func (t TetView) Index() int {
	return t.idx
}

// NodeIndices returns the point indices of the tetrahedron, 4 corners
// first, mid-edge nodes after for order-2 meshes.
func (t TetView) NodeIndices() []int {
	return t.g.Tets[t.idx]
}

// Corner returns the coordinates of the corner at the specified index.
// It returns an error if the index is out of range.
func (t TetView) Corner(i int) (r3.Vector, error) {
	if i < 0 || i >= 4 {
		return r3.Vector{}, fmt.Errorf("Corner: index %d out of range [0 4)", i)
	}
	return t.g.Points[t.g.Tets[t.idx][i]-t.g.FirstIndex], nil
}

// Attrs returns the tetrahedron's attributes, nil when none were assigned.
func (t TetView) Attrs() []float64 {
	if t.g.TetAttrs == nil {
		return nil
	}
	return t.g.TetAttrs[t.idx]
}

// Neighbor returns the view of the tetrahedron across the specified face,
// and false when that face lies on the boundary.
// It returns an error if the index is out of range.
func (t TetView) Neighbor(i int) (TetView, bool, error) {
	if i < 0 || i >= 4 {
		return TetView{}, false, fmt.Errorf("Neighbor: index %d out of range [0 4)", i)
	}
	n := t.g.Neighbors[t.idx][i] - t.g.FirstIndex
	if n < 0 {
		return TetView{}, false, nil
	}
	return TetView{idx: n, g: t.g}, true, nil
}

// FaceView is a view structure for accessing one boundary triangle of a
// Geometry.
type FaceView struct {
	idx int
	g   *Geometry
}

// Index returns the triangle's index in the Geometry's TriFaces.
func (f FaceView) Index() int {
	return f.idx
}

// NodeIndices returns the three point indices of the triangle.
func (f FaceView) NodeIndices() [3]int {
	return f.g.TriFaces[f.idx]
}

// Vertex returns the coordinates of the vertex at the specified index.
// It returns an error if the index is out of range.
func (f FaceView) Vertex(i int) (r3.Vector, error) {
	if i < 0 || i >= 3 {
		return r3.Vector{}, fmt.Errorf("Vertex: index %d out of range [0 3)", i)
	}
	return f.g.Points[f.g.TriFaces[f.idx][i]-f.g.FirstIndex], nil
}

// Marker returns the boundary marker of the triangle's facet.
func (f FaceView) Marker() int {
	if f.g.FaceMarkers == nil {
		return 0
	}
	return f.g.FaceMarkers[f.idx]
}
