// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package tetra

import (
	"errors"
	"fmt"

	"github.com/2dChan/tetra/mesh"
)

var (
	// ErrNoGeometry is returned when the input geometry is missing.
	ErrNoGeometry = errors.New("tetra: nil input geometry")
	// ErrBadIndex is returned when an input index array refers outside the
	// point list.
	ErrBadIndex = errors.New("tetra: point index out of range")
)

// Tetrahedralize meshes the domain described by in according to b and
// fills the output arrays of out. When out is nil the mesh is discarded
// after its statistics are logged. in and out may be the same Geometry.
func Tetrahedralize(b *Behavior, in, out *Geometry) error {
	if b == nil {
		b = NewBehavior()
	}
	if in == nil {
		return ErrNoGeometry
	}
	if in.FirstIndex != 0 && in.FirstIndex != 1 {
		return fmt.Errorf("tetra: FirstIndex must be 0 or 1, got %d", in.FirstIndex)
	}

	if b.Refine && len(in.Tets) == 0 {
		return fmt.Errorf("tetra: refinement requested but the input has no elements")
	}

	m := mesh.NewMesh(b.config())
	m.TransferNodes(in.Points, in.PointAttrs, in.PointMarkers)

	if b.Refine {
		els, tris, eds, err := convertElements(in)
		if err != nil {
			return err
		}
		if err := m.Reconstruct(els, in.TetAttrs, tris, in.FaceMarkers, eds, in.EdgeMarkers); err != nil {
			return err
		}
	} else {
		if b.PLC {
			facets, err := convertFacets(in)
			if err != nil {
				return err
			}
			if err := m.MeshSurface(facets); err != nil {
				return err
			}
			if b.DetectIntersections {
				if err := m.DetectIntersections(); err != nil {
					return err
				}
			}
		}

		if _, err := m.Delaunize(); err != nil {
			return err
		}
		if len(in.InsertPoints) > 0 {
			m.InsertAdditional(in.InsertPoints)
		}

		if b.PLC {
			if err := m.DelaunizeSegments(); err != nil {
				return err
			}
			if err := m.ConstrainedFacets(); err != nil {
				return err
			}
			regions := make([]mesh.RegionSpec, len(in.Regions))
			for i, r := range in.Regions {
				regions[i] = mesh.RegionSpec{Point: r.Point, Attr: r.Attr, Volume: r.MaxVolume}
			}
			m.CarveHoles(in.Holes, regions)
		}
	}

	if b.Quality || b.FixedVolume || b.VarVolume || b.RemoveSliver {
		m.EnforceQuality()
	}

	if b.CheckClosure {
		horrors := m.CheckMesh() + m.CheckDelaunay()
		if b.PLC || b.Refine {
			horrors += m.CheckShells()
		}
		if horrors > 0 {
			panic(fmt.Sprintf("tetra: mesh failed self-check with %d defects", horrors))
		}
	}

	if b.Verbose || out == nil {
		m.Statistics()
	}
	if out != nil {
		assembleOutput(m, b, in.FirstIndex, out)
	}
	return nil
}

// convertFacets rebases the facet polygons to zero based indices.
func convertFacets(in *Geometry) ([]mesh.FacetPoly, error) {
	facets := make([]mesh.FacetPoly, len(in.Facets))
	for i, f := range in.Facets {
		polys := make([][]int, len(f.Polygons))
		for j, poly := range f.Polygons {
			p := make([]int, len(poly))
			for k, v := range poly {
				v -= in.FirstIndex
				if v < 0 || v >= len(in.Points) {
					return nil, fmt.Errorf("%w: facet %d vertex %d", ErrBadIndex, i, poly[k])
				}
				p[k] = v
			}
			polys[j] = p
		}
		facets[i] = mesh.FacetPoly{Polygons: polys, Holes: f.Holes, Marker: f.Marker}
	}
	return facets, nil
}

// convertElements rebases the element, face and edge arrays of a mesh to
// be refined to zero based indices.
func convertElements(in *Geometry) ([][]int, [][3]int, [][2]int, error) {
	rebase := func(v, i int, what string) (int, error) {
		v -= in.FirstIndex
		if v < 0 || v >= len(in.Points) {
			return 0, fmt.Errorf("%w: %s %d vertex %d", ErrBadIndex, what, i, v+in.FirstIndex)
		}
		return v, nil
	}

	els := make([][]int, len(in.Tets))
	for i, el := range in.Tets {
		e := make([]int, len(el))
		for j, v := range el {
			w, err := rebase(v, i, "element")
			if err != nil {
				return nil, nil, nil, err
			}
			e[j] = w
		}
		els[i] = e
	}
	tris := make([][3]int, len(in.TriFaces))
	for i, tri := range in.TriFaces {
		for j, v := range tri {
			w, err := rebase(v, i, "face")
			if err != nil {
				return nil, nil, nil, err
			}
			tris[i][j] = w
		}
	}
	eds := make([][2]int, len(in.Edges))
	for i, ed := range in.Edges {
		for j, v := range ed {
			w, err := rebase(v, i, "edge")
			if err != nil {
				return nil, nil, nil, err
			}
			eds[i][j] = w
		}
	}
	return els, tris, eds, nil
}

// assembleOutput copies the mesh arrays into out, rebasing indices to
// firstIndex.
func assembleOutput(m *mesh.Mesh, b *Behavior, firstIndex int, out *Geometry) {
	mo := m.Output(b.Order == 2)

	out.FirstIndex = firstIndex
	out.Points = mo.Points
	out.PointAttrs = mo.PointAttrs
	out.PointMarkers = mo.PointMarkers

	out.Tets = mo.Tets
	out.TetAttrs = mo.TetAttrs
	out.Neighbors = mo.Neighbors
	out.TriFaces = mo.TriFaces
	out.FaceMarkers = mo.FaceMarkers
	out.Edges = mo.Edges
	out.EdgeMarkers = mo.EdgeMarkers

	if firstIndex == 0 {
		return
	}
	for _, el := range out.Tets {
		for i := range el {
			el[i] += firstIndex
		}
	}
	for i := range out.Neighbors {
		for j := range out.Neighbors[i] {
			out.Neighbors[i][j] += firstIndex
		}
	}
	for i := range out.TriFaces {
		for j := range out.TriFaces[i] {
			out.TriFaces[i][j] += firstIndex
		}
	}
	for i := range out.Edges {
		for j := range out.Edges[i] {
			out.Edges[i][j] += firstIndex
		}
	}
}
