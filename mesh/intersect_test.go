// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func addTriangle(m *Mesh, a, b, c r3.Vector, marker int) {
	s := m.makeShellFace(subface)
	r := m.shell(s)
	r.vert[0] = m.makePoint(a, InputVertex)
	r.vert[1] = m.makePoint(b, InputVertex)
	r.vert[2] = m.makePoint(c, InputVertex)
	r.marker = marker
}

func TestDetectIntersections(t *testing.T) {
	tests := []struct {
		name    string
		second  [3]r3.Vector
		wantErr bool
	}{
		{
			"disjoint",
			[3]r3.Vector{{X: 0, Y: 0, Z: 5}, {X: 1, Y: 0, Z: 5}, {X: 0, Y: 1, Z: 5}},
			false,
		},
		{
			"piercing",
			[3]r3.Vector{{X: 0.3, Y: 0.3, Z: -1}, {X: 0.3, Y: 0.3, Z: 1}, {X: 2, Y: 2, Z: 1}},
			true,
		},
		{
			"coplanar overlapping",
			[3]r3.Vector{{X: 0.1, Y: 0.1, Z: 0}, {X: 2, Y: 0.1, Z: 0}, {X: 0.1, Y: 2, Z: 0}},
			true,
		},
		{
			"coplanar disjoint",
			[3]r3.Vector{{X: 5, Y: 5, Z: 0}, {X: 6, Y: 5, Z: 0}, {X: 5, Y: 6, Z: 0}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMesh(Config{})
			addTriangle(m,
				r3.Vector{X: 0, Y: 0, Z: 0},
				r3.Vector{X: 1, Y: 0, Z: 0},
				r3.Vector{X: 0, Y: 1, Z: 0}, 1)
			addTriangle(m, tt.second[0], tt.second[1], tt.second[2], 2)

			err := m.DetectIntersections()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFacetsIntersect)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTriTriIntersect_Classification(t *testing.T) {
	m := NewMesh(Config{})
	mk := func(x, y, z float64) int {
		return m.makePoint(r3.Vector{X: x, Y: y, Z: z}, InputVertex)
	}
	a, b, c := mk(0, 0, 0), mk(1, 0, 0), mk(0, 1, 0)
	d := mk(0, 0, 1)
	e, f, g := mk(0, 0, 5), mk(1, 0, 5), mk(0, 1, 5)
	p, q, r := mk(0.3, 0.3, -1), mk(0.3, 0.3, 1), mk(2, 2, 1)

	base := [3]int{a, b, c}
	tests := []struct {
		name  string
		other [3]int
		want  InterResult
	}{
		{"same corners rotated", [3]int{c, a, b}, ShareFace},
		{"common edge", [3]int{a, b, d}, ShareEdge},
		{"common corner", [3]int{a, d, g}, ShareVertex},
		{"far apart", [3]int{e, f, g}, Disjoint},
		{"piercing", [3]int{p, q, r}, Intersect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, m.triTriIntersect(base, tt.other))
		})
	}
}

func TestDetectIntersections_SharedVertexAllowed(t *testing.T) {
	m := NewMesh(Config{})
	a := m.makePoint(r3.Vector{X: 0, Y: 0, Z: 0}, InputVertex)
	b := m.makePoint(r3.Vector{X: 1, Y: 0, Z: 0}, InputVertex)
	c := m.makePoint(r3.Vector{X: 0, Y: 1, Z: 0}, InputVertex)
	d := m.makePoint(r3.Vector{X: 0, Y: 0, Z: 1}, InputVertex)

	s1 := m.makeShellFace(subface)
	m.shell(s1).vert = [3]int{a, b, c}
	s2 := m.makeShellFace(subface)
	m.shell(s2).vert = [3]int{a, b, d}

	require.NoError(t, m.DetectIntersections())
}
