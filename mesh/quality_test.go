// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func TestEnforceQuality_CubeRatioBound(t *testing.T) {
	cfg := Config{Quality: true, MinRatio: 2.0}
	m := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, cfg)
	m.EnforceQuality()

	// Refinement may give up on some tetrahedra near the budget; the bound
	// must hold for everything it did not report.
	unconverged := map[int]bool{}
	for _, tf := range m.Unconverged {
		unconverged[tf.Tet] = true
	}
	m.eachTet(func(tf TetFace) bool {
		if unconverged[tf.Tet] {
			return true
		}
		c := m.tet(tf).corner
		ratio, _ := radiusEdgeRatio(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]))
		require.LessOrEqual(t, ratio*ratio, 2.0+1e-9,
			"tetrahedron %d has squared radius-edge ratio %v", tf.Tet, ratio*ratio)
		return true
	})
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestEnforceQuality_VolumeBound(t *testing.T) {
	cfg := Config{FixedVolume: true, MaxVolume: 0.05}
	m := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, cfg)
	before := m.NumTets()
	m.EnforceQuality()

	require.Greater(t, m.NumTets(), before)
	unconverged := map[int]bool{}
	for _, tf := range m.Unconverged {
		unconverged[tf.Tet] = true
	}
	m.eachTet(func(tf TetFace) bool {
		if unconverged[tf.Tet] {
			return true
		}
		c := m.tet(tf).corner
		vol := tetVolume(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]))
		require.LessOrEqual(t, vol, 0.05+1e-9)
		return true
	})
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
}

func TestEnforceQuality_NoBisectKeepsBoundary(t *testing.T) {
	cfg := Config{FixedVolume: true, MaxVolume: 0.02, NoBisect: true}
	m := buildPLC(t, cubeCorners(), cubeFacets(), nil, nil, cfg)
	segsBefore := m.countShells(subseg)
	subsBefore := m.countShells(subface)
	m.EnforceQuality()

	// The boundary must come through untouched: no subsegment or subface
	// split, no vertex inserted on either.
	require.Equal(t, segsBefore, m.countShells(subseg))
	require.Equal(t, subsBefore, m.countShells(subface))
	m.eachPoint(func(p int) bool {
		k := m.pointKind(p)
		require.NotEqual(t, FreeSegVertex, k, "segment split at vertex %d", p)
		require.NotEqual(t, FreeSubVertex, k, "subface split at vertex %d", p)
		return true
	})
	require.InDelta(t, 1.0, totalVolume(m), 1e-9)
	require.Zero(t, m.CheckMesh())
	require.Zero(t, m.CheckShells())
}

func TestSliverAngle_DetectsFlatTetrahedron(t *testing.T) {
	m := NewMesh(Config{})
	flat := []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 1e-8}, {X: 0, Y: 1, Z: -1e-8},
	}
	regular := []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0.5, Y: math.Sqrt(3) / 2, Z: 0},
		{X: 0.5, Y: math.Sqrt(3) / 6, Z: math.Sqrt(2.0 / 3.0)},
	}
	mk := func(pts []r3.Vector) TetFace {
		var ids [4]int
		for i, p := range pts {
			ids[i] = m.makePoint(p, InputVertex)
		}
		tet := m.makeTetrahedron()
		m.tet(tet).corner = m.orientedQuad(ids[0], ids[1], ids[2], ids[3])
		return tet
	}

	limit := 175 * math.Pi / 180
	require.Greater(t, m.sliverAngle(mk(flat)), limit)
	require.Less(t, m.sliverAngle(mk(regular)), limit)
}

func TestEncSubKindOf_Buckets(t *testing.T) {
	m := NewMesh(Config{})
	mkPoint := func(kind VertexKind) int {
		return m.makePoint(r3.Vector{}, kind)
	}
	mkSub := func(kinds [3]VertexKind, hasSeg bool, seg SegKind) ShellEdge {
		s := m.makeShellFace(subface)
		for i, k := range kinds {
			m.shell(s).vert[i] = mkPoint(k)
		}
		if hasSeg {
			sg := m.makeShellFace(subseg)
			r := m.shell(sg)
			r.vert[0] = m.shell(s).vert[0]
			r.vert[1] = m.shell(s).vert[1]
			r.segKind = seg
			m.ssbond(ShellEdge{Shell: s.Shell}, sg)
		}
		return s
	}

	in := NonAcuteVertex
	tests := []struct {
		name   string
		kinds  [3]VertexKind
		hasSeg bool
		seg    SegKind
		want   EncSubKind
	}{
		{"acute vertex and sharp segment", [3]VertexKind{AcuteVertex, in, in}, true, SharpSeg, AcuteVSharpS},
		{"acute vertex only", [3]VertexKind{AcuteVertex, in, in}, true, NonSharpSeg, AcuteV},
		{"sharp segment with free vertex", [3]VertexKind{FreeSegVertex, in, in}, true, SharpSeg, FSVSharpS},
		{"sharp segment only", [3]VertexKind{in, in, in}, true, SharpSeg, SharpS},
		{"free segment vertex only", [3]VertexKind{FreeSegVertex, in, in}, false, NonSharpSeg, NAVSharpS},
		{"nothing special", [3]VertexKind{in, in, in}, false, NonSharpSeg, NAVNSharpS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mkSub(tt.kinds, tt.hasSeg, tt.seg)
			require.Equal(t, tt.want, m.encSubKindOf(s))
		})
	}
}

func TestProtectSubSplit_MovesCenterOntoSphere(t *testing.T) {
	m := NewMesh(Config{})
	a := m.makePoint(r3.Vector{}, AcuteVertex)
	b := m.makePoint(r3.Vector{X: 1}, NonAcuteVertex)
	c := m.makePoint(r3.Vector{Y: 1}, NonAcuteVertex)
	m.protectRadius[a] = 0.5
	s := m.makeShellFace(subface)
	m.shell(s).vert = [3]int{a, b, c}
	r := m.shell(s)

	// A split point inside the protecting sphere moves out onto it along
	// the ray from the acute corner.
	inside := r3.Vector{X: 0.1, Y: 0.1}
	moved := m.protectSubSplit(r, inside)
	require.InDelta(t, 0.5, moved.Norm(), 1e-12)
	require.InDelta(t, 0, moved.Cross(inside).Norm(), 1e-12)

	// Outside the sphere nothing changes.
	outside := r3.Vector{X: 1, Y: 1}
	require.Equal(t, outside, m.protectSubSplit(r, outside))
}

func TestInDiametralSphere(t *testing.T) {
	m := NewMesh(Config{})
	a := m.makePoint(r3.Vector{X: 0, Y: 0, Z: 0}, InputVertex)
	b := m.makePoint(r3.Vector{X: 2, Y: 0, Z: 0}, InputVertex)

	inside := m.makePoint(r3.Vector{X: 1, Y: 0.5, Z: 0}, InputVertex)
	outside := m.makePoint(r3.Vector{X: 1, Y: 1.5, Z: 0}, InputVertex)
	onSphere := m.makePoint(r3.Vector{X: 1, Y: 1, Z: 0}, InputVertex)

	require.True(t, m.inDiametralSphere(a, b, inside))
	require.False(t, m.inDiametralSphere(a, b, outside))
	require.False(t, m.inDiametralSphere(a, b, onSphere))
}
