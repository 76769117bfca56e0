// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// Config carries the switches the engine consumes. The zero value is a plain
// unconstrained Delaunay tetrahedralization.
type Config struct {
	PLC          bool
	Quality      bool
	MinRatio     float64 // radius-edge bound; quality meshing targets ratio <= sqrt(MinRatio)
	VarVolume    bool
	FixedVolume  bool
	MaxVolume    float64
	RemoveSliver bool
	MaxDihedral  float64 // degrees; tetrahedra with a larger dihedral are slivers
	RegionAttrib bool
	Epsilon      float64
	NoMerge      bool
	DetectInter  bool
	CheckClosure bool
	Order        int
	NoBisect     bool
	Verbose      bool

	// SteinerFactor bounds refinement: at most SteinerFactor times the
	// input point count of Steiner points are inserted before the engine
	// reports non-convergence. Zero means the default.
	SteinerFactor int

	Logger *slog.Logger
}

const defaultSteinerFactor = 8

// Mesh owns one tetrahedralization for the duration of a run. It is not safe
// for concurrent use; every operation runs to completion before the next.
type Mesh struct {
	cfg Config
	log *slog.Logger

	tets   arena[tetRecord]
	shells arena[shellRecord]
	points arena[pointRecord]

	// recent seeds point location with the most recently visited tetrahedron.
	recent TetFace
	rng    *rand.Rand

	xmin, xmax, ymin, ymax, zmin, zmax float64
	longest                            float64

	hullSize      int
	inSegments    int
	checkSubfaces bool
	nonconvex     bool

	// liftPoints holds one point above each input facet's plane, used to
	// orient the facet's own two-dimensional triangulation.
	liftPoints []r3.Vector

	// protectRadius maps an acute vertex to the radius of its protecting
	// sphere.
	protectRadius map[int]float64

	flipLog []flipRecord
	flip23s, flip32s, flip22s, flip44s int

	// Unconverged lists tetrahedra still violating the quality bound when
	// refinement hit its iteration budget, and slivers that could not be
	// repaired.
	Unconverged []TetFace
}

// NewMesh returns an empty mesh with the sentinel elements in place.
func NewMesh(cfg Config) *Mesh {
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 1e-8
	}
	if cfg.MinRatio == 0 {
		cfg.MinRatio = 2.0
	}
	if cfg.SteinerFactor == 0 {
		cfg.SteinerFactor = defaultSteinerFactor
	}
	if cfg.Order == 0 {
		cfg.Order = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	m := &Mesh{
		cfg:           cfg,
		log:           log,
		rng:           rand.New(rand.NewSource(1)),
		protectRadius: map[int]float64{},
	}
	// Slot 0 of each arena is the sentinel: the tetrahedron occupying outer
	// space and the vacuous shellface. Their zero-valued adjacency makes a
	// fresh record fully disconnected by construction.
	i, t := m.tets.alloc()
	if i != outerTet {
		panic("mesh: sentinel tetrahedron not at slot 0")
	}
	t.corner = [4]int{noPoint, noPoint, noPoint, noPoint}
	j, s := m.shells.alloc()
	if j != vacuousShell {
		panic("mesh: sentinel shellface not at slot 0")
	}
	s.vert = [3]int{noPoint, noPoint, noPoint}
	return m
}

// Verbose reports whether per-phase logging is enabled.
func (m *Mesh) Verbose() bool { return m.cfg.Verbose }

// NumPoints returns the number of live points.
func (m *Mesh) NumPoints() int { return m.points.liveCount() }

// NumTets returns the number of live tetrahedra, excluding the sentinel.
func (m *Mesh) NumTets() int { return m.tets.liveCount() - 1 }

// HullSize returns the number of convex hull faces.
func (m *Mesh) HullSize() int { return m.hullSize }

// makeTetrahedron allocates a fresh, disconnected tetrahedron.
func (m *Mesh) makeTetrahedron() TetFace {
	i, t := m.tets.alloc()
	t.corner = [4]int{noPoint, noPoint, noPoint, noPoint}
	t.volume = -1
	return TetFace{Tet: i}
}

// makeShellFace allocates a fresh subface or subsegment.
func (m *Mesh) makeShellFace(kind shellKind) ShellEdge {
	i, s := m.shells.alloc()
	s.kind = kind
	s.vert = [3]int{noPoint, noPoint, noPoint}
	return ShellEdge{Shell: i}
}

// makePoint allocates a point. Points are recycled, never freed mid-run.
func (m *Mesh) makePoint(pos r3.Vector, kind VertexKind) int {
	i, p := m.points.alloc()
	p.pos = pos
	p.kind = kind
	p.tet = outerTet
	p.ppt = noPoint
	return i
}

func (m *Mesh) killTetrahedron(t TetFace) {
	m.tets.dealloc(t.Tet)
}

func (m *Mesh) killShellFace(s ShellEdge) {
	m.shells.dealloc(s.Shell)
}

func (m *Mesh) killPoint(p int) {
	m.point(p).kind = DeadVertex
	m.points.dealloc(p)
}

// eachTet visits every live tetrahedron except the sentinel.
func (m *Mesh) eachTet(f func(TetFace) bool) {
	for i := 1; i < m.tets.len(); i++ {
		if m.tets.isDead(i) {
			continue
		}
		if !f(TetFace{Tet: i}) {
			return
		}
	}
}

// eachShell visits every live shellface of the given kind.
func (m *Mesh) eachShell(kind shellKind, f func(ShellEdge) bool) {
	for i := 1; i < m.shells.len(); i++ {
		if m.shells.isDead(i) || m.shells.at(i).kind != kind {
			continue
		}
		if !f(ShellEdge{Shell: i}) {
			return
		}
	}
}

// eachPoint visits every live point.
func (m *Mesh) eachPoint(f func(int) bool) {
	for i := 0; i < m.points.len(); i++ {
		if m.points.isDead(i) {
			continue
		}
		if !f(i) {
			return
		}
	}
}

// TransferNodes copies the input points into the point pool and sets up the
// bounding box. Attributes and markers ride along unchanged.
func (m *Mesh) TransferNodes(pts []r3.Vector, attrs [][]float64, markers []int) {
	m.xmin, m.ymin, m.zmin = math.Inf(1), math.Inf(1), math.Inf(1)
	m.xmax, m.ymax, m.zmax = math.Inf(-1), math.Inf(-1), math.Inf(-1)
	for i, pos := range pts {
		p := m.makePoint(pos, InputVertex)
		if attrs != nil {
			m.point(p).attrs = attrs[i]
		}
		if markers != nil {
			m.point(p).marker = markers[i]
		}
		m.xmin = math.Min(m.xmin, pos.X)
		m.xmax = math.Max(m.xmax, pos.X)
		m.ymin = math.Min(m.ymin, pos.Y)
		m.ymax = math.Max(m.ymax, pos.Y)
		m.zmin = math.Min(m.zmin, pos.Z)
		m.zmax = math.Max(m.zmax, pos.Z)
	}
	dx := m.xmax - m.xmin
	dy := m.ymax - m.ymin
	dz := m.zmax - m.zmin
	m.longest = math.Sqrt(dx*dx + dy*dy + dz*dz)
	if m.longest == 0 {
		m.longest = 1
	}
}

// makePoint2TetMap points every vertex at one incident live tetrahedron, so
// later locates start near their target.
func (m *Mesh) makePoint2TetMap() {
	m.eachTet(func(t TetFace) bool {
		for _, c := range m.tet(t).corner {
			if c != noPoint {
				m.setPoint2tet(c, t.Tet)
			}
		}
		return true
	})
}

// Statistics logs pool and flip counters through the configured logger.
func (m *Mesh) Statistics() {
	m.log.Info("mesh statistics",
		"points", m.NumPoints(),
		"tetrahedra", m.NumTets(),
		"subfaces", m.countShells(subface),
		"subsegments", m.countShells(subseg),
		"hull faces", m.hullSize,
		"flip23", m.flip23s,
		"flip32", m.flip32s,
		"flip22", m.flip22s,
		"flip44", m.flip44s,
	)
}

func (m *Mesh) countShells(kind shellKind) int {
	n := 0
	m.eachShell(kind, func(ShellEdge) bool { n++; return true })
	return n
}

// randomNation returns a uniform value in [0, choices), with the same
// deterministic stream for a given mesh instance.
func (m *Mesh) randomNation(choices int) int {
	if choices <= 0 {
		return 0
	}
	return m.rng.Intn(choices)
}
