// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"container/heap"
	"math"

	"github.com/golang/geo/r3"
)

// badTet is a heap entry for a tetrahedron violating the quality bound. The
// corners snapshot revalidates the entry, since refinement rewrites the
// mesh under the heap.
type badTet struct {
	t       TetFace
	corners [4]int
	ratio   float64
}

// badTetHeap pops the worst radius-edge ratio first.
type badTetHeap []badTet

func (h badTetHeap) Len() int            { return len(h) }
func (h badTetHeap) Less(i, j int) bool  { return h[i].ratio > h[j].ratio }
func (h badTetHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *badTetHeap) Push(x any)         { *h = append(*h, x.(badTet)) }
func (h *badTetHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// markSharpSegments classifies every subsegment by the dihedral angle of
// the facets meeting at it. Splitting a sharp segment uses ball-boundary
// points, so refinement cannot cascade into the wedge.
func (m *Mesh) markSharpSegments() {
	m.eachShell(subseg, func(seg ShellEdge) bool {
		r := m.shell(seg)
		a, b := r.vert[0], r.vert[1]
		var apexes []int
		start := m.segToSub(seg)
		if start.Shell == vacuousShell {
			r.segKind = NonSharpSeg
			return true
		}
		cur := start
		for i := 0; i < 1024; i++ {
			apexes = append(apexes, m.subApexAgainst(cur, a, b))
			next := m.spivot(cur)
			if next.Shell == vacuousShell || next.Shell == start.Shell {
				break
			}
			m.findShellEdge(&next, a, b)
			cur = next
		}
		r.segKind = NonSharpSeg
		for i := 0; i < len(apexes) && r.segKind == NonSharpSeg; i++ {
			for j := i + 1; j < len(apexes); j++ {
				d := faceDihedral(m.pt(a), m.pt(b), m.pt(apexes[i]), m.pt(apexes[j]))
				if d < math.Pi/2 {
					r.segKind = SharpSeg
					break
				}
			}
		}
		return true
	})
}

// segEncroached reports whether any mesh vertex lies inside the diametral
// sphere of subsegment seg, returning one offender. Only vertices in the
// edge's star can encroach without the edge being non-Delaunay first.
func (m *Mesh) segEncroached(seg ShellEdge) (int, bool) {
	r := m.shell(seg)
	a, b := r.vert[0], r.vert[1]
	t, ok := m.findTetEdge(a, b)
	if !ok {
		return noPoint, false
	}
	for _, rt := range m.fullEdgeStar(t) {
		for _, v := range m.tet(rt).corner {
			if v == a || v == b || v == noPoint {
				continue
			}
			if m.inDiametralSphere(a, b, v) {
				return v, true
			}
		}
	}
	return noPoint, false
}

func (m *Mesh) inDiametralSphere(a, b, e int) bool {
	pe := m.pt(e)
	return m.pt(a).Sub(pe).Dot(m.pt(b).Sub(pe)) < 0
}

// subEncroached reports whether a vertex lies inside the equatorial sphere
// of subface s. The only candidates are the apexes of its two tetrahedra.
func (m *Mesh) subEncroached(s ShellEdge) (int, bool) {
	r := m.shell(s)
	c, radius, ok := circumsphere(m.pt(r.vert[0]), m.pt(r.vert[1]), m.pt(r.vert[2]), m.pt(r.vert[0]), true)
	if !ok {
		return noPoint, false
	}
	for i := 0; i < 2; i++ {
		t := r.tet[i]
		if t.Tet == outerTet || m.tets.isDead(t.Tet) {
			continue
		}
		e := m.oppo(TetFace{Tet: t.Tet, Loc: t.Loc})
		if e == noPoint {
			continue
		}
		if m.pt(e).Sub(c).Norm() < radius {
			return e, true
		}
	}
	return noPoint, false
}

// encSubKindOf buckets an encroached subface by its hardest feature.
func (m *Mesh) encSubKindOf(s ShellEdge) EncSubKind {
	r := m.shell(s)
	acute, freeSeg := false, false
	for _, v := range r.vert {
		switch m.pointKind(v) {
		case AcuteVertex:
			acute = true
		case FreeSegVertex:
			freeSeg = true
		}
	}
	sharp := false
	for _, ver := range []int8{0, 2, 4} {
		seg := m.sspivot(ShellEdge{Shell: s.Shell, Ver: ver})
		if seg.Shell != vacuousShell && !m.isDeadShell(seg) && m.segKind(seg) == SharpSeg {
			sharp = true
			break
		}
	}
	switch {
	case acute && sharp:
		return AcuteVSharpS
	case acute:
		return AcuteV
	case sharp && freeSeg:
		return FSVSharpS
	case sharp:
		return SharpS
	case freeSeg:
		return NAVSharpS
	default:
		return NAVNSharpS
	}
}

// refiner carries the work queues of one EnforceQuality run.
type refiner struct {
	segs   []ShellEdge
	subs   [6][]ShellEdge
	tets   badTetHeap
	budget int
	added  int
}

func (m *Mesh) queueEncSeg(rf *refiner, seg ShellEdge) {
	rf.segs = append(rf.segs, seg)
}

func (m *Mesh) queueEncSub(rf *refiner, s ShellEdge) {
	k := m.encSubKindOf(s)
	rf.subs[k] = append(rf.subs[k], s)
}

func (rf *refiner) popEncSub() (ShellEdge, bool) {
	for k := range rf.subs {
		if n := len(rf.subs[k]); n > 0 {
			s := rf.subs[k][n-1]
			rf.subs[k] = rf.subs[k][:n-1]
			return s, true
		}
	}
	return ShellEdge{}, false
}

// EnforceQuality drives Delaunay refinement: split encroached subsegments,
// then encroached subfaces, then insert circumcenters of skinny tetrahedra,
// deferring any center that would encroach the boundary. Tetrahedra still
// bad when the Steiner budget runs out are reported in Unconverged, as are
// unremovable slivers.
func (m *Mesh) EnforceQuality() {
	rf := &refiner{budget: m.steinerBudget()}

	// NoBisect keeps the boundary untouched: no encroachment splitting, and
	// splitBadTets gives up on any center that would land on or encroach a
	// boundary feature.
	if m.checkSubfaces && !m.cfg.NoBisect {
		m.markSharpSegments()
		m.eachShell(subseg, func(seg ShellEdge) bool {
			if _, enc := m.segEncroached(seg); enc {
				m.queueEncSeg(rf, seg)
			}
			return true
		})
		m.splitEncSegs(rf)
		m.eachShell(subface, func(s ShellEdge) bool {
			if _, enc := m.subEncroached(s); enc {
				m.queueEncSub(rf, s)
			}
			return true
		})
		m.splitEncSubs(rf)
	}

	m.eachTet(func(t TetFace) bool {
		if bad, ratio := m.tetIsBad(t); bad {
			heap.Push(&rf.tets, badTet{t: t, corners: m.tet(t).corner, ratio: ratio})
		}
		return true
	})
	m.splitBadTets(rf)

	if m.cfg.RemoveSliver {
		m.removeSlivers()
	}
	if m.Verbose() {
		m.log.Info("quality refinement done",
			"steiner points", rf.added,
			"tetrahedra", m.NumTets(),
			"unconverged", len(m.Unconverged))
	}
}

// tetIsBad applies the radius-edge and volume criteria.
func (m *Mesh) tetIsBad(t TetFace) (bool, float64) {
	rec := m.tet(t)
	ratio, _ := radiusEdgeRatio(m.pt(rec.corner[0]), m.pt(rec.corner[1]), m.pt(rec.corner[2]), m.pt(rec.corner[3]))
	if math.IsInf(ratio, 1) {
		return false, 0 // degenerate, left to the sliver pass
	}
	// MinRatio bounds the squared ratio, matching the common convention of
	// quoting quality as radius²/edge².
	if m.cfg.Quality && ratio*ratio > m.cfg.MinRatio {
		return true, ratio
	}
	vol := tetVolume(m.pt(rec.corner[0]), m.pt(rec.corner[1]), m.pt(rec.corner[2]), m.pt(rec.corner[3]))
	if m.cfg.FixedVolume && m.cfg.MaxVolume > 0 && vol > m.cfg.MaxVolume {
		return true, ratio + vol/m.cfg.MaxVolume
	}
	if m.cfg.VarVolume && rec.volume > 0 && vol > rec.volume {
		return true, ratio + vol/rec.volume
	}
	return false, 0
}

// splitEncSegs splits every queued encroached subsegment at a protected
// point until none is left.
func (m *Mesh) splitEncSegs(rf *refiner) {
	var fq flipQueue
	for len(rf.segs) > 0 {
		seg := rf.segs[len(rf.segs)-1]
		rf.segs = rf.segs[:len(rf.segs)-1]
		if m.isDeadShell(seg) || m.shell(seg).kind != subseg {
			continue
		}
		ref, enc := m.segEncroached(seg)
		if !enc {
			continue
		}
		if rf.added >= rf.budget {
			continue
		}
		r := m.shell(seg)
		a, b := r.vert[0], r.vert[1]
		pos := m.segSplitPoint(a, b, ref)
		p := m.makePoint(pos, FreeSegVertex)
		searchtet := TetFace{}
		switch m.insertSite(p, &searchtet, true, &fq) {
		case DuplicatePoint:
			m.killPoint(p)
			continue
		case OutsidePoint:
			m.killPoint(p)
			continue
		}
		m.flip(&fq)
		rf.added++
		if m.isDeadShell(seg) {
			// The point landed on the tetrahedralized edge and the edge
			// split already divided the shell.
			if h, ok := m.segAlong(a, p); ok {
				rf.segs = append(rf.segs, h)
			}
			if h, ok := m.segAlong(p, b); ok {
				rf.segs = append(rf.segs, h)
			}
		} else {
			halves := m.splitSegmentShell(seg, p)
			rf.segs = append(rf.segs, halves[0], halves[1])
		}
		m.tallyAround(rf, p)
	}
}

// segAlong finds the subsegment covering the mesh edge a-b, if any.
func (m *Mesh) segAlong(a, b int) (ShellEdge, bool) {
	t, ok := m.findTetEdge(a, b)
	if !ok {
		return ShellEdge{}, false
	}
	seg := m.tsspivot(t)
	return seg, seg.Shell != vacuousShell
}

// splitEncSubs splits queued encroached subfaces at their circumcenters,
// yielding to segment splits whenever a center would encroach a
// subsegment.
func (m *Mesh) splitEncSubs(rf *refiner) {
	var fq flipQueue
	for {
		s, ok := rf.popEncSub()
		if !ok {
			return
		}
		if m.isDeadShell(s) || m.shell(s).kind != subface {
			continue
		}
		if _, enc := m.subEncroached(s); !enc {
			continue
		}
		if rf.added >= rf.budget {
			continue
		}
		r := m.shell(s)
		center, _, cok := circumsphere(m.pt(r.vert[0]), m.pt(r.vert[1]), m.pt(r.vert[2]), m.pt(r.vert[0]), true)
		if !cok {
			continue
		}
		center = m.protectSubSplit(r, center)
		// A center inside some segment's diametral sphere splits the
		// segment instead.
		if seg, blocked := m.segBlockingPoint(s, center); blocked {
			m.queueEncSeg(rf, seg)
			m.queueEncSub(rf, s)
			m.splitEncSegs(rf)
			continue
		}
		p := m.makePoint(center, FreeSubVertex)
		searchtet := m.stpivotLive(s)
		res := m.insertSite(p, &searchtet, true, &fq)
		if res == DuplicatePoint || res == OutsidePoint {
			m.killPoint(p)
			continue
		}
		m.flip(&fq)
		rf.added++
		m.tallyAround(rf, p)
	}
}

// protectSubSplit keeps a subface split point out of the protecting
// spheres of the subface's acute corners: a circumcenter inside one moves
// out onto the sphere, along the ray from the corner through the center.
func (m *Mesh) protectSubSplit(r *shellRecord, center r3.Vector) r3.Vector {
	for i, vtx := range r.vert {
		if m.pointKind(vtx) != AcuteVertex {
			continue
		}
		rad := m.protectRadius[vtx]
		av := m.pt(vtx)
		if rad == 0 || center.Sub(av).Norm() >= rad {
			continue
		}
		aim := center
		if aim == av {
			// Center on the corner itself; aim at the opposite edge.
			aim = m.pt(r.vert[(i+1)%3]).Add(m.pt(r.vert[(i+2)%3])).Mul(0.5)
		}
		far := av.Add(aim.Sub(av).Mul(2 * rad / aim.Sub(av).Norm()))
		return segSphereIntersect(av, far, av, rad)
	}
	return center
}

// stpivotLive returns a live tetrahedron handle near s.
func (m *Mesh) stpivotLive(s ShellEdge) TetFace {
	for i := 0; i < 2; i++ {
		t := m.shell(s).tet[i]
		if t.Tet != outerTet && !m.tets.isDead(t.Tet) {
			return TetFace{Tet: t.Tet}
		}
	}
	return TetFace{}
}

// segBlockingPoint finds a subsegment on or near s whose diametral sphere
// contains the coordinate q.
func (m *Mesh) segBlockingPoint(s ShellEdge, q r3.Vector) (ShellEdge, bool) {
	var hit ShellEdge
	found := false
	for _, ver := range []int8{0, 2, 4} {
		seg := m.sspivot(ShellEdge{Shell: s.Shell, Ver: ver})
		if seg.Shell == vacuousShell || m.isDeadShell(seg) {
			continue
		}
		r := m.shell(seg)
		pa, pb := m.pt(r.vert[0]), m.pt(r.vert[1])
		if pa.Sub(q).Dot(pb.Sub(q)) < 0 {
			hit = seg
			found = true
			break
		}
	}
	return hit, found
}

// tallyAround queues any subsegment or subface newly encroached by p.
func (m *Mesh) tallyAround(rf *refiner, p int) {
	if !m.checkSubfaces {
		return
	}
	seenSeg := map[int]bool{}
	seenSub := map[int]bool{}
	m.tetsAround(p, func(ti int) bool {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: ti, Loc: loc}
			if s := m.tspivot(h); s.Shell != vacuousShell && !seenSub[s.Shell] {
				seenSub[s.Shell] = true
				if !m.faceHasPoint(s, p) {
					if _, enc := m.subEncroached(s); enc {
						m.queueEncSub(rf, s)
					}
				}
			}
			for _, ver := range []int8{0, 2, 4} {
				e := TetFace{Tet: ti, Loc: loc, Ver: ver}
				seg := m.tsspivot(e)
				if seg.Shell == vacuousShell || seenSeg[seg.Shell] {
					continue
				}
				seenSeg[seg.Shell] = true
				r := m.shell(seg)
				if r.vert[0] == p || r.vert[1] == p {
					continue
				}
				if m.inDiametralSphere(r.vert[0], r.vert[1], p) {
					m.queueEncSeg(rf, seg)
				}
			}
		}
		return true
	})
}

// splitBadTets inserts circumcenters of skinny and oversized tetrahedra,
// undoing any insertion that encroaches the boundary and splitting the
// boundary first instead.
func (m *Mesh) splitBadTets(rf *refiner) {
	var fq flipQueue
	for rf.tets.Len() > 0 {
		it := heap.Pop(&rf.tets).(badTet)
		if m.tets.isDead(it.t.Tet) || m.tet(it.t).corner != it.corners {
			continue
		}
		if bad, _ := m.tetIsBad(it.t); !bad {
			continue
		}
		if rf.added >= rf.budget {
			m.Unconverged = append(m.Unconverged, it.t)
			continue
		}
		rec := m.tet(it.t)
		_, center := radiusEdgeRatio(m.pt(rec.corner[0]), m.pt(rec.corner[1]), m.pt(rec.corner[2]), m.pt(rec.corner[3]))

		searchtet := TetFace{Tet: it.t.Tet}
		res := m.preciseLocate(center, &searchtet)
		if res == Outside {
			// The center escapes the domain; give up on this tetrahedron.
			m.Unconverged = append(m.Unconverged, it.t)
			continue
		}
		// A center landing on a boundary feature splits that feature first.
		if res == OnFace {
			if s := m.tspivot(searchtet); s.Shell != vacuousShell {
				if m.cfg.NoBisect {
					m.Unconverged = append(m.Unconverged, it.t)
					continue
				}
				m.queueEncSub(rf, s)
				heap.Push(&rf.tets, it)
				m.splitEncSubs(rf)
				continue
			}
		}
		if res == OnEdge {
			if seg := m.tsspivot(searchtet); seg.Shell != vacuousShell {
				if m.cfg.NoBisect {
					m.Unconverged = append(m.Unconverged, it.t)
					continue
				}
				m.queueEncSeg(rf, seg)
				heap.Push(&rf.tets, it)
				m.splitEncSegs(rf)
				continue
			}
		}

		mark := m.flipMark()
		p := m.makePoint(center, FreeVolVertex)
		ins := m.insertSite(p, &searchtet, true, &fq)
		if ins == DuplicatePoint || ins == OutsidePoint {
			m.killPoint(p)
			continue
		}
		m.flip(&fq)

		if segs, subs2, enc := m.boundaryEncroachedBy(p); enc {
			// Undo and split the boundary first.
			m.undoSite(mark, p)
			if m.cfg.NoBisect {
				m.Unconverged = append(m.Unconverged, it.t)
				continue
			}
			for _, seg := range segs {
				m.queueEncSeg(rf, seg)
			}
			for _, s := range subs2 {
				m.queueEncSub(rf, s)
			}
			heap.Push(&rf.tets, it)
			m.splitEncSegs(rf)
			m.splitEncSubs(rf)
			continue
		}
		rf.added++
		m.tetsAround(p, func(ti int) bool {
			t := TetFace{Tet: ti}
			if bad, ratio := m.tetIsBad(t); bad {
				heap.Push(&rf.tets, badTet{t: t, corners: m.tet(t).corner, ratio: ratio})
			}
			return true
		})
	}
}

// boundaryEncroachedBy lists the subsegments and subfaces whose protecting
// spheres contain p.
func (m *Mesh) boundaryEncroachedBy(p int) ([]ShellEdge, []ShellEdge, bool) {
	if !m.checkSubfaces {
		return nil, nil, false
	}
	var segs, subs2 []ShellEdge
	seenSeg := map[int]bool{}
	seenSub := map[int]bool{}
	m.tetsAround(p, func(ti int) bool {
		for loc := int8(0); loc < 4; loc++ {
			h := TetFace{Tet: ti, Loc: loc}
			if s := m.tspivot(h); s.Shell != vacuousShell && !seenSub[s.Shell] {
				seenSub[s.Shell] = true
				r := m.shell(s)
				c, radius, ok := circumsphere(m.pt(r.vert[0]), m.pt(r.vert[1]), m.pt(r.vert[2]), m.pt(r.vert[0]), true)
				if ok && m.pt(p).Sub(c).Norm() < radius {
					subs2 = append(subs2, s)
				}
			}
			for _, ver := range []int8{0, 2, 4} {
				e := TetFace{Tet: ti, Loc: loc, Ver: ver}
				seg := m.tsspivot(e)
				if seg.Shell == vacuousShell || seenSeg[seg.Shell] {
					continue
				}
				seenSeg[seg.Shell] = true
				r := m.shell(seg)
				if m.inDiametralSphere(r.vert[0], r.vert[1], p) {
					segs = append(segs, seg)
				}
			}
		}
		return true
	})
	return segs, subs2, len(segs)+len(subs2) > 0
}

// removeSlivers flips away tetrahedra that are flat without being skinny by
// the radius-edge measure. Irreparable ones go to Unconverged.
func (m *Mesh) removeSlivers() {
	maxDihedral := m.cfg.MaxDihedral
	if maxDihedral == 0 {
		maxDihedral = 175
	}
	limit := maxDihedral * math.Pi / 180
	var fq flipQueue
	var slivers []TetFace
	m.eachTet(func(t TetFace) bool {
		if m.sliverAngle(t) > limit {
			slivers = append(slivers, t)
		}
		return true
	})
	for _, t := range slivers {
		if m.tets.isDead(t.Tet) {
			continue
		}
		if m.sliverAngle(t) <= limit {
			continue
		}
		if !m.tryFlipAway(t, &fq) {
			m.Unconverged = append(m.Unconverged, t)
		}
		m.flip(&fq)
	}
}

func (m *Mesh) sliverAngle(t TetFace) float64 {
	c := m.tet(t).corner
	var dihed [6]float64
	tetAllDihedral(m.pt(c[0]), m.pt(c[1]), m.pt(c[2]), m.pt(c[3]), &dihed)
	max := 0.0
	for _, d := range dihed {
		if d > max {
			max = d
		}
	}
	return max
}

// tryFlipAway attempts one bistellar flip through any face or edge of t.
func (m *Mesh) tryFlipAway(t TetFace, fq *flipQueue) bool {
	for loc := int8(0); loc < 4; loc++ {
		h := TetFace{Tet: t.Tet, Loc: loc}
		if !m.symExists(h) {
			continue
		}
		typ, ft := m.categorizeFace(h)
		switch typ {
		case T23:
			m.flip23(ft, fq)
			return true
		case T32:
			m.flip32(ft, fq)
			return true
		case T44:
			m.flip44(ft, fq)
			return true
		}
	}
	return false
}
