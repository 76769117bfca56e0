// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

import (
	"math"

	"github.com/golang/geo/r3"
)

// circumsphere computes the center and radius of the sphere through the four
// points, or through three points (the diametral plane circle lifted to a
// sphere) when d is the zero vector sentinel. It reports false for (nearly)
// degenerate input, in which case the caller treats the element as flat.
func circumsphere(a, b, c, d r3.Vector, degenerate bool) (r3.Vector, float64, bool) {
	ba := b.Sub(a)
	ca := c.Sub(a)
	if degenerate {
		// Circumcircle of the triangle a, b, c in its own plane.
		n := ba.Cross(ca)
		denom := 2 * n.Norm2()
		if denom == 0 {
			return r3.Vector{}, 0, false
		}
		t1 := ca.Mul(ba.Norm2())
		t2 := ba.Mul(ca.Norm2())
		off := t1.Sub(t2).Cross(n).Mul(1 / denom)
		return a.Add(off), off.Norm(), true
	}
	da := d.Sub(a)
	det := ba.Dot(ca.Cross(da))
	if det == 0 {
		return r3.Vector{}, 0, false
	}
	num := ca.Cross(da).Mul(ba.Norm2()).
		Add(da.Cross(ba).Mul(ca.Norm2())).
		Add(ba.Cross(ca).Mul(da.Norm2()))
	off := num.Mul(1 / (2 * det))
	return a.Add(off), off.Norm(), true
}

// faceNormal returns the (unnormalized) normal of the triangle a, b, c and
// its length, which is twice the triangle area.
func faceNormal(a, b, c r3.Vector) (r3.Vector, float64) {
	n := b.Sub(a).Cross(c.Sub(a))
	return n, n.Norm()
}

// shortDistance returns the distance from p to the line through e1 and e2.
func shortDistance(p, e1, e2 r3.Vector) float64 {
	d := e2.Sub(e1)
	l := d.Norm()
	if l == 0 {
		return p.Sub(e1).Norm()
	}
	return p.Sub(e1).Cross(d).Norm() / l
}

// projPoint projects p orthogonally onto the line through e1 and e2.
func projPoint(p, e1, e2 r3.Vector) r3.Vector {
	d := e2.Sub(e1)
	n2 := d.Norm2()
	if n2 == 0 {
		return e1
	}
	return e1.Add(d.Mul(p.Sub(e1).Dot(d) / n2))
}

// interiorAngle returns the angle at o formed by rays toward p1 and p2,
// in radians within [0, pi].
func interiorAngle(o, p1, p2 r3.Vector) float64 {
	v1 := p1.Sub(o)
	v2 := p2.Sub(o)
	denom := v1.Norm() * v2.Norm()
	if denom == 0 {
		return 0
	}
	cos := v1.Dot(v2) / denom
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// faceDihedral returns the dihedral angle at the edge (pa, pb) between the
// triangles (pa, pb, pc1) and (pa, pb, pc2), in radians.
func faceDihedral(pa, pb, pc1, pc2 r3.Vector) float64 {
	e := pb.Sub(pa)
	n1 := e.Cross(pc1.Sub(pa))
	n2 := e.Cross(pc2.Sub(pa))
	denom := n1.Norm() * n2.Norm()
	if denom == 0 {
		return 0
	}
	cos := n1.Dot(n2) / denom
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// tetAllDihedral fills dihed with the six dihedral angles of the
// tetrahedron, in the edge order ab, ac, ad, bc, bd, cd.
func tetAllDihedral(a, b, c, d r3.Vector, dihed *[6]float64) {
	dihed[0] = faceDihedral(a, b, c, d)
	dihed[1] = faceDihedral(a, c, b, d)
	dihed[2] = faceDihedral(a, d, b, c)
	dihed[3] = faceDihedral(b, c, a, d)
	dihed[4] = faceDihedral(b, d, a, c)
	dihed[5] = faceDihedral(c, d, a, b)
}

// radiusEdgeRatio returns circumradius over shortest edge, the quality
// measure refinement bounds, together with the circumcenter. Degenerate
// tetrahedra report an infinite ratio.
func radiusEdgeRatio(a, b, c, d r3.Vector) (float64, r3.Vector) {
	cent, radius, ok := circumsphere(a, b, c, d, false)
	if !ok {
		return math.Inf(1), r3.Vector{}
	}
	shortest := math.Inf(1)
	pts := [4]r3.Vector{a, b, c, d}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 4; j++ {
			if l := pts[i].Sub(pts[j]).Norm(); l < shortest {
				shortest = l
			}
		}
	}
	if shortest == 0 {
		return math.Inf(1), cent
	}
	return radius / shortest, cent
}

// tetVolume returns the signed volume of the tetrahedron (positive when d
// is below the oriented plane a, b, c, matching the corner stipulation).
func tetVolume(a, b, c, d r3.Vector) float64 {
	return a.Sub(d).Dot(b.Sub(d).Cross(c.Sub(d))) / 6
}

// segSphereIntersect returns the point on segment p1->p2 at distance r from
// center, used to place protected split points on segment boundaries. It
// assumes p1 lies inside the sphere and p2 outside.
func segSphereIntersect(p1, p2, center r3.Vector, r float64) r3.Vector {
	d := p2.Sub(p1)
	f := p1.Sub(center)
	a := d.Norm2()
	if a == 0 {
		return p1
	}
	bq := 2 * f.Dot(d)
	cq := f.Norm2() - r*r
	disc := bq*bq - 4*a*cq
	if disc < 0 {
		disc = 0
	}
	t := (-bq + math.Sqrt(disc)) / (2 * a)
	t = math.Max(0, math.Min(1, t))
	return p1.Add(d.Mul(t))
}

// lineProjectionParam returns the parameter t such that the projection of p
// onto the line e1->e2 is e1 + t*(e2-e1).
func lineProjectionParam(p, e1, e2 r3.Vector) float64 {
	d := e2.Sub(e1)
	n2 := d.Norm2()
	if n2 == 0 {
		return 0
	}
	return p.Sub(e1).Dot(d) / n2
}
