// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package predicates implements the two exact geometric tests every topological
// decision in the mesher rests on: the orientation test and the in-sphere test.
//
// Both predicates follow the same regime: a fast floating-point evaluation is
// attempted first, together with a conservative bound on its accumulated
// rounding error. When the computed value lies safely outside that bound its
// sign is trusted. Otherwise the determinant is re-evaluated in arbitrary
// precision (big.Float through r3.PreciseVector), which is exact for inputs
// that are IEEE doubles. Exact zeros are reported as Zero; callers that cannot
// tolerate ties use the Sym variants, which resolve zeros by a symbolic
// perturbation keyed to vertex indices.
package predicates

import (
	"math/big"

	"github.com/golang/geo/r3"
)

// Sign is the result of a predicate evaluation.
type Sign int

const (
	Negative Sign = -1
	Zero     Sign = 0
	Positive Sign = 1
)

const (
	// epsilon is the rounding unit of IEEE double arithmetic (half ulp of 1).
	epsilon = 1.1102230246251565e-16

	// orient3dErrBound bounds the rounding error of the float orientation
	// determinant relative to its permanent.
	orient3dErrBound = (7.0 + 56.0*epsilon) * epsilon

	// inSphereErrBound plays the same role for the in-sphere determinant.
	inSphereErrBound = (16.0 + 224.0*epsilon) * epsilon
)

// Orient3D returns the sign of the signed volume of the tetrahedron (a,b,c,d).
// It is Positive when d lies below the plane through a, b, c, with a, b, c
// appearing in counterclockwise order when viewed from above; Negative when d
// lies above it; Zero when the four points are exactly coplanar.
func Orient3D(a, b, c, d r3.Vector) Sign {
	adx := a.X - d.X
	ady := a.Y - d.Y
	adz := a.Z - d.Z
	bdx := b.X - d.X
	bdy := b.Y - d.Y
	bdz := b.Z - d.Z
	cdx := c.X - d.X
	cdy := c.Y - d.Y
	cdz := c.Z - d.Z

	bdxcdy := bdx * cdy
	cdxbdy := cdx * bdy
	cdxady := cdx * ady
	adxcdy := adx * cdy
	adxbdy := adx * bdy
	bdxady := bdx * ady

	det := adz*(bdxcdy-cdxbdy) + bdz*(cdxady-adxcdy) + cdz*(adxbdy-bdxady)

	permanent := (abs(bdxcdy)+abs(cdxbdy))*abs(adz) +
		(abs(cdxady)+abs(adxcdy))*abs(bdz) +
		(abs(adxbdy)+abs(bdxady))*abs(cdz)
	errBound := orient3dErrBound * permanent
	if det > errBound {
		return Positive
	}
	if det < -errBound {
		return Negative
	}
	return orient3dExact(a, b, c, d)
}

func orient3dExact(a, b, c, d r3.Vector) Sign {
	pd := r3.PreciseVectorFromVector(d)
	ad := r3.PreciseVectorFromVector(a).Sub(pd)
	bd := r3.PreciseVectorFromVector(b).Sub(pd)
	cd := r3.PreciseVectorFromVector(c).Sub(pd)
	return Sign(ad.Dot(bd.Cross(cd)).Sign())
}

// InSphere returns the position of e relative to the circumsphere of the
// tetrahedron (a,b,c,d): Positive if e lies inside the sphere, Negative if
// outside, Zero if exactly on it. The tetrahedron must be positively oriented
// (Orient3D(a,b,c,d) == Positive); callers with negatively oriented input
// swap two vertices first.
func InSphere(a, b, c, d, e r3.Vector) Sign {
	aex := a.X - e.X
	aey := a.Y - e.Y
	aez := a.Z - e.Z
	bex := b.X - e.X
	bey := b.Y - e.Y
	bez := b.Z - e.Z
	cex := c.X - e.X
	cey := c.Y - e.Y
	cez := c.Z - e.Z
	dex := d.X - e.X
	dey := d.Y - e.Y
	dez := d.Z - e.Z

	aexbey := aex * bey
	bexaey := bex * aey
	ab := aexbey - bexaey
	bexcey := bex * cey
	cexbey := cex * bey
	bc := bexcey - cexbey
	cexdey := cex * dey
	dexcey := dex * cey
	cd := cexdey - dexcey
	dexaey := dex * aey
	aexdey := aex * dey
	da := dexaey - aexdey
	aexcey := aex * cey
	cexaey := cex * aey
	ac := aexcey - cexaey
	bexdey := bex * dey
	dexbey := dex * bey
	bd := bexdey - dexbey

	abc := aez*bc - bez*ac + cez*ab
	bcd := bez*cd - cez*bd + dez*bc
	cda := cez*da + dez*ac + aez*cd
	dab := dez*ab + aez*bd + bez*da

	alift := aex*aex + aey*aey + aez*aez
	blift := bex*bex + bey*bey + bez*bez
	clift := cex*cex + cey*cey + cez*cez
	dlift := dex*dex + dey*dey + dez*dez

	det := (dlift*abc - clift*dab) + (blift*cda - alift*bcd)

	aezplus := abs(aez)
	bezplus := abs(bez)
	cezplus := abs(cez)
	dezplus := abs(dez)
	aexbeyplus := abs(aexbey)
	bexaeyplus := abs(bexaey)
	bexceyplus := abs(bexcey)
	cexbeyplus := abs(cexbey)
	cexdeyplus := abs(cexdey)
	dexceyplus := abs(dexcey)
	dexaeyplus := abs(dexaey)
	aexdeyplus := abs(aexdey)
	aexceyplus := abs(aexcey)
	cexaeyplus := abs(cexaey)
	bexdeyplus := abs(bexdey)
	dexbeyplus := abs(dexbey)
	permanent := ((cexdeyplus+dexceyplus)*bezplus+
		(dexbeyplus+bexdeyplus)*cezplus+
		(bexceyplus+cexbeyplus)*dezplus)*alift +
		((dexaeyplus+aexdeyplus)*cezplus+
			(aexceyplus+cexaeyplus)*dezplus+
			(cexdeyplus+dexceyplus)*aezplus)*blift +
		((aexbeyplus+bexaeyplus)*dezplus+
			(bexdeyplus+dexbeyplus)*aezplus+
			(dexaeyplus+aexdeyplus)*bezplus)*clift +
		((bexceyplus+cexbeyplus)*aezplus+
			(cexaeyplus+aexceyplus)*bezplus+
			(aexbeyplus+bexaeyplus)*cezplus)*dlift
	errBound := inSphereErrBound * permanent
	if det > errBound {
		return Positive
	}
	if det < -errBound {
		return Negative
	}
	return inSphereExact(a, b, c, d, e)
}

func inSphereExact(a, b, c, d, e r3.Vector) Sign {
	pe := r3.PreciseVectorFromVector(e)
	ae := r3.PreciseVectorFromVector(a).Sub(pe)
	be := r3.PreciseVectorFromVector(b).Sub(pe)
	ce := r3.PreciseVectorFromVector(c).Sub(pe)
	de := r3.PreciseVectorFromVector(d).Sub(pe)

	det3 := func(u, v, w r3.PreciseVector) *big.Float {
		return u.Dot(v.Cross(w))
	}

	det := newBigFloat()
	det.Add(det, newBigFloat().Mul(ae.Norm2(), det3(be, ce, de)))
	det.Sub(det, newBigFloat().Mul(be.Norm2(), det3(ae, ce, de)))
	det.Add(det, newBigFloat().Mul(ce.Norm2(), det3(ae, be, de)))
	det.Sub(det, newBigFloat().Mul(de.Norm2(), det3(ae, be, ce)))

	// The lifted determinant above is negated relative to the float path:
	// expanding along the norm column with rows (a,b,c,d) gives inside < 0.
	return Sign(-det.Sign())
}

// Orient3DSym is Orient3D with a symbolic tie-break. Exactly coplanar inputs
// are resolved by the parity of the permutation sorting the vertex indices,
// so the answer is deterministic and antisymmetric under vertex swaps.
func Orient3DSym(a, b, c, d r3.Vector, ia, ib, ic, id int) Sign {
	if s := Orient3D(a, b, c, d); s != Zero {
		return s
	}
	return permutationParity([]int{ia, ib, ic, id})
}

// InSphereSym is InSphere with the same symbolic tie-break applied to exactly
// cospherical inputs.
func InSphereSym(a, b, c, d, e r3.Vector, ia, ib, ic, id, ie int) Sign {
	if s := InSphere(a, b, c, d, e); s != Zero {
		return s
	}
	return permutationParity([]int{ia, ib, ic, id, ie})
}

// permutationParity returns Positive for an even permutation of the indices'
// sorted order and Negative for an odd one. Duplicate indices mean the caller
// passed the same vertex twice; that configuration is degenerate by
// construction and reported as Negative (outside / below).
func permutationParity(idx []int) Sign {
	swaps := 0
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j-1] > idx[j]; j-- {
			if idx[j-1] == idx[j] {
				return Negative
			}
			idx[j-1], idx[j] = idx[j], idx[j-1]
			swaps++
		}
	}
	for i := 1; i < len(idx); i++ {
		if idx[i-1] == idx[i] {
			return Negative
		}
	}
	if swaps%2 == 0 {
		return Positive
	}
	return Negative
}

func newBigFloat() *big.Float { return new(big.Float).SetPrec(big.MaxPrec) }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
