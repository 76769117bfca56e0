// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package predicates

import (
	"testing"

	"github.com/golang/geo/r3"
)

func TestOrient3D(t *testing.T) {
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	b := r3.Vector{X: 1, Y: 0, Z: 0}
	c := r3.Vector{X: 0, Y: 1, Z: 0}

	tests := []struct {
		name string
		d    r3.Vector
		want Sign
	}{
		{"below the plane", r3.Vector{X: 0, Y: 0, Z: -1}, Positive},
		{"above the plane", r3.Vector{X: 0, Y: 0, Z: 1}, Negative},
		{"in the plane", r3.Vector{X: 0.5, Y: 0.5, Z: 0}, Zero},
		{"barely below", r3.Vector{X: 0.25, Y: 0.25, Z: -1e-300}, Positive},
		{"barely above", r3.Vector{X: 0.25, Y: 0.25, Z: 1e-300}, Negative},
		{"coincides with a vertex", r3.Vector{X: 1, Y: 0, Z: 0}, Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Orient3D(a, b, c, tt.d); got != tt.want {
				t.Errorf("Orient3D(a, b, c, %v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestOrient3D_Antisymmetry(t *testing.T) {
	a := r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}
	b := r3.Vector{X: 1.7, Y: 0.1, Z: 0.4}
	c := r3.Vector{X: 0.3, Y: 1.9, Z: 0.2}
	d := r3.Vector{X: 0.4, Y: 0.6, Z: -1.5}

	if Orient3D(a, b, c, d) != -Orient3D(b, a, c, d) {
		t.Error("swapping two vertices did not negate Orient3D")
	}
	if Orient3D(a, b, c, d) != Orient3D(b, c, a, d) {
		t.Error("an even permutation changed Orient3D")
	}
}

func TestInSphere(t *testing.T) {
	// Positively oriented tetrahedron with circumcenter (0.5, 0.5, -0.5).
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	b := r3.Vector{X: 1, Y: 0, Z: 0}
	c := r3.Vector{X: 0, Y: 1, Z: 0}
	d := r3.Vector{X: 0, Y: 0, Z: -1}
	if Orient3D(a, b, c, d) != Positive {
		t.Fatal("test tetrahedron is not positively oriented")
	}

	tests := []struct {
		name string
		e    r3.Vector
		want Sign
	}{
		{"circumcenter", r3.Vector{X: 0.5, Y: 0.5, Z: -0.5}, Positive},
		{"far outside", r3.Vector{X: 10, Y: 0, Z: 0}, Negative},
		{"on the sphere", r3.Vector{X: 1, Y: 1, Z: -1}, Zero},
		{"vertex is on the sphere", d, Zero},
		{"barely inside", r3.Vector{X: 1, Y: 1, Z: -1 + 1e-12}, Positive},
		{"barely outside", r3.Vector{X: 1, Y: 1, Z: -1 - 1e-12}, Negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InSphere(a, b, c, d, tt.e); got != tt.want {
				t.Errorf("InSphere(a, b, c, d, %v) = %v, want %v", tt.e, got, tt.want)
			}
		})
	}
}

func TestOrient3DSym_BreaksTies(t *testing.T) {
	// Four exactly coplanar points; the symbolic answer depends only on the
	// index permutation parity.
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	b := r3.Vector{X: 1, Y: 0, Z: 0}
	c := r3.Vector{X: 0, Y: 1, Z: 0}
	d := r3.Vector{X: 1, Y: 1, Z: 0}

	if got := Orient3DSym(a, b, c, d, 0, 1, 2, 3); got != Positive {
		t.Errorf("sorted indices = %v, want Positive", got)
	}
	if got := Orient3DSym(b, a, c, d, 1, 0, 2, 3); got != Negative {
		t.Errorf("one swap = %v, want Negative", got)
	}
	if got := Orient3DSym(b, c, a, d, 1, 2, 0, 3); got != Positive {
		t.Errorf("two swaps = %v, want Positive", got)
	}
	// A real orientation overrides the tie-break.
	e := r3.Vector{X: 0, Y: 0, Z: -1}
	if got := Orient3DSym(a, b, c, e, 3, 2, 1, 0); got != Positive {
		t.Errorf("non-degenerate input ignored = %v, want Positive", got)
	}
}

func TestInSphereSym_NeverZero(t *testing.T) {
	// Five cospherical points: corners of the unit cube lie on one sphere.
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: -1},
		{X: 1, Y: 1, Z: -1},
	}
	if InSphere(pts[0], pts[1], pts[2], pts[3], pts[4]) != Zero {
		t.Fatal("test points are not cospherical")
	}
	got := InSphereSym(pts[0], pts[1], pts[2], pts[3], pts[4], 0, 1, 2, 3, 4)
	if got == Zero {
		t.Error("InSphereSym returned Zero on cospherical input")
	}
	swapped := InSphereSym(pts[1], pts[0], pts[2], pts[3], pts[4], 1, 0, 2, 3, 4)
	if swapped != -got {
		t.Errorf("swapping two vertices did not negate the tie-break: %v vs %v", got, swapped)
	}
}
