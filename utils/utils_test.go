// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package utils

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenerateRandomPoints_Length(t *testing.T) {
	tests := []struct {
		name string
		cnt  int
		seed int64
	}{
		{"zero points", 0, 42},
		{"one point", 1, 42},
		{"ten points", 10, 0},
		{"hundred points", 100, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := GenerateRandomPoints(tt.cnt, tt.seed)
			if len(points) != tt.cnt {
				t.Errorf("GenerateRandomPoints(%v, %v) len = %v, want %v", tt.cnt, tt.seed,
					len(points), tt.cnt)
			}
		})
	}
}

func TestGenerateRandomPoints_InUnitCube(t *testing.T) {
	const (
		cnt  = 100
		seed = 0
	)
	points := GenerateRandomPoints(cnt, seed)
	for i, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 || p.Z < 0 || p.Z > 1 {
			t.Errorf("GenerateRandomPoints(%v, %v)[%d] = %v, want inside unit cube", cnt, seed,
				i, p)
		}
	}
}

func TestGenerateRandomPoints_Determinism(t *testing.T) {
	const (
		cnt  = 10
		seed = 0
	)
	a := GenerateRandomPoints(cnt, seed)
	b := GenerateRandomPoints(cnt, seed)
	if diff := cmp.Diff(b, a); diff != "" {
		t.Errorf("GenerateRandomPoints(%v, %v) mismatch (-want +got):\n%v", cnt, seed, diff)
	}
}

func TestGenerateSpherePoints_OnUnitSphere(t *testing.T) {
	const (
		cnt     = 100
		seed    = 7
		epsilon = 1e-12
	)
	points := GenerateSpherePoints(cnt, seed)
	for i, p := range points {
		norm := p.Norm()
		if math.Abs(norm-1.0) > epsilon {
			t.Errorf("GenerateSpherePoints(%v, %v)[%d]: point norm = %v, want ≈1", cnt, seed,
				i, norm)
		}
	}
}

func TestGenerateGridPoints_Count(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"clamped to two", 1, 8},
		{"two per axis", 2, 8},
		{"three per axis", 3, 27},
		{"five per axis", 5, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := GenerateGridPoints(tt.n)
			if len(points) != tt.want {
				t.Errorf("GenerateGridPoints(%v) len = %v, want %v", tt.n, len(points), tt.want)
			}
		})
	}
}
